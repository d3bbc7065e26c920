// Package nvram locates UEFI NVRAM variable headers.
package nvram

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the NVRAM variable analysis pass.
const ID = analysis.PassID("nvram")

// The variable state marker is followed by a u32 data size. A zero or
// flash-block sized value means the slot is free or corrupted.
const (
	sizeOffset   = 4
	maxVarBytes  = 0x10000
	maxPerRegion = 64
)

// Pass locates NVRAM variable headers.
type Pass struct{}

// New returns a new instance of the pass.
func New() analysis.Pass {
	return &Pass{}
}

// ID implements analysis.Pass.
func (*Pass) ID() analysis.PassID {
	return ID
}

// Analyze implements analysis.Pass.
func (p *Pass) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	res := &analysis.Result{}

	for _, region := range in.Regions() {
		found := 0
		for _, m := range in.Matches(ctx, region, scan.KindNVRAM) {
			raw, err := in.Image.BytesAt(region, m.Offset, sizeOffset+4)
			if err != nil {
				continue
			}
			size := binary.LittleEndian.Uint32(raw[sizeOffset:])
			if size == 0 || size >= maxVarBytes {
				continue
			}
			if found >= maxPerRegion {
				res.AddDiagnostic(report.Diagnostic{
					Source:  string(ID),
					Offset:  m.Offset,
					Message: fmt.Sprintf("more than %d variable headers in region %s, truncating", maxPerRegion, region),
				})
				break
			}
			found++
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceHeuristic,
				Description: fmt.Sprintf("NVRAM variable header, %d data bytes", size),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
	}
	return res, nil
}
