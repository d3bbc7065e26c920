// Package psp locates AMD PSP directory headers.
package psp

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the PSP directory analysis pass.
const ID = analysis.PassID("psp")

// The `$PSP` cookie is followed by a u32 directory size.
const (
	sizeOffset  = 4
	maxDirBytes = 0x1000000
)

// Pass locates PSP directories.
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
		for _, m := range in.Matches(ctx, region, scan.KindPSP) {
			raw, err := in.Image.BytesAt(region, m.Offset, sizeOffset+4)
			if err != nil {
				continue
			}
			size := binary.LittleEndian.Uint32(raw[sizeOffset:])
			if size == 0 || size > maxDirBytes {
				continue
			}
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceProbable,
				Description: fmt.Sprintf("PSP directory (0x%X bytes)", size),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
	}
	return res, nil
}
