// Package numerics sweeps the image for u32 tables shaped like GPU
// frequency tables: aligned runs of round megahertz values.
package numerics

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the numeric-table analysis pass.
const ID = analysis.PassID("numerics")

// Table shape: 8 consecutive u32 values at a 4-aligned offset, every
// value a round multiple of 50 MHz inside the plausible band, at
// least 4 distinct values.
const (
	tableEntries  = 8
	valueMin      = 200
	valueMax      = 1800
	valueStep     = 50
	minUnique     = 4
	maxPerRegion  = 64
	candidateSpan = tableEntries * 4
)

// Pass sweeps for u32 frequency tables.
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
	dpmDecoder, haveDPM := in.Decoders.Get(decode.StructDpmTable)

	for _, region := range in.Regions() {
		reg, err := in.Image.Region(region)
		if err != nil {
			continue
		}
		data, err := in.Image.RegionBytes(region)
		if err != nil {
			continue
		}

		found := 0
		for off := 0; off+candidateSpan <= len(data) && found < maxPerRegion; off += 4 {
			values, ok := readTable(data[off:])
			if !ok {
				continue
			}
			found++
			absolute := reg.Start + uint64(off)

			// A shape this regular is often a DPM state table; prefer
			// the exact decode when it validates.
			if haveDPM {
				if inst, err := dpmDecoder.Decode(data[off:], absolute, region); err == nil {
					res.AddFinding(report.Finding{
						Pass:        ID,
						Kind:        report.FindingStructure,
						Confidence:  report.ConfidenceProbable,
						Description: inst.Describe(),
						Region:      region,
						Offset:      absolute,
						Instance:    inst,
					})
					off += candidateSpan - 4
					continue
				}
			}

			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceHeuristic,
				Description: fmt.Sprintf("u32 frequency table candidate: %v MHz", values),
				Region:      region,
				Offset:      absolute,
				Match: &scan.Match{
					Signature: "u32-frequency-table",
					Kind:      scan.KindNumeric,
					Region:    region,
					Offset:    absolute,
					Context:   append([]byte(nil), data[off:off+candidateSpan]...),
				},
			})
			off += candidateSpan - 4
		}

		if found >= maxPerRegion {
			res.AddDiagnostic(report.Diagnostic{
				Source:  string(ID),
				Message: fmt.Sprintf("region '%s' exceeded %d table candidates; the rest are dropped", region, maxPerRegion),
			})
		}
	}
	return res, nil
}

func readTable(data []byte) ([]uint32, bool) {
	values := make([]uint32, 0, tableEntries)
	unique := map[uint32]struct{}{}
	for i := 0; i < tableEntries; i++ {
		v := binary.LittleEndian.Uint32(data[i*4:])
		if v < valueMin || v > valueMax || v%valueStep != 0 {
			return nil, false
		}
		values = append(values, v)
		unique[v] = struct{}{}
	}
	if len(unique) < minUnique {
		return nil, false
	}
	return values, true
}
