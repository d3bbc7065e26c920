// Package dpm locates SMU DPM state tables.
package dpm

import (
	"context"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/report"
)

// ID is the unique id of the DPM table analysis pass.
const ID = analysis.PassID("dpm")

const (
	sweepStride = 2
	dedupWindow = 8

	maxPerRegion = 64
)

// Pass locates DPM tables.
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

	decoder, haveDecoder := in.Decoders.Get(decode.StructDpmTable)
	if !haveDecoder {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: "no DPM table decoder for this family, skipping",
		})
		return res, nil
	}

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
		nextAllowed := 0
		for off := 0; off < len(data) && found < maxPerRegion; off += sweepStride {
			if off < nextAllowed {
				continue
			}
			inst, err := decoder.Decode(data[off:], reg.Start+uint64(off), region)
			if err != nil {
				continue
			}
			found++
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingStructure,
				Confidence:  report.ConfidenceProbable,
				Description: inst.Describe(),
				Region:      region,
				Offset:      reg.Start + uint64(off),
				Instance:    inst,
			})
			// A hit two bytes in is the same table, not a new one.
			nextAllowed = off + len(inst.Raw)
			if nextAllowed < off+dedupWindow {
				nextAllowed = off + dedupWindow
			}
		}
	}
	return res, nil
}
