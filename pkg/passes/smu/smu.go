// Package smu locates SMU firmware markers and mailbox command
// dispatch tables.
package smu

import (
	"context"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the SMU analysis pass.
const ID = analysis.PassID("smu")

// Dispatch tables sit close to the marker strings; candidates are
// tried inside this window after each marker.
const tableSearchWindow = 64

// Pass locates SMU markers and command tables.
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
	decoder, haveDecoder := in.Decoders.Get(decode.StructSmuCommandTable)

	for _, region := range in.Regions() {
		for _, m := range in.Matches(ctx, region, scan.KindSMU) {
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceHeuristic,
				Description: fmt.Sprintf("SMU marker '%s'", m.Signature),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
			if !haveDecoder {
				continue
			}
			if inst := findCommandTable(decoder, in, region, m.Offset); inst != nil {
				res.AddFinding(report.Finding{
					Pass:        ID,
					Kind:        report.FindingStructure,
					Confidence:  report.ConfidenceProbable,
					Description: inst.Describe(),
					Region:      region,
					Offset:      inst.Offset,
					Instance:    inst,
				})
			}
		}
	}
	return res, nil
}

// findCommandTable tries the dispatch-table decoder at every offset in
// the window following a marker and returns the first hit.
func findCommandTable(decoder decode.Decoder, in analysis.Input, region image.RegionName, markerOffset uint64) *decode.Instance {
	for delta := uint64(0); delta < tableSearchWindow; delta++ {
		offset := markerOffset + delta
		raw := in.TailBytes(region, offset)
		if raw == nil {
			return nil
		}
		inst, err := decoder.Decode(raw, offset, region)
		if err == nil {
			return inst
		}
	}
	return nil
}
