// Package ec locates embedded-controller firmware markers.
package ec

import (
	"context"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the EC analysis pass.
const ID = analysis.PassID("ec")

// maxPerMarker caps findings per marker; short ASCII markers repeat
// in data sections.
const maxPerMarker = 8

// Pass locates EC firmware markers.
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
		perMarker := map[scan.SignatureID]int{}
		for _, m := range in.Matches(ctx, region, scan.KindEC) {
			perMarker[m.Signature]++
			if perMarker[m.Signature] > maxPerMarker {
				continue
			}
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceHeuristic,
				Description: fmt.Sprintf("EC firmware marker '%s'", m.Signature),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
	}
	return res, nil
}
