// Package ratios reports memory clock ratio configuration bytes.
package ratios

import (
	"context"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the clock ratio pass.
const ID = analysis.PassID("ratios")

// Nearby hits of different ratio signatures describe the same
// configuration block, not independent findings.
const dedupWindow = 16

var ratioLabels = map[scan.SignatureID]string{
	"ratio-1-1": "1:1",
	"ratio-1-2": "1:2",
	"ratio-2-1": "2:1",
}

// Pass reports clock ratio markers.
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
		matches := in.Matches(ctx, region, scan.KindRatio)

		lastOffset := uint64(0)
		have := false
		for _, m := range matches {
			if have && m.Offset-lastOffset < dedupWindow {
				continue
			}
			lastOffset = m.Offset
			have = true

			label, ok := ratioLabels[m.Signature]
			if !ok {
				label = string(m.Signature)
			}
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceHeuristic,
				Description: fmt.Sprintf("FCLK:MCLK ratio marker %s", label),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
	}
	return res, nil
}
