// Package vendorstrings locates the fixed vendor marker strings
// (AGESA, ABL, PMU and friends) that anchor the firmware's layout.
package vendorstrings

import (
	"context"
	"fmt"
	"sort"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the vendor-string analysis pass.
const ID = analysis.PassID("strings")

// maxPerString caps the findings per marker; a marker repeated beyond
// that is padding or data, not an anchor.
const maxPerString = 16

// Pass locates vendor marker strings.
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
		perString := map[scan.SignatureID]int{}
		for _, m := range in.Matches(ctx, region, scan.KindString) {
			perString[m.Signature]++
			if perString[m.Signature] > maxPerString {
				continue
			}
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceProbable,
				Description: fmt.Sprintf("vendor string '%s'", m.Signature),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
		// Deterministic diagnostic order regardless of map iteration.
		overflown := make([]scan.SignatureID, 0, len(perString))
		for id, count := range perString {
			if count > maxPerString {
				overflown = append(overflown, id)
			}
		}
		sort.Slice(overflown, func(i, j int) bool { return overflown[i] < overflown[j] })
		for _, id := range overflown {
			res.AddDiagnostic(report.Diagnostic{
				Source:  string(ID),
				Message: fmt.Sprintf("marker '%s' repeats %d times in region '%s'; reported only the first %d", id, perString[id], region, maxPerString),
			})
		}
	}
	return res, nil
}
