// Package spd locates embedded SPD memory-configuration blocks and
// reports locked memory clocks with an unlock patch candidate.
package spd

import (
	"context"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the SPD analysis pass.
const ID = analysis.PassID("spd")

// Pass decodes SPD blocks.
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

	decoder, found := in.Decoders.Get(decode.StructSPD)
	if !found {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: "no SPD decoder in the registry; pass degraded to nothing",
		})
		return res, nil
	}

	for _, region := range in.Regions() {
		for _, m := range in.Matches(ctx, region, scan.KindSPD) {
			inst, err := decoder.Decode(in.TailBytes(region, m.Offset), m.Offset, region)
			if err != nil {
				// Not a real SPD block here.
				continue
			}
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingStructure,
				Confidence:  report.ConfidenceProbable,
				Description: inst.Describe(),
				Region:      region,
				Offset:      m.Offset,
				Instance:    inst,
			})

			if locked, _ := inst.Field("locked"); locked == true {
				res.AddFinding(report.Finding{
					Pass:        ID,
					Kind:        report.FindingPatch,
					Confidence:  report.ConfidenceProbable,
					Description: "SPD tCK unlock",
					Region:      region,
					Offset:      m.Offset + decode.SPDTCKOffset,
					Patch: &report.PatchCandidate{
						Offset:      m.Offset + decode.SPDTCKOffset,
						Original:    []byte{decode.SPDLockedTCK},
						Patched:     []byte{decode.SPDUnlockedTCK},
						Description: "SPD tCK unlock",
						Effect:      "restores the stock memory clock encoding",
						Risk:        "low",
					},
				})
			}
		}
	}
	return res, nil
}
