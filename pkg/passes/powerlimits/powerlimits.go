// Package powerlimits locates sustained power limit values and
// proposes raising the common 15W limit.
package powerlimits

import (
	"context"
	"encoding/binary"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the power-limit analysis pass.
const ID = analysis.PassID("powerlimits")

const (
	stockLimitMW  = 15000
	raisedLimitMW = 25000
)

// Pass decodes power limit values.
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

	decoder, found := in.Decoders.Get(decode.StructPowerLimit)
	if !found {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: "no power-limit decoder in the registry; pass degraded to nothing",
		})
		return res, nil
	}

	for _, region := range in.Regions() {
		for _, m := range in.Matches(ctx, region, scan.KindPowerLimit) {
			inst, err := decoder.Decode(in.TailBytes(region, m.Offset), m.Offset, region)
			if err != nil {
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

			if mw, _ := inst.Field("milliwatts"); mw == uint64(stockLimitMW) {
				res.AddFinding(report.Finding{
					Pass:        ID,
					Kind:        report.FindingPatch,
					Confidence:  report.ConfidenceHeuristic,
					Description: "sustained power limit raise",
					Region:      region,
					Offset:      m.Offset,
					Patch: &report.PatchCandidate{
						Offset:      m.Offset,
						Original:    binary.LittleEndian.AppendUint32(nil, stockLimitMW),
						Patched:     binary.LittleEndian.AppendUint32(nil, raisedLimitMW),
						Description: "sustained power limit raise",
						Effect:      "raises the 15W sustained limit to 25W",
						Risk:        "high",
					},
				})
			}
		}
	}
	return res, nil
}
