// Package freqtables locates frequency multiplier tables and, for the
// capped 0x59 variant, proposes a remap patch candidate.
package freqtables

import (
	"context"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the frequency-table analysis pass.
const ID = analysis.PassID("freqtables")

// cappedRunSignature is the table variant that starts at multiplier
// 0x59; remapping its head to 0x5F lifts the cap.
const (
	cappedRunSignature = scan.SignatureID("freq-run-59")
	cappedMultiplier   = 0x59
	uncappedMultiplier = 0x5F
)

// Pass decodes frequency tables.
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

	decoder, found := in.Decoders.Get(decode.StructFrequencyTable)
	if !found {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: "no frequency-table decoder in the registry; pass degraded to nothing",
		})
		return res, nil
	}

	for _, region := range in.Regions() {
		for _, m := range in.Matches(ctx, region, scan.KindFreqTable) {
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

			if m.Signature == cappedRunSignature {
				res.AddFinding(report.Finding{
					Pass:        ID,
					Kind:        report.FindingPatch,
					Confidence:  report.ConfidenceProbable,
					Description: "frequency cap remap",
					Region:      region,
					Offset:      m.Offset,
					Patch: &report.PatchCandidate{
						Offset:      m.Offset,
						Original:    []byte{cappedMultiplier},
						Patched:     []byte{uncappedMultiplier},
						Description: "frequency cap remap",
						Effect:      "remaps the table head from multiplier 0x59 to 0x5F",
						Risk:        "medium",
					},
				})
			}
		}
	}
	return res, nil
}
