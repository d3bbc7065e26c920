package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/scan"
	"github.com/fwscope/fwscope/pkg/types"
)

const delta = uint64(0x800000)

func matchFinding(region image.RegionName, offset uint64, context []byte) Finding {
	return Finding{
		Pass:        "spd",
		Kind:        FindingMatch,
		Confidence:  ConfidenceProbable,
		Description: "SPD block",
		Region:      region,
		Offset:      offset,
		Match: &scan.Match{
			Signature: "spd-block",
			Kind:      scan.KindSPD,
			Region:    region,
			Offset:    offset,
			Context:   context,
		},
	}
}

func aggregate(results ...PassResult) *Report {
	return Aggregate(types.ImageID{}, 0x1000000, "vangogh-v1", image.Layout{MirrorDelta: delta}, results, nil)
}

func TestAggregate(t *testing.T) {
	t.Run("identical_mirror_pair_collapses_to_certain", func(t *testing.T) {
		ctx := []byte{0x23, 0x11, 0x13, 0x0E}
		rep := aggregate(PassResult{Pass: "spd", Findings: []Finding{
			matchFinding(image.RegionPrimary, 0x100, ctx),
			matchFinding(image.RegionMirror, 0x100+delta, ctx),
		}})

		require.Len(t, rep.Passes, 1)
		require.Len(t, rep.Passes[0].Findings, 1)
		f := rep.Passes[0].Findings[0]
		require.True(t, f.ConfirmedInMirror)
		require.Equal(t, ConfidenceCertain, f.Confidence)
		require.Equal(t, image.RegionPrimary, f.Region)
		require.Empty(t, rep.Divergences)
	})

	t.Run("differing_mirror_pair_stays_and_diverges", func(t *testing.T) {
		rep := aggregate(PassResult{Pass: "spd", Findings: []Finding{
			matchFinding(image.RegionPrimary, 0x100, []byte{0x00, 0x00}),
			matchFinding(image.RegionMirror, 0x100+delta, []byte{0x00, 0x03}),
		}})

		require.Len(t, rep.Passes[0].Findings, 2)
		require.Len(t, rep.Divergences, 1)
		d := rep.Divergences[0]
		require.Equal(t, uint64(0x100), d.PrimaryOffset)
		require.Equal(t, uint64(0x100)+delta, d.MirrorOffset)
		require.Equal(t, 2, d.BitDistance)
	})

	t.Run("unpaired_mirror_finding_survives", func(t *testing.T) {
		rep := aggregate(PassResult{Pass: "spd", Findings: []Finding{
			matchFinding(image.RegionMirror, 0x200+delta, []byte{0x01}),
		}})
		require.Len(t, rep.Passes[0].Findings, 1)
		require.Equal(t, image.RegionMirror, rep.Passes[0].Findings[0].Region)
	})

	t.Run("findings_sorted_by_offset_within_pass", func(t *testing.T) {
		rep := aggregate(PassResult{Pass: "spd", Findings: []Finding{
			matchFinding(image.RegionPrimary, 0x300, []byte{0x01}),
			matchFinding(image.RegionPrimary, 0x100, []byte{0x02}),
			matchFinding(image.RegionPrimary, 0x200, []byte{0x03}),
		}})
		offsets := []uint64{}
		for _, f := range rep.Passes[0].Findings {
			offsets = append(offsets, f.Offset)
		}
		require.Equal(t, []uint64{0x100, 0x200, 0x300}, offsets)
	})

	t.Run("summary_counts_per_region", func(t *testing.T) {
		rep := aggregate(PassResult{Pass: "spd", Findings: []Finding{
			matchFinding(image.RegionPrimary, 0x100, []byte{0x01}),
			matchFinding(image.RegionPrimary, 0x200, []byte{0x02}),
			matchFinding(image.RegionMirror, 0x300+delta, []byte{0x03}),
		}})
		require.Equal(t, []RegionSummary{
			{Region: image.RegionPrimary, Findings: 2},
			{Region: image.RegionMirror, Findings: 1},
		}, rep.Summary)
	})

	t.Run("serialization_is_deterministic", func(t *testing.T) {
		build := func() *Report {
			return aggregate(PassResult{Pass: "spd", Findings: []Finding{
				matchFinding(image.RegionPrimary, 0x100, []byte{0x01, 0x02}),
				matchFinding(image.RegionMirror, 0x100+delta, []byte{0x01, 0x02}),
			}})
		}
		a, err := json.Marshal(build())
		require.NoError(t, err)
		b, err := json.Marshal(build())
		require.NoError(t, err)
		require.Equal(t, a, b)
	})
}

func TestConfidence(t *testing.T) {
	t.Run("orders_and_prints", func(t *testing.T) {
		require.True(t, ConfidenceHeuristic < ConfidenceProbable)
		require.True(t, ConfidenceProbable < ConfidenceCertain)
		require.Equal(t, "CERTAIN", ConfidenceCertain.String())
	})

	t.Run("json_round_trip", func(t *testing.T) {
		b, err := json.Marshal(ConfidenceProbable)
		require.NoError(t, err)
		require.Equal(t, `"PROBABLE"`, string(b))

		var c Confidence
		require.NoError(t, json.Unmarshal(b, &c))
		require.Equal(t, ConfidenceProbable, c)
	})
}

func TestBitDistance(t *testing.T) {
	t.Run("counts_bits_including_length_excess", func(t *testing.T) {
		require.Equal(t, 0, bitDistance([]byte{0xAA}, []byte{0xAA}))
		require.Equal(t, 1, bitDistance([]byte{0xAA}, []byte{0xAB}))
		require.Equal(t, 8, bitDistance([]byte{0xAA}, []byte{0xAA, 0xFF}))
	})
}
