package vendorstrings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
)

func testInput(t *testing.T, buf []byte) analysis.Input {
	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)
	calc, err := analysis.NewCalculator(2)
	require.NoError(t, err)
	return analysis.Input{
		Image:      image.New(buf, tables.Layout),
		Signatures: tables.Signatures,
		Decoders:   tables.Decoders,
		Shared:     calc,
	}
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("markers_are_probable_findings", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x40:], "AGESA!")
		copy(buf[0x80:], "PMU rev")

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 2)
		for _, f := range res.Findings {
			require.Equal(t, report.FindingMatch, f.Kind)
			require.Equal(t, report.ConfidenceProbable, f.Confidence)
		}
	})

	t.Run("repeated_marker_is_capped_with_diagnostic", func(t *testing.T) {
		buf := make([]byte, 0x800)
		for i := 0; i < maxPerString+4; i++ {
			copy(buf[0x40+i*0x10:], "ABL!")
		}

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, maxPerString)
		require.Len(t, res.Diagnostics, 1)
		require.Contains(t, res.Diagnostics[0].Message, "str-abl")
	})
}
