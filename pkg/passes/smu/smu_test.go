package smu

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

	t.Run("marker_alone_is_heuristic", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x80:], "SMU FW")

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		require.Equal(t, report.FindingMatch, res.Findings[0].Kind)
		require.Equal(t, report.ConfidenceHeuristic, res.Findings[0].Confidence)
	})

	t.Run("dispatch_table_near_marker_is_probable", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x80:], "SMU msg")
		// Four known mailbox command IDs, ascending.
		copy(buf[0x90:], []byte{0x01, 0x02, 0x2B, 0x2C})

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 2)

		table := res.Findings[1]
		require.Equal(t, report.FindingStructure, table.Kind)
		require.Equal(t, report.ConfidenceProbable, table.Confidence)
		require.Equal(t, uint64(0x90), table.Offset)
	})
}
