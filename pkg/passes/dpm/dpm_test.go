package dpm

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
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

func dpmTable() []byte {
	var out []byte
	for _, pair := range [][2]uint16{{400, 700}, {800, 900}, {1200, 1100}, {1600, 1300}} {
		out = binary.LittleEndian.AppendUint16(out, pair[0])
		out = binary.LittleEndian.AppendUint16(out, pair[1])
	}
	return out
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("table_is_probable_structure", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x100:], dpmTable())

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		f := res.Findings[0]
		require.Equal(t, report.FindingStructure, f.Kind)
		require.Equal(t, report.ConfidenceProbable, f.Confidence)
		require.Equal(t, uint64(0x100), f.Offset)

		count, ok := f.Instance.Field("count")
		require.True(t, ok)
		require.Equal(t, uint64(4), count)
	})

	t.Run("overlapping_hits_are_collapsed", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x100:], dpmTable())
		// The tail of the table is itself a valid three-pair table;
		// only the full one should be reported.
		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
	})

	t.Run("missing_decoder_degrades_with_diagnostic", func(t *testing.T) {
		in := testInput(t, make([]byte, 0x400))
		in.Decoders = decode.MustNewRegistry()

		res, err := New().Analyze(ctx, in)
		require.NoError(t, err)
		require.Empty(t, res.Findings)
		require.Len(t, res.Diagnostics, 1)
	})
}
