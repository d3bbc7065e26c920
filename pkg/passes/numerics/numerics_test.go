package numerics

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
	"github.com/fwscope/fwscope/pkg/scan"
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

func TestReadTable(t *testing.T) {
	t.Run("accepts_round_megahertz_run", func(t *testing.T) {
		var raw []byte
		for _, v := range []uint32{400, 800, 1200, 1600, 400, 800, 1200, 1600} {
			raw = binary.LittleEndian.AppendUint32(raw, v)
		}
		values, ok := readTable(raw)
		require.True(t, ok)
		require.Len(t, values, tableEntries)
	})

	t.Run("rejects_non_round_value", func(t *testing.T) {
		var raw []byte
		for _, v := range []uint32{400, 800, 1201, 1600, 400, 800, 1200, 1600} {
			raw = binary.LittleEndian.AppendUint32(raw, v)
		}
		_, ok := readTable(raw)
		require.False(t, ok)
	})

	t.Run("rejects_too_few_distinct_values", func(t *testing.T) {
		var raw []byte
		for i := 0; i < tableEntries; i++ {
			raw = binary.LittleEndian.AppendUint32(raw, 400)
		}
		_, ok := readTable(raw)
		require.False(t, ok)
	})
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("frequency_shape_is_heuristic_match", func(t *testing.T) {
		buf := make([]byte, 0x400)
		// Not a valid DPM table: frequencies do not ascend.
		for i, v := range []uint32{400, 800, 1200, 1600, 400, 800, 1200, 1600} {
			binary.LittleEndian.PutUint32(buf[0x100+i*4:], v)
		}

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		f := res.Findings[0]
		require.Equal(t, report.FindingMatch, f.Kind)
		require.Equal(t, report.ConfidenceHeuristic, f.Confidence)
		require.Equal(t, uint64(0x100), f.Offset)
		require.Equal(t, scan.KindNumeric, f.Match.Kind)
	})

	t.Run("without_dpm_decoder_still_reports_match", func(t *testing.T) {
		buf := make([]byte, 0x400)
		for i, v := range []uint32{400, 800, 1200, 1600, 400, 800, 1200, 1600} {
			binary.LittleEndian.PutUint32(buf[0x100+i*4:], v)
		}
		in := testInput(t, buf)
		in.Decoders = decode.MustNewRegistry()

		res, err := New().Analyze(ctx, in)
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		require.Equal(t, report.FindingMatch, res.Findings[0].Kind)
	})
}
