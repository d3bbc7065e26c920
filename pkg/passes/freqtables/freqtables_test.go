package freqtables

import (
	"context"
	"encoding/binary"
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

func freqRun(start uint16, count int) []byte {
	var out []byte
	for i := 0; i < count; i++ {
		out = binary.LittleEndian.AppendUint16(out, start+uint16(i))
	}
	return binary.LittleEndian.AppendUint16(out, 0xFFFF)
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("capped_run_yields_structure_and_remap_patch", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x80:], freqRun(0x59, 6))

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 2)

		require.Equal(t, report.FindingStructure, res.Findings[0].Kind)
		require.Equal(t, uint64(0x80), res.Findings[0].Offset)

		patch := res.Findings[1]
		require.Equal(t, report.FindingPatch, patch.Kind)
		require.NotNil(t, patch.Patch)
		require.Equal(t, []byte{0x59}, patch.Patch.Original)
		require.Equal(t, []byte{0x5F}, patch.Patch.Patched)
		require.Equal(t, "medium", patch.Patch.Risk)
	})

	t.Run("uncapped_run_yields_no_patch", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x80:], freqRun(0x51, 6))

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		require.Equal(t, report.FindingStructure, res.Findings[0].Kind)
	})

	t.Run("unterminated_run_is_skipped", func(t *testing.T) {
		buf := make([]byte, 0x400)
		// Head matches the signature but the run never terminates
		// inside the decoder window.
		run := freqRun(0x51, 6)
		copy(buf[0x80:], run[:len(run)-2])
		for off := 0x80 + len(run) - 2; off < 0x80+64; off += 2 {
			binary.LittleEndian.PutUint16(buf[off:], 0x2000)
		}

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Empty(t, res.Findings)
	})
}
