package spd

import (
	"context"
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

func spdBlock(tCK byte) []byte {
	raw := make([]byte, 32)
	copy(raw, []byte{0x23, 0x11, 0x13, 0x0E})
	copy(raw[4:], []byte{0xAD, 0x01, 0x02, 0x03})
	raw[decode.SPDTCKOffset] = tCK
	raw[0x18] = 20
	raw[0x1A] = 18
	raw[0x1B] = 21
	raw[0x1C] = 10
	return raw
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("locked_block_yields_structure_and_patch", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x100:], spdBlock(decode.SPDLockedTCK))

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 2)

		structure := res.Findings[0]
		require.Equal(t, report.FindingStructure, structure.Kind)
		require.Equal(t, report.ConfidenceProbable, structure.Confidence)
		require.Equal(t, uint64(0x100), structure.Offset)

		patch := res.Findings[1]
		require.Equal(t, report.FindingPatch, patch.Kind)
		require.NotNil(t, patch.Patch)
		require.Equal(t, uint64(0x100+decode.SPDTCKOffset), patch.Patch.Offset)
		require.Equal(t, []byte{decode.SPDLockedTCK}, patch.Patch.Original)
		require.Equal(t, []byte{decode.SPDUnlockedTCK}, patch.Patch.Patched)
		require.Equal(t, "low", patch.Patch.Risk)
	})

	t.Run("unlocked_block_yields_no_patch", func(t *testing.T) {
		buf := make([]byte, 0x400)
		copy(buf[0x100:], spdBlock(decode.SPDUnlockedTCK))

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Len(t, res.Findings, 1)
		require.Equal(t, report.FindingStructure, res.Findings[0].Kind)
	})

	t.Run("signature_without_valid_block_is_skipped", func(t *testing.T) {
		buf := make([]byte, 0x400)
		// Magic followed by an out-of-range tCK byte.
		copy(buf[0x100:], []byte{0x23, 0x11, 0x13, 0x0E})
		buf[0x100+decode.SPDTCKOffset] = 0xFF

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)
		require.Empty(t, res.Findings)
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
