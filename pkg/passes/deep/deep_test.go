package deep

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

func testInput(t *testing.T, buf []byte) analysis.Input {
	tables, err := family.TablesFor(family.FamilyVanGogh, true)
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

func findBySignature(findings []report.Finding, id scan.SignatureID) *report.Finding {
	for i := range findings {
		if findings[i].Match != nil && findings[i].Match.Signature == id {
			return &findings[i]
		}
	}
	return nil
}

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("finds_gpu_pstate_table", func(t *testing.T) {
		buf := make([]byte, 0x400)
		for i, pair := range [][2]uint32{{400, 700}, {800, 900}, {1200, 1100}} {
			binary.LittleEndian.PutUint32(buf[0x100+i*8:], pair[0])
			binary.LittleEndian.PutUint32(buf[0x100+i*8+4:], pair[1])
		}

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)

		f := findBySignature(res.Findings, "gpu-pstate-table")
		require.NotNil(t, f)
		require.Equal(t, report.ConfidenceHeuristic, f.Confidence)
		require.Equal(t, uint64(0x100), f.Offset)
	})

	t.Run("finds_voltage_offset_table", func(t *testing.T) {
		buf := make([]byte, 0x400)
		for i, v := range []int16{-50, 0, 25, 50, 100} {
			binary.LittleEndian.PutUint16(buf[0x200+i*2:], uint16(v))
		}
		// Terminate the run with an out-of-band value.
		binary.LittleEndian.PutUint16(buf[0x20A:], 0x7FFF)

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)

		f := findBySignature(res.Findings, "voltage-offset-table")
		require.NotNil(t, f)
		require.Equal(t, report.ConfidenceHeuristic, f.Confidence)
	})

	t.Run("finds_voltage_rail_table", func(t *testing.T) {
		buf := make([]byte, 0x400)
		for i, mv := range []uint16{750, 900, 1100, 1350} {
			binary.LittleEndian.PutUint16(buf[0x300+i*2:], mv)
		}

		res, err := New().Analyze(ctx, testInput(t, buf))
		require.NoError(t, err)

		var found bool
		for _, f := range res.Findings {
			if f.Kind == report.FindingStructure && f.Offset == 0x300 {
				found = true
				require.Equal(t, report.ConfidenceProbable, f.Confidence)
			}
		}
		require.True(t, found)
	})
}
