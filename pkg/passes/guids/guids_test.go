package guids

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
)

// Mixed-endian form of 7A9A7604-4278-4C2D-A017-52654E746368.
var cbsSetupDxeGUID = []byte{
	0x04, 0x76, 0x9A, 0x7A, 0x78, 0x42, 0x2D, 0x4C,
	0xA0, 0x17, 0x52, 0x65, 0x4E, 0x74, 0x63, 0x68,
}

func TestPass(t *testing.T) {
	buf := make([]byte, 0x400)
	copy(buf[0x200:], cbsSetupDxeGUID)

	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)
	calc, err := analysis.NewCalculator(2)
	require.NoError(t, err)
	in := analysis.Input{
		Image:      image.New(buf, tables.Layout),
		Signatures: tables.Signatures,
		Decoders:   tables.Decoders,
		Shared:     calc,
	}

	res, err := New().Analyze(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	require.Equal(t, report.ConfidenceProbable, res.Findings[0].Confidence)
	require.Equal(t, uint64(0x200), res.Findings[0].Offset)
	require.Contains(t, res.Findings[0].Description, "AmdCbsSetupDxe")
}
