package passes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
)

func TestRegistry(t *testing.T) {
	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)

	t.Run("known_passes_are_ordered", func(t *testing.T) {
		r, err := NewRegistryWithKnownPasses(tables)
		require.NoError(t, err)
		require.Equal(t, []analysis.PassID{
			"volumes", "spd", "freqtables", "powerlimits", "smu",
			"strings", "guids", "numerics", "psp", "ec", "deep",
			"thermals", "ratios", "nvram", "dpm", "ifrmenus",
		}, r.IDs())
	})

	t.Run("duplicate_id_is_rejected", func(t *testing.T) {
		r, err := NewRegistryWithKnownPasses(tables)
		require.NoError(t, err)
		require.Error(t, r.Add(r.Get("spd")))
	})

	t.Run("nil_pass_is_rejected", func(t *testing.T) {
		require.Error(t, NewRegistry().Add(nil))
	})
}

func TestFullAnalysis(t *testing.T) {
	tables, err := family.TablesFor(family.FamilyVanGogh, false)
	require.NoError(t, err)
	r, err := NewRegistryWithKnownPasses(tables)
	require.NoError(t, err)

	buf := make([]byte, 0x400)
	copy(buf[0x100:], []byte{0x23, 0x11, 0x13, 0x0E})
	copy(buf[0x104:], []byte{0xAD, 0x01, 0x02, 0x03})
	buf[0x100+decode.SPDTCKOffset] = decode.SPDLockedTCK
	buf[0x118] = 20
	buf[0x11A] = 18
	buf[0x11B] = 21
	buf[0x11C] = 10

	img := image.New(buf, tables.Layout)

	run := func() *report.Report {
		rep, err := analysis.Analyze(context.Background(), img, tables.Signatures, tables.Decoders, r.All())
		require.NoError(t, err)
		return rep
	}

	rep := run()
	require.Equal(t, img.ID(), rep.ImageID)
	require.Equal(t, uint64(0x400), rep.ImageSize)
	require.Equal(t, "vangogh-v1", rep.SetVersion)
	require.Len(t, rep.Passes, 16)

	var spdFindings []report.Finding
	for _, p := range rep.Passes {
		if p.Pass == "spd" {
			spdFindings = p.Findings
		}
	}
	require.Len(t, spdFindings, 2)
	require.Equal(t, report.FindingStructure, spdFindings[0].Kind)
	require.Equal(t, report.FindingPatch, spdFindings[1].Kind)

	// A small image has no mirror; the engine says so up front.
	var mirrorNote bool
	for _, d := range rep.Diagnostics {
		if d.Source == "engine" {
			mirrorNote = true
		}
	}
	require.True(t, mirrorNote)

	t.Run("report_is_deterministic", func(t *testing.T) {
		first, err := json.Marshal(rep)
		require.NoError(t, err)
		second, err := json.Marshal(run())
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}
