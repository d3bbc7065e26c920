package family

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/scan"
)

func TestTablesFor(t *testing.T) {
	t.Run("vangogh_tables_are_complete", func(t *testing.T) {
		tables, err := TablesFor(FamilyVanGogh, false)
		require.NoError(t, err)
		require.Equal(t, "vangogh-v1", tables.Signatures.Version())
		require.Equal(t, uint64(0x800000), tables.Layout.MirrorDelta)
		require.Equal(t, 7, tables.Decoders.Len())
		require.NotEmpty(t, tables.SetupDriverGUIDs)

		_, found := tables.Signatures.Get("spd-block")
		require.True(t, found)
		_, found = tables.Signatures.Get("uefi-volume")
		require.True(t, found)
	})

	t.Run("deep_mode_extends_power_limits", func(t *testing.T) {
		base, err := TablesFor(FamilyVanGogh, false)
		require.NoError(t, err)
		deep, err := TablesFor(FamilyVanGogh, true)
		require.NoError(t, err)

		require.Equal(t, "vangogh-v1+deep", deep.Signatures.Version())
		require.Greater(t, deep.Signatures.Len(), base.Signatures.Len())

		_, found := deep.Signatures.Get("power-3000mw")
		require.True(t, found)
		_, found = base.Signatures.Get("power-3000mw")
		require.False(t, found)
	})

	t.Run("unknown_family_fails", func(t *testing.T) {
		_, err := TablesFor(Family("epyc"), false)
		require.ErrorAs(t, err, &ErrUnknownFamily{})
	})
}

func TestGuidBytes(t *testing.T) {
	t.Run("mixed_endian_layout", func(t *testing.T) {
		require.Equal(t,
			[]byte{0x04, 0x76, 0x9A, 0x7A, 0x78, 0x42, 0x2D, 0x4C, 0xA0, 0x17, 0x52, 0x65, 0x4E, 0x74, 0x63, 0x68},
			guidBytes("7A9A7604-4278-4C2D-A017-52654E746368"))
	})
}

func TestPowerLimitDecoderWiring(t *testing.T) {
	t.Run("registry_serves_power_decoder", func(t *testing.T) {
		tables, err := TablesFor(FamilyVanGogh, false)
		require.NoError(t, err)
		d, found := tables.Decoders.Get(decode.StructPowerLimit)
		require.True(t, found)
		_, err = d.Decode([]byte{0x98, 0x3A, 0x00, 0x00}, 0, "primary")
		require.NoError(t, err)
	})
}

func TestKeywordCap(t *testing.T) {
	t.Run("caps_match_topics", func(t *testing.T) {
		require.Equal(t, 50, KeywordCap(scan.SignatureID("kw-memory-timing-0")))
		require.Equal(t, 200, KeywordCap(scan.SignatureID("kw-clock-1")))
		require.Equal(t, 0, KeywordCap(scan.SignatureID("spd-block")))
	})
}
