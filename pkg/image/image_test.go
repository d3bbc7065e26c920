package image

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestRegions(t *testing.T) {
	t.Run("small_image_has_only_the_primary_region", func(t *testing.T) {
		img := New(make([]byte, 0x10), Layout{MirrorDelta: 0x100})

		regions := img.Regions()
		require.Len(t, regions, 1)
		require.Equal(t, RegionPrimary, regions[0].Name)
		require.Equal(t, uint64(0x10), regions[0].Length)

		_, err := img.Region(RegionMirror)
		require.ErrorAs(t, err, &ErrRegionUnavailable{})
	})

	t.Run("mirror_region_spans_the_delta", func(t *testing.T) {
		img := New(make([]byte, 0x40), Layout{MirrorDelta: 0x20})

		regions := img.Regions()
		require.Len(t, regions, 2)
		require.Equal(t, Region{Name: RegionPrimary, Start: 0, Length: 0x20}, regions[0])
		require.Equal(t, Region{Name: RegionMirror, Start: 0x20, Length: 0x20}, regions[1])
	})

	t.Run("truncated_mirror_is_shorter_than_the_primary", func(t *testing.T) {
		img := New(make([]byte, 0x30), Layout{MirrorDelta: 0x20})

		mirror, err := img.Region(RegionMirror)
		require.NoError(t, err)
		require.Equal(t, uint64(0x10), mirror.Length)
	})

	t.Run("zero_delta_disables_the_mirror", func(t *testing.T) {
		img := New(make([]byte, 0x40), Layout{})

		regions := img.Regions()
		require.Len(t, regions, 1)
		require.Equal(t, uint64(0x40), regions[0].Length)
	})
}

func TestBytesAt(t *testing.T) {
	buf := make([]byte, 0x40)
	buf[0x25] = 0xAB
	img := New(buf, Layout{MirrorDelta: 0x20})

	t.Run("in_bounds", func(t *testing.T) {
		b, err := img.BytesAt(RegionMirror, 0x25, 1)
		require.NoError(t, err)
		require.Equal(t, []byte{0xAB}, b)
	})

	t.Run("offset_before_the_region", func(t *testing.T) {
		_, err := img.BytesAt(RegionMirror, 0x10, 1)
		require.ErrorAs(t, err, &ErrOutOfBounds{})
	})

	t.Run("span_past_the_region_end", func(t *testing.T) {
		_, err := img.BytesAt(RegionPrimary, 0x1F, 2)
		require.ErrorAs(t, err, &ErrOutOfBounds{})
	})
}

func TestID(t *testing.T) {
	t.Run("identical_content_yields_identical_ids", func(t *testing.T) {
		a := New([]byte{1, 2, 3}, Layout{})
		b := New([]byte{1, 2, 3}, Layout{MirrorDelta: 0x100})
		require.Equal(t, a.ID(), b.ID())
	})

	t.Run("different_content_yields_different_ids", func(t *testing.T) {
		a := New([]byte{1, 2, 3}, Layout{})
		b := New([]byte{1, 2, 4}, Layout{})
		require.NotEqual(t, a.ID(), b.ID())
	})
}

func TestLoad(t *testing.T) {
	content := []byte("firmware image content")

	t.Run("plain_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fw.bin")
		require.NoError(t, os.WriteFile(path, content, 0644))

		img, err := Load(path, Layout{})
		require.NoError(t, err)
		require.Equal(t, content, img.Bytes())
	})

	t.Run("xz_compressed_file", func(t *testing.T) {
		var compressed bytes.Buffer
		w, err := xz.NewWriter(&compressed)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		path := filepath.Join(t.TempDir(), "fw.bin.xz")
		require.NoError(t, os.WriteFile(path, compressed.Bytes(), 0644))

		img, err := Load(path, Layout{})
		require.NoError(t, err)
		require.Equal(t, content, img.Bytes())
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "no-such.bin"), Layout{})
		require.ErrorAs(t, err, &ErrImageLoad{})
	})

	t.Run("corrupt_xz_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fw.bin.xz")
		require.NoError(t, os.WriteFile(path, []byte("not xz at all"), 0644))

		_, err := Load(path, Layout{})
		require.ErrorAs(t, err, &ErrImageLoad{})
	})
}
