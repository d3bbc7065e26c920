// Package image provides a read-only view over the bytes of a firmware
// image, split into the logical regions the analysis passes operate on.
package image

import (
	"sync"

	"github.com/fwscope/fwscope/pkg/types"
)

// RegionName is the name of a logical region of the firmware image.
type RegionName string

const (
	// RegionPrimary is the active copy of the firmware content.
	RegionPrimary RegionName = "primary"

	// RegionMirror is the backup copy stored at a fixed offset delta
	// from the primary region.
	RegionMirror RegionName = "mirror"
)

// Region is a named contiguous span of the image.
type Region struct {
	Name   RegionName `json:"name"`
	Start  uint64     `json:"start"`
	Length uint64     `json:"length"`
}

// End returns the first offset after the region.
func (r Region) End() uint64 {
	return r.Start + r.Length
}

// Layout describes the build-time region layout of a hardware family.
//
// The mirror offset is not discovered dynamically: it is fixed by the
// firmware build layout of the supported hardware family.
type Layout struct {
	// MirrorDelta is the distance between the primary region start and
	// the mirror region start.
	MirrorDelta uint64
}

// Image is an immutable view over the bytes of a firmware image.
//
// All offsets handed out by the analysis passes are absolute into the
// whole buffer and tagged with the region they fall in.
type Image struct {
	buf    []byte
	layout Layout

	idOnce sync.Once
	id     types.ImageID
}

// New wraps the given buffer into an Image. The buffer must not be
// modified afterwards.
func New(buf []byte, layout Layout) *Image {
	return &Image{
		buf:    buf,
		layout: layout,
	}
}

// Size returns the total size of the underlying buffer.
func (img *Image) Size() uint64 {
	return uint64(len(img.buf))
}

// Layout returns the region layout the image was constructed with.
func (img *Image) Layout() Layout {
	return img.layout
}

// ID returns the content-based ID of the image. Safe for concurrent
// use; the hash is computed at most once.
func (img *Image) ID() types.ImageID {
	img.idOnce.Do(func() {
		img.id = types.NewImageIDFromImage(img.buf)
	})
	return img.id
}

// Bytes returns the whole underlying buffer. The caller must not
// modify it.
func (img *Image) Bytes() []byte {
	return img.buf
}

// Regions returns the ordered list of regions present in the image,
// primary first. An image too small to contain a mirror copy has only
// the primary region.
func (img *Image) Regions() []Region {
	regions := []Region{img.primaryRegion()}
	if mirror, err := img.Region(RegionMirror); err == nil {
		regions = append(regions, mirror)
	}
	return regions
}

// Region returns the region with the given name.
//
// For an image too small to contain the mirror copy it returns
// ErrRegionUnavailable; callers treat that as "no divergence data",
// not as a failure.
func (img *Image) Region(name RegionName) (Region, error) {
	switch name {
	case RegionPrimary:
		return img.primaryRegion(), nil
	case RegionMirror:
		if img.layout.MirrorDelta == 0 || uint64(len(img.buf)) <= img.layout.MirrorDelta {
			return Region{}, ErrRegionUnavailable{Name: name}
		}
		length := uint64(len(img.buf)) - img.layout.MirrorDelta
		if length > img.layout.MirrorDelta {
			length = img.layout.MirrorDelta
		}
		return Region{
			Name:   RegionMirror,
			Start:  img.layout.MirrorDelta,
			Length: length,
		}, nil
	}
	return Region{}, ErrRegionUnavailable{Name: name}
}

func (img *Image) primaryRegion() Region {
	length := uint64(len(img.buf))
	if img.layout.MirrorDelta != 0 && length > img.layout.MirrorDelta {
		length = img.layout.MirrorDelta
	}
	return Region{
		Name:   RegionPrimary,
		Start:  0,
		Length: length,
	}
}

// BytesAt returns `length` bytes of the given region starting at the
// absolute offset `offset`. The requested span must lie entirely
// within the region, otherwise ErrOutOfBounds is returned.
//
// The returned slice aliases the image buffer and must not be
// modified.
func (img *Image) BytesAt(name RegionName, offset, length uint64) ([]byte, error) {
	region, err := img.Region(name)
	if err != nil {
		return nil, err
	}
	if offset < region.Start || offset+length > region.End() {
		return nil, ErrOutOfBounds{
			Region: name,
			Offset: offset,
			Length: length,
		}
	}
	return img.buf[offset : offset+length], nil
}

// RegionBytes returns the full byte span of the given region.
func (img *Image) RegionBytes(name RegionName) ([]byte, error) {
	region, err := img.Region(name)
	if err != nil {
		return nil, err
	}
	return img.buf[region.Start:region.End()], nil
}
