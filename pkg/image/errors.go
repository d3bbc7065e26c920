package image

import (
	"fmt"
)

// ErrOutOfBounds means a requested byte span exceeds the bounds of the
// region it was requested from.
type ErrOutOfBounds struct {
	Region RegionName
	Offset uint64
	Length uint64
}

// Error implements interface "error".
func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("span [0x%X:0x%X) is out of bounds of region '%s'", e.Offset, e.Offset+e.Length, e.Region)
}

// ErrRegionUnavailable means the image is too small to contain the
// requested region (for example no mirror copy fits into the buffer).
type ErrRegionUnavailable struct {
	Name RegionName
}

// Error implements interface "error".
func (e ErrRegionUnavailable) Error() string {
	return fmt.Sprintf("region '%s' is not available in this image", e.Name)
}

// ErrImageLoad means the firmware file could not be read into memory.
type ErrImageLoad struct {
	Path string
	Err  error
}

// Error implements interface "error".
func (e ErrImageLoad) Error() string {
	return fmt.Sprintf("unable to load image '%s': %v", e.Path, e.Err)
}

// Unwrap is used by errors.Is and errors.As.
func (e ErrImageLoad) Unwrap() error {
	return e.Err
}
