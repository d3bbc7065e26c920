package image

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Load reads a firmware image file into memory and wraps it into an
// Image with the given layout.
//
// A file with the ".xz" suffix is transparently decompressed. Any read
// error surfaces as a single ErrImageLoad before the analysis engine
// ever runs.
func Load(path string, layout Layout) (*Image, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrImageLoad{Path: path, Err: err}
	}

	if strings.HasSuffix(path, ".xz") {
		buf, err = decompressXZ(buf)
		if err != nil {
			return nil, ErrImageLoad{Path: path, Err: err}
		}
	}

	return New(buf, layout), nil
}

func decompressXZ(compressed []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
