package decode

import (
	"bytes"
	"fmt"

	"github.com/fwscope/fwscope/pkg/image"
)

// SPD layout constants (LPDDR5 announce block as embedded in firmware
// memory-configuration volumes).
const (
	spdLength    = 32
	spdOffVendor = 0x04
	spdOffTAA    = 0x18
	spdOffTRCD   = 0x1A
	spdOffTRPab  = 0x1B
	spdOffTRPpb  = 0x1C

	spdTCKMin = 0x01
	spdTCKMax = 0x14

	// SPDTCKOffset is the tCK byte position relative to the block
	// start; patch candidates point at it.
	SPDTCKOffset = 0x0C

	// SPDLockedTCK is the tCK encoding vendors use to pin the memory
	// clock; a block carrying it is reported as locked.
	SPDLockedTCK = 0x0A

	// SPDUnlockedTCK is the stock tCK encoding a tCK unlock patch
	// candidate proposes.
	SPDUnlockedTCK = 0x02
)

// spdSignature is the 4-byte magic every embedded SPD block starts
// with.
var spdSignature = []byte{0x23, 0x11, 0x13, 0x0E}

// SPDDecoder decodes embedded SPD memory-configuration blocks.
type SPDDecoder struct{}

var _ Decoder = SPDDecoder{}

// Type implements Decoder.
func (SPDDecoder) Type() StructType {
	return StructSPD
}

// Decode implements Decoder.
func (d SPDDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < spdLength {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: spdLength, Have: len(raw)}
	}
	raw = raw[:spdLength]
	if !bytes.Equal(raw[:len(spdSignature)], spdSignature) {
		return nil, ErrSignatureMismatch{Type: d.Type(), Expected: spdSignature, Got: raw[:len(spdSignature)]}
	}

	tCK := raw[SPDTCKOffset]
	if tCK < spdTCKMin || tCK > spdTCKMax {
		return nil, ErrRangeViolation{Type: d.Type(), Field: "tck", Value: int64(tCK), Min: spdTCKMin, Max: spdTCKMax}
	}

	locked := tCK == SPDLockedTCK

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "vendor", Value: fmt.Sprintf("%02X%02X%02X%02X", raw[spdOffVendor], raw[spdOffVendor+1], raw[spdOffVendor+2], raw[spdOffVendor+3])},
			{Name: "tck", Value: uint64(tCK)},
			{Name: "locked", Value: locked},
			{Name: "taa", Value: uint64(raw[spdOffTAA])},
			{Name: "trcd", Value: uint64(raw[spdOffTRCD])},
			{Name: "trpab", Value: uint64(raw[spdOffTRPab])},
			{Name: "trppb", Value: uint64(raw[spdOffTRPpb])},
		},
		Raw: append([]byte(nil), raw[:16]...),
	}
	return inst, nil
}
