package decode

import (
	"encoding/binary"

	"github.com/fwscope/fwscope/pkg/image"
)

const powerLimitLength = 4

// PowerLimitDecoder decodes u32 little-endian power limit values
// (milliwatts) against a closed set of values known for the hardware
// family. A candidate outside the known set is rejected: arbitrary
// u32s matching a 4-byte pattern are overwhelmingly noise.
type PowerLimitDecoder struct {
	known map[uint32]string
}

var _ Decoder = PowerLimitDecoder{}

// NewPowerLimitDecoder builds a decoder accepting exactly the given
// milliwatt values; the map value is the human-readable label of the
// limit ("STAPM limit 15W" etc).
func NewPowerLimitDecoder(known map[uint32]string) PowerLimitDecoder {
	return PowerLimitDecoder{known: known}
}

// Type implements Decoder.
func (PowerLimitDecoder) Type() StructType {
	return StructPowerLimit
}

// Decode implements Decoder.
func (d PowerLimitDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < powerLimitLength {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: powerLimitLength, Have: len(raw)}
	}
	mw := binary.LittleEndian.Uint32(raw)
	label, found := d.known[mw]
	if !found {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "value is not a known power limit"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "milliwatts", Value: uint64(mw)},
			{Name: "watts", Value: uint64(mw / 1000)},
			{Name: "label", Value: label},
		},
		Raw: append([]byte(nil), raw[:powerLimitLength]...),
	}
	return inst, nil
}
