package decode

import (
	"encoding/binary"

	"github.com/fwscope/fwscope/pkg/image"
)

const (
	voltageTableMinEntries = 4
	voltageTableMaxEntries = 16
)

// VoltageTableDecoder decodes runs of u16 little-endian millivolt
// values drawn from the known rail voltages of the platform.
type VoltageTableDecoder struct {
	rails map[uint16]struct{}
}

var _ Decoder = VoltageTableDecoder{}

// NewVoltageTableDecoder builds a decoder accepting the given rail
// millivolt values.
func NewVoltageTableDecoder(rails []uint16) VoltageTableDecoder {
	set := make(map[uint16]struct{}, len(rails))
	for _, mv := range rails {
		set[mv] = struct{}{}
	}
	return VoltageTableDecoder{rails: set}
}

// Type implements Decoder.
func (VoltageTableDecoder) Type() StructType {
	return StructVoltageTable
}

// Decode implements Decoder.
func (d VoltageTableDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < 2*voltageTableMinEntries {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: 2 * voltageTableMinEntries, Have: len(raw)}
	}

	var entries []uint64
	for i := 0; i+1 < len(raw) && len(entries) < voltageTableMaxEntries; i += 2 {
		mv := binary.LittleEndian.Uint16(raw[i:])
		if _, found := d.rails[mv]; !found {
			break
		}
		entries = append(entries, uint64(mv))
	}
	if len(entries) < voltageTableMinEntries {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "too few known rail voltages in a row"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "millivolts", Value: entries},
			{Name: "count", Value: uint64(len(entries))},
		},
		Raw: append([]byte(nil), raw[:2*len(entries)]...),
	}
	return inst, nil
}
