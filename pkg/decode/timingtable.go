package decode

import (
	"github.com/fwscope/fwscope/pkg/image"
)

// Timing table shape: four consecutive clock-cycle bytes
// (tCL, tRCD, tRP, tRAS) inside the plausible LPDDR5 window.
const (
	timingTableLength = 8
	timingByteMin     = 8
	timingByteMax     = 60
)

// TimingTableDecoder decodes byte-granular memory timing quadruples.
type TimingTableDecoder struct{}

var _ Decoder = TimingTableDecoder{}

// Type implements Decoder.
func (TimingTableDecoder) Type() StructType {
	return StructTimingTable
}

// Decode implements Decoder.
func (d TimingTableDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < timingTableLength {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: timingTableLength, Have: len(raw)}
	}
	names := [4]string{"tcl", "trcd", "trp", "tras"}
	var values [4]byte
	for idx := range values {
		v := raw[idx]
		if v < timingByteMin || v > timingByteMax {
			return nil, ErrRangeViolation{Type: d.Type(), Field: names[idx], Value: int64(v), Min: timingByteMin, Max: timingByteMax}
		}
		values[idx] = v
	}
	if values[3] < values[0] {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "tras below tcl"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "tcl", Value: uint64(values[0])},
			{Name: "trcd", Value: uint64(values[1])},
			{Name: "trp", Value: uint64(values[2])},
			{Name: "tras", Value: uint64(values[3])},
		},
		Raw: append([]byte(nil), raw[:timingTableLength]...),
	}
	return inst, nil
}
