package decode

import (
	"encoding/binary"

	"github.com/fwscope/fwscope/pkg/image"
)

// Frequency table shape constraints: a run of little-endian u16
// multiplier/frequency entries terminated by 0xFFFF, scanned inside a
// bounded window.
const (
	freqTableWindow     = 48
	freqTableTerminator = 0xFFFF
	freqTableMaxValue   = 0x2000
	freqTableMinEntries = 3
)

// FrequencyTableDecoder decodes 0xFFFF-terminated u16 frequency runs.
type FrequencyTableDecoder struct{}

var _ Decoder = FrequencyTableDecoder{}

// Type implements Decoder.
func (FrequencyTableDecoder) Type() StructType {
	return StructFrequencyTable
}

// Decode implements Decoder.
func (d FrequencyTableDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	window := raw
	if len(window) > freqTableWindow {
		window = window[:freqTableWindow]
	}
	if len(window) < 2*(freqTableMinEntries+1) {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: 2 * (freqTableMinEntries + 1), Have: len(window)}
	}

	var entries []uint64
	terminated := false
	consumed := 0
	for i := 0; i+1 < len(window); i += 2 {
		v := binary.LittleEndian.Uint16(window[i:])
		if v == freqTableTerminator {
			terminated = true
			consumed = i + 2
			break
		}
		if v == 0 {
			return nil, ErrRangeViolation{Type: d.Type(), Field: "entry", Value: 0, Min: 1, Max: freqTableMaxValue}
		}
		if v > freqTableMaxValue {
			return nil, ErrRangeViolation{Type: d.Type(), Field: "entry", Value: int64(v), Min: 1, Max: freqTableMaxValue}
		}
		if len(entries) > 0 && uint64(v) < entries[len(entries)-1] {
			return nil, ErrMalformedTable{Type: d.Type(), Reason: "entries decrease"}
		}
		entries = append(entries, uint64(v))
	}
	if !terminated {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "no terminator inside window"}
	}
	if len(entries) < freqTableMinEntries {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "too few entries"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "entries", Value: entries},
			{Name: "count", Value: uint64(len(entries))},
			{Name: "max", Value: entries[len(entries)-1]},
		},
		Raw: append([]byte(nil), window[:consumed]...),
	}
	return inst, nil
}
