package decode

import (
	"encoding/binary"

	"github.com/fwscope/fwscope/pkg/image"
)

// DPM (dynamic power management) state table shape: little-endian
// (frequency MHz, voltage mV) u16 pairs with frequencies strictly
// ascending.
const (
	dpmFreqMin     = 200
	dpmFreqMax     = 1800
	dpmVoltMin     = 600
	dpmVoltMax     = 1400
	dpmMinEntries  = 3
	dpmMaxEntries  = 12
	dpmEntryLength = 4
)

// DpmEntry is one decoded DPM state.
type DpmEntry struct {
	FrequencyMHz uint64 `json:"frequency_mhz"`
	VoltageMV    uint64 `json:"voltage_mv"`
}

// DpmTableDecoder decodes DPM frequency/voltage state tables.
type DpmTableDecoder struct{}

var _ Decoder = DpmTableDecoder{}

// Type implements Decoder.
func (DpmTableDecoder) Type() StructType {
	return StructDpmTable
}

// Decode implements Decoder.
func (d DpmTableDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < dpmMinEntries*dpmEntryLength {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: dpmMinEntries * dpmEntryLength, Have: len(raw)}
	}

	var entries []DpmEntry
	prevFreq := uint16(0)
	for i := 0; i+dpmEntryLength <= len(raw) && len(entries) < dpmMaxEntries; i += dpmEntryLength {
		freq := binary.LittleEndian.Uint16(raw[i:])
		volt := binary.LittleEndian.Uint16(raw[i+2:])
		if freq < dpmFreqMin || freq > dpmFreqMax || volt < dpmVoltMin || volt > dpmVoltMax {
			break
		}
		if freq <= prevFreq {
			break
		}
		prevFreq = freq
		entries = append(entries, DpmEntry{FrequencyMHz: uint64(freq), VoltageMV: uint64(volt)})
	}
	if len(entries) < dpmMinEntries {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "too few ascending frequency/voltage pairs"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "entries", Value: entries},
			{Name: "count", Value: uint64(len(entries))},
			{Name: "max_frequency_mhz", Value: entries[len(entries)-1].FrequencyMHz},
		},
		Raw: append([]byte(nil), raw[:len(entries)*dpmEntryLength]...),
	}
	return inst, nil
}
