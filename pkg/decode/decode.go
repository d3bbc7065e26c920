// Package decode implements the per-structure-type decoders: pure
// functions that validate a candidate byte span and either produce a
// fully decoded structure instance or reject it with a typed error.
//
// A decoder never partially succeeds. Any validation failure means
// "not a real instance here": the calling pass discards the candidate
// and continues, it never aborts.
package decode

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwscope/fwscope/pkg/image"
)

// StructType is the tag of a known binary structure layout.
type StructType string

// The closed set of structure types the engine can decode.
const (
	StructSPD             StructType = "SPD"
	StructFrequencyTable  StructType = "FrequencyTable"
	StructPowerLimit      StructType = "PowerLimit"
	StructVoltageTable    StructType = "VoltageTable"
	StructTimingTable     StructType = "TimingTable"
	StructSmuCommandTable StructType = "SmuCommandTable"
	StructDpmTable        StructType = "DpmTable"
)

// Field is a single decoded field of an instance. Fields keep their
// declaration order so that reports are reproducible.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Instance is a decoded, validated occurrence of a known structure
// layout at a specific offset. Immutable once returned by a decoder.
type Instance struct {
	Type   StructType       `json:"type"`
	Offset uint64           `json:"offset"`
	Region image.RegionName `json:"region"`
	Fields []Field          `json:"fields"`
	Raw    []byte           `json:"raw,omitempty"`
}

// Field returns the value of the named field.
func (inst *Instance) Field(name string) (any, bool) {
	for _, f := range inst.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// PayloadKey returns a canonical representation of the decoded content
// (type + field values, offset and region excluded). Two instances
// with equal keys carry byte-identical decoded payloads, which is the
// mirror-deduplication criterion.
func (inst *Instance) PayloadKey() string {
	var sb strings.Builder
	sb.WriteString(string(inst.Type))
	for _, f := range inst.Fields {
		b, err := json.Marshal(f.Value)
		if err != nil {
			b = []byte(fmt.Sprintf("%#v", f.Value))
		}
		sb.WriteByte(0)
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		sb.Write(b)
	}
	sb.WriteByte(0)
	sb.WriteString(hex.EncodeToString(inst.Raw))
	return sb.String()
}

// Describe renders a short human-readable summary of the instance.
func (inst *Instance) Describe() string {
	parts := make([]string, 0, len(inst.Fields))
	for _, f := range inst.Fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Name, f.Value))
	}
	return fmt.Sprintf("%s: %s", inst.Type, strings.Join(parts, " "))
}

// Decoder validates and decodes one structure type.
//
// The raw slice starts at the candidate offset and extends to the end
// of the region; a decoder reads only as much as its layout requires
// and must return ErrTruncatedInstance when not enough bytes are left.
type Decoder interface {
	Type() StructType
	Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error)
}

// Registry is an immutable, ordered collection of decoders, versioned
// together with the signature set of the hardware family.
type Registry struct {
	decoders []Decoder
	byType   map[StructType]Decoder
}

// NewRegistry builds a Registry. Duplicate structure types are
// rejected.
func NewRegistry(decoders ...Decoder) (Registry, error) {
	byType := make(map[StructType]Decoder, len(decoders))
	for _, d := range decoders {
		if _, found := byType[d.Type()]; found {
			return Registry{}, fmt.Errorf("duplicate decoder for structure type '%s'", d.Type())
		}
		byType[d.Type()] = d
	}
	return Registry{decoders: decoders, byType: byType}, nil
}

// MustNewRegistry is like NewRegistry, but panics on an invalid table.
func MustNewRegistry(decoders ...Decoder) Registry {
	r, err := NewRegistry(decoders...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the decoder for the given structure type.
func (r Registry) Get(t StructType) (Decoder, bool) {
	d, found := r.byType[t]
	return d, found
}

// Decoders returns the decoders in their registration order.
func (r Registry) Decoders() []Decoder {
	return r.decoders
}

// Len returns the number of registered decoders.
func (r Registry) Len() int {
	return len(r.decoders)
}
