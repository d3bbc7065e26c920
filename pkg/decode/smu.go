package decode

import (
	"fmt"

	"github.com/fwscope/fwscope/pkg/image"
)

const (
	smuTableMinEntries = 4
	smuTableMaxEntries = 32
)

// SmuCommandTableDecoder decodes runs of SMU mailbox message IDs.
// A candidate decodes only when it is a strictly ascending run of at
// least four IDs which are all known to the family's message table;
// that shape is characteristic of the dispatch tables firmware keeps.
type SmuCommandTableDecoder struct {
	messages map[byte]string
}

var _ Decoder = SmuCommandTableDecoder{}

// NewSmuCommandTableDecoder builds a decoder over the family's SMU
// message ID to name table.
func NewSmuCommandTableDecoder(messages map[byte]string) SmuCommandTableDecoder {
	return SmuCommandTableDecoder{messages: messages}
}

// Type implements Decoder.
func (SmuCommandTableDecoder) Type() StructType {
	return StructSmuCommandTable
}

// Decode implements Decoder.
func (d SmuCommandTableDecoder) Decode(raw []byte, offset uint64, region image.RegionName) (*Instance, error) {
	if len(raw) < smuTableMinEntries {
		return nil, ErrTruncatedInstance{Type: d.Type(), Need: smuTableMinEntries, Have: len(raw)}
	}

	var ids []uint64
	var names []string
	prev := -1
	for i := 0; i < len(raw) && len(ids) < smuTableMaxEntries; i++ {
		id := raw[i]
		name, found := d.messages[id]
		if !found || int(id) <= prev {
			break
		}
		prev = int(id)
		ids = append(ids, uint64(id))
		names = append(names, fmt.Sprintf("0x%02X:%s", id, name))
	}
	if len(ids) < smuTableMinEntries {
		return nil, ErrMalformedTable{Type: d.Type(), Reason: "too few ascending known message IDs"}
	}

	inst := &Instance{
		Type:   d.Type(),
		Offset: offset,
		Region: region,
		Fields: []Field{
			{Name: "ids", Value: ids},
			{Name: "messages", Value: names},
			{Name: "count", Value: uint64(len(ids))},
		},
		Raw: append([]byte(nil), raw[:len(ids)]...),
	}
	return inst, nil
}
