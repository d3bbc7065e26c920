package ifr

import (
	"encoding/binary"
	"fmt"
)

// OpHeader is the 2-byte header every IFR opcode starts with. Length
// counts the whole opcode including the header; the top bit of the
// second byte opens a scope.
type OpHeader struct {
	Op        Opcode
	Length    uint8
	OpenScope bool
}

// QuestionMeta carries the question-header fields of an interactive
// opcode, plus the type-specific extras the classifier cares about.
type QuestionMeta struct {
	Prompt     uint16 `json:"prompt"`
	Help       uint16 `json:"help"`
	QuestionID uint16 `json:"question_id"`
	VarStoreID uint16 `json:"var_store_id"`
	VarOffset  uint16 `json:"var_offset"`
	Flags      uint8  `json:"flags"`

	// Numeric only.
	Min  uint64 `json:"min,omitempty"`
	Max  uint64 `json:"max,omitempty"`
	Step uint64 `json:"step,omitempty"`

	// OneOf only: values of the OneOfOption children.
	OptionValues []uint64 `json:"option_values,omitempty"`
}

// Condition is a visibility condition wrapping a node. The expression
// is recorded verbatim and never evaluated; classification downstream
// is a heuristic over its shape.
type Condition struct {
	Op     Opcode `json:"op"`
	Offset uint64 `json:"offset"`
	Expr   []byte `json:"expr,omitempty"`
}

// Node is one parsed IFR opcode. Children are owned exclusively by
// their parent; the tree is strict, no sharing and no cycles.
type Node struct {
	Op         Opcode       `json:"op"`
	Offset     uint64       `json:"offset"`
	Length     uint8        `json:"length"`
	Payload    []byte       `json:"payload,omitempty"`
	Children   []*Node      `json:"children,omitempty"`
	Label      string       `json:"label,omitempty"`
	Question   QuestionMeta `json:"question,omitempty"`
	Conditions []Condition  `json:"conditions,omitempty"`
}

// Walk visits the node and all descendants depth-first, parents before
// children.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// Questions returns every interactive question node in the subtree in
// stream order.
func (n *Node) Questions() []*Node {
	var out []*Node
	n.Walk(func(node *Node) {
		if node.Op.IsQuestion() {
			out = append(out, node)
		}
	})
	return out
}

// encode reconstructs the wire form of a scope-less node. Used to
// materialize condition expressions for evidence records.
func (n *Node) encode() []byte {
	out := make([]byte, 0, 2+len(n.Payload))
	out = append(out, byte(n.Op), byte(2+len(n.Payload)))
	return append(out, n.Payload...)
}

// Diagnostic records a recoverable oddity hit while parsing a package:
// the parser stops there and returns the partial tree.
type Diagnostic struct {
	Offset  uint64 `json:"offset"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("0x%X: %s", d.Offset, d.Message)
}

func (n *Node) decorate() {
	switch {
	case n.Op.IsQuestion():
		n.Question = parseQuestionHeader(n.Payload)
		if n.Op == OpNumeric {
			n.Question.Min, n.Question.Max, n.Question.Step = parseNumericBounds(n.Payload)
		}
		n.Label = fmt.Sprintf("string-id:0x%04X", n.Question.Prompt)
	case n.Op == OpSubtitle || n.Op == OpText || n.Op == OpForm || n.Op == OpFormSet:
		if len(n.Payload) >= 2 {
			n.Label = fmt.Sprintf("string-id:0x%04X", binary.LittleEndian.Uint16(n.Payload))
		}
	}
}

// parseQuestionHeader reads the EFI_IFR_QUESTION_HEADER fields out of
// an opcode payload. Short payloads yield zeroed fields; the node is
// still kept, malformed metadata is not a reason to drop structure.
func parseQuestionHeader(payload []byte) QuestionMeta {
	var meta QuestionMeta
	if len(payload) >= 2 {
		meta.Prompt = binary.LittleEndian.Uint16(payload[0:])
	}
	if len(payload) >= 4 {
		meta.Help = binary.LittleEndian.Uint16(payload[2:])
	}
	if len(payload) >= 6 {
		meta.QuestionID = binary.LittleEndian.Uint16(payload[4:])
	}
	if len(payload) >= 8 {
		meta.VarStoreID = binary.LittleEndian.Uint16(payload[6:])
	}
	if len(payload) >= 10 {
		meta.VarOffset = binary.LittleEndian.Uint16(payload[8:])
	}
	if len(payload) >= 11 {
		meta.Flags = payload[10]
	}
	return meta
}

// parseNumericBounds reads the MinMaxStep union of a Numeric opcode.
// The width is selected by the low two bits of the numeric flags byte
// which follows the question header.
func parseNumericBounds(payload []byte) (min, max, step uint64) {
	if len(payload) < 12 {
		return 0, 0, 0
	}
	width := 1 << (payload[11] & 0x03)
	data := payload[12:]
	read := func(idx int) uint64 {
		off := idx * width
		if off+width > len(data) {
			return 0
		}
		var v uint64
		for i := width - 1; i >= 0; i-- {
			v = v<<8 | uint64(data[off+i])
		}
		return v
	}
	return read(0), read(1), read(2)
}

// parseOptionValue reads the value of an EFI_IFR_ONE_OF_OPTION payload
// (prompt u16, flags u8, type u8, value).
func parseOptionValue(payload []byte) (uint64, bool) {
	if len(payload) < 5 {
		return 0, false
	}
	width := 1 << (payload[3] & 0x03)
	if 4+width > len(payload) {
		return 0, false
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(payload[4+i])
	}
	return v, true
}
