package ifr

import (
	"fmt"
)

// ErrUnbalancedScope means the opcode stream closed a scope it never
// opened, or ended with scopes still open. The package is structurally
// broken and its tree is returned only as far as it got.
type ErrUnbalancedScope struct {
	Offset uint64
	Depth  int
}

func (err ErrUnbalancedScope) Error() string {
	if err.Depth < 0 {
		return fmt.Sprintf("unbalanced scope: End opcode at 0x%X with no open scope", err.Offset)
	}
	return fmt.Sprintf("unbalanced scope: stream ended at 0x%X with %d scope(s) still open", err.Offset, err.Depth)
}

// minOpLength is the opcode header itself; a declared length below it
// cannot be advanced over.
const minOpLength = 2

// ParsePackage interprets one IFR opcode stream starting at data[0].
// base is the absolute offset of data[0] in the image; all node
// offsets are absolute.
//
// The walk advances strictly by each opcode's declared length. A
// structural defect (unknown opcode, length past the buffer end,
// truncated header) terminates the package: the partial tree plus a
// Diagnostic is returned, never an error. Scope imbalance is the one
// fatal condition and is reported as ErrUnbalancedScope alongside the
// partial tree.
func ParsePackage(data []byte, base uint64) (*Node, []Diagnostic, error) {
	root := &Node{Offset: base}
	stack := []*Node{root}
	var diags []Diagnostic

	i := 0
	for i < len(data) {
		if i+minOpLength > len(data) {
			diags = append(diags, Diagnostic{Offset: base + uint64(i), Message: "truncated opcode header"})
			break
		}
		op := Opcode(data[i])
		length := int(data[i+1] & 0x7F)
		openScope := data[i+1]&0x80 != 0

		if !op.IsKnown() {
			diags = append(diags, Diagnostic{Offset: base + uint64(i), Message: fmt.Sprintf("unknown opcode 0x%02X", uint8(op))})
			break
		}
		if length < minOpLength {
			diags = append(diags, Diagnostic{Offset: base + uint64(i), Message: fmt.Sprintf("%s: declared length %d below header size", op, length)})
			break
		}
		if i+length > len(data) {
			diags = append(diags, Diagnostic{Offset: base + uint64(i), Message: fmt.Sprintf("%s: declared length %d runs past buffer end", op, length)})
			break
		}

		if op == OpEnd {
			if len(stack) == 1 {
				return root, diags, ErrUnbalancedScope{Offset: base + uint64(i), Depth: -1}
			}
			stack = stack[:len(stack)-1]
			i += length
			continue
		}

		node := &Node{
			Op:      op,
			Offset:  base + uint64(i),
			Length:  uint8(length),
			Payload: append([]byte(nil), data[i+2:i+length]...),
		}
		node.decorate()

		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		if op == OpOneOfOption && parent.Op == OpOneOf {
			if v, ok := parseOptionValue(node.Payload); ok {
				parent.Question.OptionValues = append(parent.Question.OptionValues, v)
			}
		}

		if openScope {
			stack = append(stack, node)
		}
		i += length

		// A FormSet closes the package when its scope closes; trailing
		// bytes after the root scope are not part of this package.
		if len(stack) == 1 && len(root.Children) > 0 && root.Children[0].Op == OpFormSet {
			break
		}
	}

	attachConditions(root, nil)

	if len(stack) > 1 {
		return root, diags, ErrUnbalancedScope{Offset: base + uint64(min(i, len(data))), Depth: len(stack) - 1}
	}
	return root, diags, nil
}

// attachConditions propagates each condition scope onto the question
// and form nodes it wraps, and records embedded Locked opcodes on
// their parent.
func attachConditions(n *Node, active []Condition) {
	for _, child := range n.Children {
		if child.Op == OpLocked {
			n.Conditions = append(n.Conditions, Condition{Op: OpLocked, Offset: child.Offset})
		}
	}

	if n.Op.IsQuestion() || n.Op == OpForm {
		n.Conditions = append(n.Conditions, active...)
	}

	next := active
	if n.Op.IsCondition() {
		next = append(append([]Condition(nil), active...), Condition{
			Op:     n.Op,
			Offset: n.Offset,
			Expr:   expressionBytes(n),
		})
	}
	for _, child := range n.Children {
		attachConditions(child, next)
	}
}

// expressionBytes re-encodes the leading expression opcodes of a
// condition scope. IFR expressions are postfix, so they form a flat
// run at the head of the scope before the wrapped content starts.
func expressionBytes(cond *Node) []byte {
	var out []byte
	for _, child := range cond.Children {
		if !child.Op.IsExpression() {
			break
		}
		out = append(out, child.encode()...)
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
