// Package ifr implements an interpreter for UEFI IFR (Internal Forms
// Representation) opcode streams: the binary encoding of BIOS setup
// menus. The interpreter walks opcode headers exactly as the HII
// browser would, builds a strict tree, and records visibility
// conditions without evaluating them.
package ifr

import (
	"fmt"
)

// Opcode is a single-byte IFR operation code.
type Opcode uint8

// IFR opcodes, as defined by the UEFI specification (EFI_IFR_*_OP).
const (
	OpForm        Opcode = 0x01
	OpSubtitle    Opcode = 0x02
	OpText        Opcode = 0x03
	OpImage       Opcode = 0x04
	OpOneOf       Opcode = 0x05
	OpCheckBox    Opcode = 0x06
	OpNumeric     Opcode = 0x07
	OpPassword    Opcode = 0x08
	OpOneOfOption Opcode = 0x09
	OpSuppressIf  Opcode = 0x0A
	OpLocked      Opcode = 0x0B
	OpAction      Opcode = 0x0C
	OpResetButton Opcode = 0x0D
	OpFormSet     Opcode = 0x0E
	OpRef         Opcode = 0x0F
	OpNoSubmitIf  Opcode = 0x10
	OpInconsist   Opcode = 0x11
	OpEqIdVal     Opcode = 0x12
	OpEqIdId      Opcode = 0x13
	OpEqIdValList Opcode = 0x14
	OpAnd         Opcode = 0x15
	OpOr          Opcode = 0x16
	OpNot         Opcode = 0x17
	OpRule        Opcode = 0x18
	OpGrayOutIf   Opcode = 0x19
	OpDate        Opcode = 0x1A
	OpTime        Opcode = 0x1B
	OpString      Opcode = 0x1C
	OpRefresh     Opcode = 0x1D
	OpDisableIf   Opcode = 0x1E
	OpOrderedList Opcode = 0x23
	OpVarStore    Opcode = 0x24
	OpEnd         Opcode = 0x29
	OpTrue        Opcode = 0x46
	OpFalse       Opcode = 0x47
	OpDefault     Opcode = 0x5B
	OpGuid        Opcode = 0x5F
)

var opcodeNames = map[Opcode]string{
	OpForm:        "Form",
	OpSubtitle:    "Subtitle",
	OpText:        "Text",
	OpImage:       "Image",
	OpOneOf:       "OneOf",
	OpCheckBox:    "CheckBox",
	OpNumeric:     "Numeric",
	OpPassword:    "Password",
	OpOneOfOption: "OneOfOption",
	OpSuppressIf:  "SuppressIf",
	OpLocked:      "Locked",
	OpAction:      "Action",
	OpResetButton: "ResetButton",
	OpFormSet:     "FormSet",
	OpRef:         "Ref",
	OpNoSubmitIf:  "NoSubmitIf",
	OpInconsist:   "InconsistentIf",
	OpEqIdVal:     "EqIdVal",
	OpEqIdId:      "EqIdId",
	OpEqIdValList: "EqIdValList",
	OpAnd:         "And",
	OpOr:          "Or",
	OpNot:         "Not",
	OpRule:        "Rule",
	OpGrayOutIf:   "GrayOutIf",
	OpDate:        "Date",
	OpTime:        "Time",
	OpString:      "String",
	OpRefresh:     "Refresh",
	OpDisableIf:   "DisableIf",
	OpOrderedList: "OrderedList",
	OpVarStore:    "VarStore",
	OpEnd:         "End",
	OpTrue:        "True",
	OpFalse:       "False",
	OpDefault:     "Default",
	OpGuid:        "Guid",
}

// String implements fmt.Stringer.
func (op Opcode) String() string {
	if name, found := opcodeNames[op]; found {
		return name
	}
	return fmt.Sprintf("Op(0x%02X)", uint8(op))
}

// IsKnown reports whether the opcode belongs to the supported set.
// A stream position decoding to an unknown opcode means the candidate
// is not (or no longer) an IFR stream.
func (op Opcode) IsKnown() bool {
	_, found := opcodeNames[op]
	return found
}

// IsCondition reports whether the opcode opens a visibility-condition
// scope.
func (op Opcode) IsCondition() bool {
	switch op {
	case OpSuppressIf, OpGrayOutIf, OpDisableIf, OpNoSubmitIf, OpInconsist:
		return true
	}
	return false
}

// IsExpression reports whether the opcode is part of a condition
// expression. IFR expressions are encoded postfix, so these appear as
// a flat run of siblings at the head of a condition scope.
func (op Opcode) IsExpression() bool {
	switch op {
	case OpEqIdVal, OpEqIdId, OpEqIdValList, OpAnd, OpOr, OpNot, OpTrue, OpFalse:
		return true
	}
	return false
}

// IsQuestion reports whether the opcode declares an interactive setup
// question.
func (op Opcode) IsQuestion() bool {
	switch op {
	case OpOneOf, OpCheckBox, OpNumeric, OpString, OpPassword, OpOrderedList, OpDate, OpTime, OpAction, OpRef:
		return true
	}
	return false
}
