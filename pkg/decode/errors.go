package decode

import (
	"fmt"
)

// ErrSignatureMismatch means the candidate bytes do not start with the
// magic the structure layout requires.
type ErrSignatureMismatch struct {
	Type     StructType
	Expected []byte
	Got      []byte
}

func (err ErrSignatureMismatch) Error() string {
	return fmt.Sprintf("%s: signature mismatch: expected % X, got % X", err.Type, err.Expected, err.Got)
}

// ErrTruncatedInstance means the region ends before the structure
// layout does.
type ErrTruncatedInstance struct {
	Type StructType
	Need int
	Have int
}

func (err ErrTruncatedInstance) Error() string {
	return fmt.Sprintf("%s: truncated instance: need %d bytes, have %d", err.Type, err.Need, err.Have)
}

// ErrRangeViolation means a decoded field value falls outside the
// plausible range for its structure type.
type ErrRangeViolation struct {
	Type  StructType
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (err ErrRangeViolation) Error() string {
	return fmt.Sprintf("%s: field '%s' value %d is outside [%d, %d]", err.Type, err.Field, err.Value, err.Min, err.Max)
}

// ErrMalformedTable means a table-shaped candidate violates a
// structural rule which is not a simple per-field range (too few
// entries, non-monotonic progression, unknown member).
type ErrMalformedTable struct {
	Type   StructType
	Reason string
}

func (err ErrMalformedTable) Error() string {
	return fmt.Sprintf("%s: malformed table: %s", err.Type, err.Reason)
}
