// Package scan implements the byte-signature scanner: a registry of
// literal-with-wildcards patterns and a matcher that walks firmware
// regions and reports every occurrence.
package scan

import (
	"fmt"
	"strings"
)

// SignatureID is a unique ID of a signature within a Set.
type SignatureID string

// Kind is the kind of finding a signature points at.
type Kind string

// Signature kinds used by the built-in signature sets.
const (
	KindVolume     Kind = "uefi-volume"
	KindSPD        Kind = "spd"
	KindFreqTable  Kind = "frequency-table"
	KindPowerLimit Kind = "power-limit"
	KindSMU        Kind = "smu"
	KindString     Kind = "vendor-string"
	KindGUID       Kind = "guid"
	KindPSP        Kind = "psp"
	KindEC         Kind = "ec"
	KindRatio      Kind = "clock-ratio"
	KindNVRAM      Kind = "nvram-variable"
	KindKeyword    Kind = "keyword"
	KindIFR        Kind = "ifr"

	// Kinds below are synthesized by heuristic passes for candidates
	// that no fixed byte pattern can describe.
	KindNumeric       Kind = "numeric-table"
	KindThermal       Kind = "thermal-table"
	KindVoltageOffset Kind = "voltage-offset"
)

// Unit is a single position of a byte pattern: either a literal byte
// value or a wildcard matching any byte.
type Unit struct {
	Value    byte
	Wildcard bool
}

// Signature is an immutable byte pattern tagged with a finding kind.
//
// Signature sets are fixed and versioned: new hardware revisions add
// signatures under a new set version, existing ones are never mutated
// in place.
type Signature struct {
	// ID is unique within the containing Set.
	ID SignatureID

	// Kind tags what a match of this signature points at.
	Kind Kind

	// Pattern is the literal-with-wildcards byte pattern.
	Pattern []Unit

	// Stride, when non-zero, restricts matching to offsets aligned to
	// it (relative to the region start).
	Stride uint64

	// NonOverlapping makes the scanner resume right after the end of
	// the previous match instead of at the next offset.
	NonOverlapping bool

	// Context is the number of bytes around the match captured into
	// the PatternMatch for downstream passes.
	Context uint64
}

// Len returns the pattern length in bytes.
func (sig Signature) Len() int {
	return len(sig.Pattern)
}

// matchAt reports whether the pattern matches data at position i.
func (sig Signature) matchAt(data []byte, i int) bool {
	if i+len(sig.Pattern) > len(data) {
		return false
	}
	for j, unit := range sig.Pattern {
		if unit.Wildcard {
			continue
		}
		if data[i+j] != unit.Value {
			return false
		}
	}
	return true
}

// Compile parses the textual form of a byte pattern: whitespace
// separated hex bytes, with "??" denoting a wildcard position.
//
// Example: "23 11 13 0E", "24 50 53 50 ?? ??".
func Compile(pattern string) ([]Unit, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	units := make([]Unit, 0, len(fields))
	for _, field := range fields {
		if field == "??" {
			units = append(units, Unit{Wildcard: true})
			continue
		}
		var b byte
		if _, err := fmt.Sscanf(field, "%02X", &b); err != nil {
			return nil, fmt.Errorf("invalid pattern byte '%s': %w", field, err)
		}
		units = append(units, Unit{Value: b})
	}
	return units, nil
}

// MustCompile is like Compile, but panics on an invalid pattern. It is
// intended for the built-in signature tables defined at process start.
func MustCompile(pattern string) []Unit {
	units, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return units
}

// LiteralUnits converts raw bytes to a pattern without wildcards.
func LiteralUnits(b []byte) []Unit {
	units := make([]Unit, len(b))
	for i, v := range b {
		units[i] = Unit{Value: v}
	}
	return units
}
