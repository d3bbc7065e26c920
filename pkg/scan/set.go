package scan

import (
	"fmt"
)

// Set is an immutable, versioned collection of signatures. It is built
// once at process start and shared read-only by all analysis passes.
type Set struct {
	version    string
	signatures []Signature
	byID       map[SignatureID]int
}

// NewSet builds a Set from the given signatures. Duplicate IDs and
// empty patterns are rejected.
func NewSet(version string, signatures []Signature) (Set, error) {
	if version == "" {
		return Set{}, fmt.Errorf("signature set version must not be empty")
	}
	byID := make(map[SignatureID]int, len(signatures))
	for i, sig := range signatures {
		if len(sig.Pattern) == 0 {
			return Set{}, fmt.Errorf("signature '%s' has an empty pattern", sig.ID)
		}
		if _, found := byID[sig.ID]; found {
			return Set{}, fmt.Errorf("duplicate signature id '%s'", sig.ID)
		}
		byID[sig.ID] = i
	}
	return Set{
		version:    version,
		signatures: signatures,
		byID:       byID,
	}, nil
}

// MustNewSet is like NewSet, but panics on an invalid table. It is
// intended for the built-in tables.
func MustNewSet(version string, signatures []Signature) Set {
	set, err := NewSet(version, signatures)
	if err != nil {
		panic(err)
	}
	return set
}

// Version returns the version tag of the set.
func (set Set) Version() string {
	return set.version
}

// Signatures returns the signatures in their registration order.
func (set Set) Signatures() []Signature {
	return set.signatures
}

// Get returns the signature with the given ID.
func (set Set) Get(id SignatureID) (Signature, bool) {
	i, found := set.byID[id]
	if !found {
		return Signature{}, false
	}
	return set.signatures[i], true
}

// Len returns the number of signatures in the set.
func (set Set) Len() int {
	return len(set.signatures)
}
