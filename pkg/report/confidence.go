// Package report defines the finding model and the aggregator which
// merges per-pass outputs into the single immutable analysis report.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence is how sure the engine is that a finding is real, ordered
// from weakest to strongest.
type Confidence uint32

const (
	// ConfidenceHeuristic: shape matched, nothing confirmed it.
	ConfidenceHeuristic = Confidence(iota + 1)
	// ConfidenceProbable: a decoder validated the bytes.
	ConfidenceProbable
	// ConfidenceCertain: independently confirmed (mirror copy or
	// filesystem parse agreement).
	ConfidenceCertain
	EndConfidence
)

// String implements fmt.Stringer.
func (c Confidence) String() string {
	switch c {
	case ConfidenceHeuristic:
		return "HEURISTIC"
	case ConfidenceProbable:
		return "PROBABLE"
	case ConfidenceCertain:
		return "CERTAIN"
	}
	return fmt.Sprintf("unknown_confidence_%d", uint32(c))
}

// MarshalJSON implements json.Marshaler.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for candidate := ConfidenceHeuristic; candidate < EndConfidence; candidate++ {
		if strings.EqualFold(candidate.String(), s) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown confidence '%s'", s)
}
