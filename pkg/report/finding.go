package report

import (
	"fmt"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/menu"
	"github.com/fwscope/fwscope/pkg/scan"
)

// PassID identifies an analysis pass.
type PassID string

// FindingKind tags what a finding's payload is.
type FindingKind string

const (
	FindingMatch     = FindingKind("match")
	FindingStructure = FindingKind("structure")
	FindingMenu      = FindingKind("menu")
	FindingPatch     = FindingKind("patch")
)

// PatchCandidate describes a byte change the analysis suggests, for
// reporting only. The engine never writes the image.
type PatchCandidate struct {
	Offset      uint64 `json:"offset"`
	Original    []byte `json:"original"`
	Patched     []byte `json:"patched"`
	Description string `json:"description"`
	Effect      string `json:"effect"`
	Risk        string `json:"risk"`
}

// Finding is one analysis result. Exactly one of the payload pointers
// (Match, Instance, Menu, Patch) is set, according to Kind.
type Finding struct {
	Pass              PassID               `json:"pass"`
	Kind              FindingKind          `json:"kind"`
	Confidence        Confidence           `json:"confidence"`
	Description       string               `json:"description"`
	Region            image.RegionName     `json:"region"`
	Offset            uint64               `json:"offset"`
	ConfirmedInMirror bool                 `json:"confirmed_in_mirror,omitempty"`
	Match             *scan.Match          `json:"match,omitempty"`
	Instance          *decode.Instance     `json:"instance,omitempty"`
	Menu              *menu.Classification `json:"menu,omitempty"`
	Patch             *PatchCandidate      `json:"patch,omitempty"`
}

// payloadKey is the mirror-dedup identity of the finding's payload:
// two findings with equal keys carry byte-identical decoded content.
// Offsets and regions are deliberately excluded. Findings without a
// dedupable payload (menu, patch) return "".
func (f *Finding) payloadKey() string {
	switch {
	case f.Instance != nil:
		return "instance\x00" + f.Instance.PayloadKey()
	case f.Match != nil:
		return fmt.Sprintf("match\x00%s\x00%x", f.Match.Signature, f.Match.Context)
	}
	return ""
}

// payloadBytes is the raw content used for divergence bit-distance.
func (f *Finding) payloadBytes() []byte {
	switch {
	case f.Instance != nil:
		return f.Instance.Raw
	case f.Match != nil:
		return f.Match.Context
	}
	return nil
}

// Diagnostic is a non-fatal problem hit during the run: a broken
// structure, an aborted pass, a degraded configuration. It explains
// report gaps without failing the analysis.
type Diagnostic struct {
	Source  string `json:"source"`
	Offset  uint64 `json:"offset,omitempty"`
	Message string `json:"message"`
}

// Divergence records a primary/mirror pair that should match but
// does not.
type Divergence struct {
	PrimaryOffset uint64 `json:"primary_offset"`
	MirrorOffset  uint64 `json:"mirror_offset"`
	Description   string `json:"description"`
	BitDistance   int    `json:"bit_distance"`
}
