package report

import (
	"fmt"
	"sort"

	"github.com/steakknife/hamming"

	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/types"
)

// PassResult is the raw output of one pass handed to the aggregator.
type PassResult struct {
	Pass        PassID
	Findings    []Finding
	Diagnostics []Diagnostic
}

// PassReport is one pass's slice of the final report: findings sorted
// by ascending offset, mirror duplicates already collapsed.
type PassReport struct {
	Pass        PassID       `json:"pass"`
	Findings    []Finding    `json:"findings"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// RegionSummary is the per-region finding tally.
type RegionSummary struct {
	Region   image.RegionName `json:"region"`
	Findings int              `json:"findings"`
}

// Report is the complete, immutable result of one analysis run. It
// contains no timestamps and no randomness: analyzing the same image
// with the same tables twice yields byte-identical serialized reports.
type Report struct {
	ImageID     types.ImageID   `json:"image_id"`
	ImageSize   uint64          `json:"image_size"`
	SetVersion  string          `json:"set_version"`
	Passes      []PassReport    `json:"passes"`
	Summary     []RegionSummary `json:"summary"`
	Divergences []Divergence    `json:"divergences,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

// TotalFindings returns the finding count across all passes.
func (r *Report) TotalFindings() int {
	total := 0
	for _, p := range r.Passes {
		total += len(p.Findings)
	}
	return total
}

// Aggregate merges per-pass results into the final report. Pass order
// is preserved as given (the executor hands results in registration
// order); findings within a pass are sorted by ascending offset.
//
// Mirror deduplication: a primary finding at offset X and a mirror
// finding at X+delta with byte-identical payloads collapse into the
// primary finding with ConfirmedInMirror set and Probable raised to
// Certain. Pairs at mirrored offsets whose payloads differ stay as two
// findings and additionally produce a Divergence entry.
func Aggregate(imageID types.ImageID, imageSize uint64, setVersion string, layout image.Layout, results []PassResult, runDiags []Diagnostic) *Report {
	rep := &Report{
		ImageID:     imageID,
		ImageSize:   imageSize,
		SetVersion:  setVersion,
		Diagnostics: runDiags,
	}

	regionCounts := map[image.RegionName]int{}
	for _, res := range results {
		findings, divergences := dedupMirror(res.Findings, layout.MirrorDelta)
		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Offset < findings[j].Offset
		})
		rep.Passes = append(rep.Passes, PassReport{
			Pass:        res.Pass,
			Findings:    findings,
			Diagnostics: res.Diagnostics,
		})
		rep.Divergences = append(rep.Divergences, divergences...)
		for _, f := range findings {
			regionCounts[f.Region]++
		}
	}

	sort.SliceStable(rep.Divergences, func(i, j int) bool {
		return rep.Divergences[i].PrimaryOffset < rep.Divergences[j].PrimaryOffset
	})

	for _, region := range []image.RegionName{image.RegionPrimary, image.RegionMirror} {
		if count, found := regionCounts[region]; found {
			rep.Summary = append(rep.Summary, RegionSummary{Region: region, Findings: count})
		}
	}
	return rep
}

func dedupMirror(findings []Finding, delta uint64) ([]Finding, []Divergence) {
	if delta == 0 {
		return findings, nil
	}

	// Primary findings with a dedupable payload, by offset.
	primaryByOffset := map[uint64]int{}
	for i := range findings {
		f := &findings[i]
		if f.Region == image.RegionPrimary && f.payloadKey() != "" {
			primaryByOffset[f.Offset] = i
		}
	}

	// First resolve every mirror finding against its primary twin,
	// then build the output: collapsing must mutate the primary before
	// it is copied out.
	collapsed := map[int]struct{}{}
	var divergences []Divergence
	for i := range findings {
		f := &findings[i]
		if f.Region != image.RegionMirror || f.payloadKey() == "" || f.Offset < delta {
			continue
		}
		primaryIdx, found := primaryByOffset[f.Offset-delta]
		if !found {
			continue
		}
		primary := &findings[primaryIdx]
		if primary.payloadKey() == f.payloadKey() {
			collapsed[i] = struct{}{}
			primary.ConfirmedInMirror = true
			if primary.Confidence == ConfidenceProbable {
				primary.Confidence = ConfidenceCertain
			}
			continue
		}
		divergences = append(divergences, Divergence{
			PrimaryOffset: primary.Offset,
			MirrorOffset:  f.Offset,
			Description:   fmt.Sprintf("%s: primary and mirror copies differ", primary.Description),
			BitDistance:   bitDistance(primary.payloadBytes(), f.payloadBytes()),
		})
	}

	out := make([]Finding, 0, len(findings))
	for i := range findings {
		if _, skip := collapsed[i]; skip {
			continue
		}
		out = append(out, findings[i])
	}
	return out, divergences
}

// bitDistance counts differing bits between two payloads; excess bytes
// of the longer payload count every bit as differing.
func bitDistance(a, b []byte) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	total := 0
	for i := range a {
		total += hamming.Byte(a[i], b[i])
	}
	for _, x := range b[len(a):] {
		total += hamming.CountBitsByte(x)
	}
	return total
}
