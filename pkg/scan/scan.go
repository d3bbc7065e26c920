package scan

import (
	"sort"

	"github.com/fwscope/fwscope/pkg/image"
)

// Match is a single occurrence of a signature within a region.
//
// Matches are produced only by the scanner and are read-only
// afterwards. Offset is absolute into the whole image buffer.
type Match struct {
	Signature SignatureID      `json:"signature"`
	Kind      Kind             `json:"kind"`
	Region    image.RegionName `json:"region"`
	Offset    uint64           `json:"offset"`
	Context   []byte           `json:"context,omitempty"`
}

// Scan walks one region of the image and reports every signature
// occurrence in ascending offset order. The ordering is load-bearing:
// the report aggregator relies on it for mirror deduplication.
//
// An unavailable region, an empty region, or a region without matches
// yields an empty result, never an error.
func (set Set) Scan(img *image.Image, name image.RegionName) []Match {
	region, err := img.Region(name)
	if err != nil {
		return nil
	}
	data, err := img.RegionBytes(name)
	if err != nil {
		return nil
	}

	var matches []Match
	for _, sig := range set.signatures {
		matches = append(matches, scanOne(sig, data, region)...)
	}

	sortMatches(matches)
	return matches
}

// ScanSignature is Scan restricted to a single signature of the set.
func (set Set) ScanSignature(img *image.Image, name image.RegionName, id SignatureID) []Match {
	sig, found := set.Get(id)
	if !found {
		return nil
	}
	region, err := img.Region(name)
	if err != nil {
		return nil
	}
	data, err := img.RegionBytes(name)
	if err != nil {
		return nil
	}
	return scanOne(sig, data, region)
}

func scanOne(sig Signature, data []byte, region image.Region) []Match {
	if len(data) < sig.Len() {
		return nil
	}

	step := 1
	if sig.Stride > 0 {
		step = int(sig.Stride)
	}

	var matches []Match
	for i := 0; i+sig.Len() <= len(data); i += step {
		if !sig.matchAt(data, i) {
			continue
		}
		matches = append(matches, Match{
			Signature: sig.ID,
			Kind:      sig.Kind,
			Region:    region.Name,
			Offset:    region.Start + uint64(i),
			Context:   captureContext(sig, data, i),
		})
		if sig.NonOverlapping {
			// resume after the end of this match; -step compensates
			// the loop increment
			i += sig.Len() - step
		}
	}
	return matches
}

func captureContext(sig Signature, data []byte, i int) []byte {
	if sig.Context == 0 {
		return nil
	}
	end := i + int(sig.Context)
	if end > len(data) {
		end = len(data)
	}
	ctx := make([]byte, end-i)
	copy(ctx, data[i:end])
	return ctx
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Offset < matches[j].Offset
	})
}
