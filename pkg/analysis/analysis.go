// Package analysis is the engine core: it defines the pass contract,
// fans the registered passes out over a shared immutable image, and
// aggregates their outputs into the final report.
package analysis

import (
	"context"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// PassID identifies an analysis pass.
type PassID = report.PassID

// Input is everything a pass may look at. It is constructed once per
// run and shared read-only across all passes.
type Input struct {
	Image      *image.Image
	Signatures scan.Set
	Decoders   decode.Registry
	Shared     *Calculator
}

// Regions returns the region names the passes should cover: primary
// always, mirror when the image is large enough to carry one.
func (in Input) Regions() []image.RegionName {
	out := []image.RegionName{image.RegionPrimary}
	if _, err := in.Image.Region(image.RegionMirror); err == nil {
		out = append(out, image.RegionMirror)
	}
	return out
}

// Matches returns the region's signature matches of the given kind,
// in ascending offset order. The underlying scan is shared across all
// passes through the Calculator.
func (in Input) Matches(ctx context.Context, region image.RegionName, kind scan.Kind) []scan.Match {
	all := in.Shared.Matches(ctx, in.Image, in.Signatures, region)
	var out []scan.Match
	for _, m := range all {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// TailBytes returns the region bytes from the absolute offset to the
// region end: the candidate span decoders consume. Returns nil when
// the offset is outside the region.
func (in Input) TailBytes(region image.RegionName, offset uint64) []byte {
	reg, err := in.Image.Region(region)
	if err != nil || offset < reg.Start || offset >= reg.End() {
		return nil
	}
	data, err := in.Image.RegionBytes(region)
	if err != nil {
		return nil
	}
	return data[offset-reg.Start:]
}

// Result is the raw output of one pass.
type Result struct {
	Findings    []report.Finding
	Diagnostics []report.Diagnostic
}

// AddFinding appends a finding.
func (r *Result) AddFinding(f report.Finding) {
	r.Findings = append(r.Findings, f)
}

// AddDiagnostic appends a diagnostic.
func (r *Result) AddDiagnostic(d report.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Pass is a single analysis over the image. Implementations must be
// pure relative to Input: no global state, no image mutation, results
// only through the returned Result.
type Pass interface {
	ID() PassID
	Analyze(ctx context.Context, in Input) (*Result, error)
}

// Analyze runs all given passes over the image with the selected
// tables and returns the aggregated report. This is the single entry
// point of the engine; everything else in the repository either feeds
// it or renders its output.
func Analyze(
	ctx context.Context,
	img *image.Image,
	signatures scan.Set,
	decoders decode.Registry,
	passes []Pass,
) (*report.Report, error) {
	calc, err := NewCalculator(DefaultCalculatorCacheSize)
	if err != nil {
		return nil, ErrSetup{Err: err}
	}
	return AnalyzeWithCalculator(ctx, img, signatures, decoders, passes, calc)
}

// AnalyzeWithCalculator is Analyze with a caller-owned Calculator, so
// repeated invocations in one process reuse cached derived data.
func AnalyzeWithCalculator(
	ctx context.Context,
	img *image.Image,
	signatures scan.Set,
	decoders decode.Registry,
	passes []Pass,
	calc *Calculator,
) (*report.Report, error) {
	in := Input{
		Image:      img,
		Signatures: signatures,
		Decoders:   decoders,
		Shared:     calc,
	}

	var runDiags []report.Diagnostic
	if signatures.Len() == 0 {
		runDiags = append(runDiags, report.Diagnostic{
			Source:  "engine",
			Message: "signature set is empty; pattern-based passes will find nothing",
		})
	}
	if _, err := img.Region(image.RegionMirror); err != nil {
		runDiags = append(runDiags, report.Diagnostic{
			Source:  "engine",
			Message: "image has no mirror region; findings cannot be cross-confirmed",
		})
	}

	results := NewExecutor(passes...).Execute(ctx, in)
	return report.Aggregate(img.ID(), img.Size(), signatures.Version(), img.Layout(), results, runDiags), nil
}
