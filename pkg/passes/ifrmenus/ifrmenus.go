// Package ifrmenus discovers IFR form packages, classifies the setup
// questions inside them by reachability and reports the hidden ones.
//
// Packages come from two sources: setup driver file bodies extracted
// through the firmware filesystem, and a raw sweep for form set
// headers over each region. The raw sweep keeps working on images
// whose filesystem fiano cannot parse.
package ifrmenus

import (
	"context"
	"fmt"
	"sort"

	"github.com/linuxboot/fiano/pkg/guid"
	fianoUEFI "github.com/linuxboot/fiano/pkg/uefi"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/ifr"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/menu"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the IFR menu analysis pass.
const ID = analysis.PassID("ifrmenus")

// Keyword evidence further away than this from a question is assumed
// unrelated.
const crossReferenceWindow = 0x1000

// Freeform section data carries a 0x14 byte header before the body.
const freeformHeaderLength = 0x14

// Pass classifies setup menu questions.
type Pass struct {
	tables family.Tables
}

// New returns a new instance of the pass.
func New(tables family.Tables) analysis.Pass {
	return &Pass{tables: tables}
}

// ID implements analysis.Pass.
func (*Pass) ID() analysis.PassID {
	return ID
}

// Analyze implements analysis.Pass.
func (p *Pass) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	res := &analysis.Result{}

	driverSources := p.driverSources(ctx, in, res)

	for _, region := range in.Regions() {
		// Driver file offsets are primary-region absolute; feeding
		// them to the mirror would double every package.
		var extra []ifr.Source
		if region == image.RegionPrimary {
			extra = driverSources
		}

		keywords := p.keywordEvidence(ctx, in, region, res)

		for _, pkg := range in.Shared.IFRPackages(ctx, in.Image, region, extra...) {
			pkg := pkg
			for _, d := range pkg.Diagnostics {
				res.AddDiagnostic(report.Diagnostic{
					Source:  pkg.Source,
					Offset:  d.Offset,
					Message: d.Message,
				})
			}
			if pkg.Root == nil {
				continue
			}
			for _, cls := range menu.ClassifyPackage(&pkg) {
				cls := menu.CrossReference(cls, keywords, crossReferenceWindow)
				p.reportClassification(res, region, cls)
			}
		}
	}
	return res, nil
}

func (p *Pass) reportClassification(res *analysis.Result, region image.RegionName, cls menu.Classification) {
	label := cls.Node.Label
	if label == "" {
		label = fmt.Sprintf("at 0x%X", cls.Node.Offset)
	}

	switch cls.Verdict {
	case menu.VerdictSuppressedReachable:
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMenu,
			Confidence:  report.ConfidenceHeuristic,
			Description: fmt.Sprintf("setup question %s hidden behind a satisfiable condition", label),
			Region:      region,
			Offset:      cls.Node.Offset,
			Menu:        &cls,
		})
	case menu.VerdictLocked:
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMenu,
			Confidence:  report.ConfidenceProbable,
			Description: fmt.Sprintf("setup question %s locked out of the stock UI", label),
			Region:      region,
			Offset:      cls.Node.Offset,
			Menu:        &cls,
		})
	}
}

// keywordEvidence returns the region's keyword matches with
// over-represented signatures dropped. A keyword firing past its cap
// matches noise, not setup strings.
func (p *Pass) keywordEvidence(ctx context.Context, in analysis.Input, region image.RegionName, res *analysis.Result) []scan.Match {
	matches := in.Matches(ctx, region, scan.KindKeyword)

	counts := map[scan.SignatureID]int{}
	for _, m := range matches {
		counts[m.Signature]++
	}

	var overflown []scan.SignatureID
	for id, n := range counts {
		if limit := family.KeywordCap(id); limit > 0 && n > limit {
			overflown = append(overflown, id)
		}
	}
	sort.Slice(overflown, func(i, j int) bool { return overflown[i] < overflown[j] })

	dropped := map[scan.SignatureID]struct{}{}
	for _, id := range overflown {
		dropped[id] = struct{}{}
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: fmt.Sprintf("keyword %q fired %d times in region %s, above its cap of %d, dropping", id, counts[id], region, family.KeywordCap(id)),
		})
	}
	if len(dropped) == 0 {
		return matches
	}

	kept := make([]scan.Match, 0, len(matches))
	for _, m := range matches {
		if _, ok := dropped[m.Signature]; ok {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// driverSources extracts the setup driver file bodies as extra IFR
// package sources.
func (p *Pass) driverSources(ctx context.Context, in analysis.Input, res *analysis.Result) []ifr.Source {
	if len(p.tables.SetupDriverGUIDs) == 0 {
		return nil
	}

	fw, err := in.Shared.UEFI(ctx, in.Image)
	if err != nil {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: fmt.Sprintf("firmware filesystem is not parsable, falling back to the raw form set sweep: %v", err),
		})
		return nil
	}

	var sources []ifr.Source
	for _, guidStr := range p.tables.SetupDriverGUIDs {
		fileGUID, err := guid.Parse(guidStr)
		if err != nil {
			res.AddDiagnostic(report.Diagnostic{
				Source:  string(ID),
				Message: fmt.Sprintf("malformed setup driver GUID %q: %v", guidStr, err),
			})
			continue
		}
		nodes, err := fw.GetByGUID(*fileGUID)
		if err != nil || len(nodes) == 0 {
			continue
		}
		for _, node := range nodes {
			file, ok := node.Firmware.(*fianoUEFI.File)
			if !ok {
				continue
			}
			for _, section := range file.Sections {
				data := section.Buf()
				if len(section.Encapsulated) > 0 {
					data = section.Encapsulated[0].Value.Buf()
				}
				if len(data) < freeformHeaderLength {
					continue
				}
				sources = append(sources, ifr.Source{
					Name: guidStr,
					Base: node.Offset,
					Data: data[freeformHeaderLength:],
				})
			}
		}
	}
	return sources
}
