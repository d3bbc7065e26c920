// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

// Package format renders analysis reports for humans.
package format

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"

	"github.com/fwscope/fwscope/pkg/report"
)

// HumanReadable writes an analysis report to the io.Writer in a human
// readable format.
//
// showRaw additionally dumps every decoded structure instance via
// go-spew, which is useful when deciding whether a patch candidate is
// trustworthy.
func HumanReadable(w io.Writer, rep *report.Report, enableColors bool, showRaw bool) {
	fmt.Fprintf(w, "Analyzed image %s (%d bytes), signature set '%s'\n",
		rep.ImageID.String()[:32], rep.ImageSize, rep.SetVersion)

	for _, passReport := range rep.Passes {
		if len(passReport.Findings) == 0 && len(passReport.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(w, "=== Results of '%s' ===\n", passReport.Pass)
		for idx := range passReport.Findings {
			printFinding(w, &passReport.Findings[idx], enableColors, showRaw)
		}
		for _, diag := range passReport.Diagnostics {
			fprintfWithColor(w, enableColors, color.FgYellow, "  diagnostic: %s\n", diag.Message)
		}
		fmt.Fprintf(w, "=== End of '%s' ===\n", passReport.Pass)
	}

	for _, div := range rep.Divergences {
		fprintfWithColor(w, enableColors, color.FgRed,
			"DIVERGENCE: primary 0x%X and mirror 0x%X differ by %d bits: %s\n",
			div.PrimaryOffset, div.MirrorOffset, div.BitDistance, div.Description)
	}

	for _, diag := range rep.Diagnostics {
		fprintfWithColor(w, enableColors, color.FgYellow, "diagnostic: %s\n", diag.Message)
	}

	for _, summary := range rep.Summary {
		fmt.Fprintf(w, "%s region: %d findings\n", summary.Region, summary.Findings)
	}
	fmt.Fprintf(w, "total: %d findings\n", rep.TotalFindings())
}

func printFinding(w io.Writer, f *report.Finding, enableColors bool, showRaw bool) {
	marker := ""
	if f.ConfirmedInMirror {
		marker = " [mirror-confirmed]"
	}
	fprintfWithColor(w, enableColors, confidenceColor(f.Confidence),
		"  [%s] 0x%X (%s): %s%s\n",
		f.Confidence, f.Offset, f.Region, f.Description, marker)

	if f.Patch != nil {
		fprintfWithColor(w, enableColors, riskColor(f.Patch.Risk),
			"    patch candidate (risk %s): 0x%X % X -> % X\n",
			f.Patch.Risk, f.Patch.Offset, f.Patch.Original, f.Patch.Patched)
		fmt.Fprintf(w, "    effect: %s\n", f.Patch.Effect)
	}

	if showRaw && f.Instance != nil {
		spewConfig.Fdump(w, f.Instance)
	}
}

var spewConfig = spew.ConfigState{
	Indent:                  "    ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func fprintfWithColor(w io.Writer, enableColors bool, colorAttr color.Attribute, format string, args ...any) {
	if !enableColors {
		fmt.Fprintf(w, format, args...)
		return
	}
	color.New(colorAttr).Fprintf(w, format, args...)
}

func confidenceColor(c report.Confidence) color.Attribute {
	switch c {
	case report.ConfidenceCertain:
		return color.FgGreen
	case report.ConfidenceProbable:
		return color.FgCyan
	}
	return color.FgWhite
}

func riskColor(risk string) color.Attribute {
	switch risk {
	case "low":
		return color.FgGreen
	case "medium":
		return color.FgYellow
	}
	return color.FgRed
}
