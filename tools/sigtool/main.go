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

// sigtool prints the built-in signature tables as JSON, so table
// changes can be reviewed and diffed outside the code.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"

	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/observability"
	"github.com/fwscope/fwscope/pkg/scan"
)

func assertNoError(ctx context.Context, err error) {
	if err != nil {
		logger.FromCtx(ctx).Fatalf("%v", err)
	}
}

func usageExit() {
	pflag.Usage()
	os.Exit(2) // The default Go's exitcode on flag.Parse() problems
}

type signatureExport struct {
	ID             scan.SignatureID `json:"id"`
	Kind           scan.Kind        `json:"kind"`
	Pattern        string           `json:"pattern"`
	Stride         uint64           `json:"stride,omitempty"`
	NonOverlapping bool             `json:"non_overlapping,omitempty"`
	Context        uint64           `json:"context,omitempty"`
}

type setExport struct {
	Family     family.Family     `json:"family"`
	Version    string            `json:"version"`
	Signatures []signatureExport `json:"signatures"`
}

func patternString(units []scan.Unit) string {
	fields := make([]string, 0, len(units))
	for _, unit := range units {
		if unit.Wildcard {
			fields = append(fields, "??")
			continue
		}
		fields = append(fields, fmt.Sprintf("%02X", unit.Value))
	}
	return strings.Join(fields, " ")
}

func main() {
	logLevel := logger.LevelInfo // the default value
	familyName := pflag.String("family", string(family.FamilyVanGogh), "hardware family to export the tables of")
	deep := pflag.Bool("deep", false, "include the low-signal signatures")
	pflag.Parse()

	ctx := observability.WithBelt(
		context.Background(),
		logLevel,
		"sigtool", true,
	)

	defer func() {
		if event := errmon.ObserveRecoverCtx(ctx, recover()); event != nil {
			beltctx.Flush(ctx)
			panic(event.PanicValue)
		}

		beltctx.Flush(ctx)
	}()

	if pflag.NArg() != 0 {
		usageExit()
	}

	tables, err := family.TablesFor(family.Family(*familyName), *deep)
	assertNoError(ctx, err)

	export := setExport{
		Family:  tables.Family,
		Version: tables.Signatures.Version(),
	}
	for _, sig := range tables.Signatures.Signatures() {
		export.Signatures = append(export.Signatures, signatureExport{
			ID:             sig.ID,
			Kind:           sig.Kind,
			Pattern:        patternString(sig.Pattern),
			Stride:         sig.Stride,
			NonOverlapping: sig.NonOverlapping,
			Context:        sig.Context,
		})
	}

	b, err := json.MarshalIndent(export, "", "  ")
	assertNoError(ctx, err)
	fmt.Printf("%s\n", b)
}
