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

package analyze

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/experimental/tracer"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/fwscope/fwscope/cmd/fwscope/commands/analyze/format"
	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/commands"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/passes"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/reportdb"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	family     *string
	deep       *bool
	jsonPath   *string
	showRaw    *bool
	saveDSN    *string
	noColorize *bool
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<path to the image>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "run every analysis pass over a firmware image and render the report"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.family = flag.String("family", "auto", "hardware family of the image; 'auto' detects from the host CPU")
	cmd.deep = flag.Bool("deep", false, "enable the low-signal signatures (more candidates, lower confidence)")
	cmd.jsonPath = flag.String("json", "bios_analysis_report.json", "write the report as JSON to this path; empty disables")
	cmd.showRaw = flag.Bool("show-raw", false, "dump decoded structure instances")
	cmd.saveDSN = flag.String("save-dsn", "", "if non-empty then additionally store the report into this MySQL DSN")
	cmd.noColorize = flag.Bool("no-color", false, "disable colors in the output")
}

// Tables resolves the family flag into the per-family tables.
func (cmd Command) Tables() (family.Tables, error) {
	fam := family.Family(*cmd.family)
	if *cmd.family == "auto" {
		fam = family.Detect()
		if fam == family.FamilyUnknown {
			return family.Tables{}, fmt.Errorf("unable to detect the hardware family of this host, pass -family explicitly (one of: %v)", family.Known())
		}
	}
	return family.TablesFor(fam, *cmd.deep)
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	if len(args) < 1 {
		return commands.ErrArgs{Err: fmt.Errorf("no path to the firmware image was specified")}
	}
	if len(args) > 1 {
		return commands.ErrArgs{Err: fmt.Errorf("too many parameters")}
	}
	imagePath := args[0]

	tables, err := cmd.Tables()
	if err != nil {
		return commands.ErrArgs{Err: err}
	}
	logger.FromCtx(ctx).Debugf("analyzing '%s' with signature set '%s'", imagePath, tables.Signatures.Version())

	img, err := image.Load(imagePath, tables.Layout)
	if err != nil {
		return fmt.Errorf("unable to load the firmware image: %w", err)
	}

	registry, err := passes.NewRegistryWithKnownPasses(tables)
	if err != nil {
		return fmt.Errorf("unable to assemble the pass registry: %w", err)
	}

	span, ctx := tracer.StartChildSpanFromCtx(ctx, "analyze")
	rep, err := analysis.Analyze(ctx, img, tables.Signatures, tables.Decoders, registry.All())
	span.Finish()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if !cfg.IsQuiet {
		format.HumanReadable(os.Stdout, rep, !*cmd.noColorize, *cmd.showRaw)
	}

	if *cmd.jsonPath != "" {
		reportJSON, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to serialize the report: %w", err)
		}
		reportJSON = append(reportJSON, '\n')
		if err := os.WriteFile(*cmd.jsonPath, reportJSON, 0644); err != nil {
			return fmt.Errorf("unable to save the report: %w", err)
		}
	}

	if *cmd.saveDSN != "" {
		if err := cmd.saveReport(ctx, rep); err != nil {
			return fmt.Errorf("unable to store the report: %w", err)
		}
	}
	return nil
}

func (cmd Command) saveReport(ctx context.Context, rep *report.Report) error {
	rdb, err := reportdb.New("mysql", *cmd.saveDSN, nil, logger.FromCtx(ctx))
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.FromCtx(ctx).Errorf("unable to close the report storage: %v", err)
		}
	}()

	entry, err := rdb.InsertReport(ctx, rep)
	if err != nil {
		return err
	}
	logger.FromCtx(ctx).Infof("stored report '%s'", entry.ID)
	return nil
}
