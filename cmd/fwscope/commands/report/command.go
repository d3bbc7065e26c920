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

package report

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/tidwall/gjson"

	"github.com/fwscope/fwscope/pkg/commands"
	"github.com/fwscope/fwscope/pkg/reportdb"
	"github.com/fwscope/fwscope/pkg/types"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	path    *string
	fromDSN *string
	imageID types.ImageID
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<path to a report JSON file>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "query a saved analysis report with a gjson path"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.path = flag.String("path", "", "gjson path into the report, for example 'passes.#.findings'; empty prints the whole document")
	cmd.fromDSN = flag.String("from-dsn", "", "if non-empty then fetch the latest report for -image-id from this MySQL DSN instead of a file")
	flag.Var(&cmd.imageID, "image-id", "image ID to fetch from the RDBMS (requires -from-dsn)")
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd Command) Execute(ctx context.Context, cfg commands.Config, args []string) error {
	reportJSON, err := cmd.reportJSON(ctx, args)
	if err != nil {
		return err
	}

	if *cmd.path == "" {
		fmt.Printf("%s\n", reportJSON)
		return nil
	}

	result := gjson.GetBytes(reportJSON, *cmd.path)
	if !result.Exists() {
		return fmt.Errorf("path '%s' matches nothing in the report", *cmd.path)
	}
	fmt.Printf("%s\n", result.Raw)
	return nil
}

func (cmd Command) reportJSON(ctx context.Context, args []string) ([]byte, error) {
	if *cmd.fromDSN != "" {
		if len(args) != 0 {
			return nil, commands.ErrArgs{Err: fmt.Errorf("-from-dsn and a file argument are mutually exclusive")}
		}
		if cmd.imageID.IsZero() {
			return nil, commands.ErrArgs{Err: fmt.Errorf("-from-dsn requires -image-id")}
		}
		rdb, err := reportdb.New("mysql", *cmd.fromDSN, nil, logger.FromCtx(ctx))
		if err != nil {
			return nil, fmt.Errorf("unable to connect to the report storage: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.FromCtx(ctx).Errorf("unable to close the report storage: %v", err)
			}
		}()
		reportJSON, err := rdb.FindLatestReportJSON(ctx, cmd.imageID)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch the report: %w", err)
		}
		if reportJSON == nil {
			return nil, fmt.Errorf("no report stored for image %s", cmd.imageID.String()[:32])
		}
		return reportJSON, nil
	}

	if len(args) < 1 {
		return nil, commands.ErrArgs{Err: fmt.Errorf("no path to a report file was specified")}
	}
	if len(args) > 1 {
		return nil, commands.ErrArgs{Err: fmt.Errorf("too many parameters")}
	}
	reportJSON, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read the report '%s': %w", args[0], err)
	}
	return reportJSON, nil
}
