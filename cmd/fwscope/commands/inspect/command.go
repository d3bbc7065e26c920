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

package inspect

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/fwscope/fwscope/pkg/commands"
	"github.com/fwscope/fwscope/pkg/dmidecode"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/scan"
)

// Command is the implementation of `commands.Command`.
type Command struct {
	family *string
}

// Usage prints the syntax of arguments for this command
func (cmd Command) Usage() string {
	return "<path to the image>"
}

// Description explains what this verb commands to do
func (cmd Command) Description() string {
	return "display regions, firmware volumes and BIOS identity of an image without analyzing it"
}

// SetupFlagSet is called to allow the command implementation
// to setup which option flags it has.
func (cmd *Command) SetupFlagSet(flag *flag.FlagSet) {
	cmd.family = flag.String("family", "auto", "hardware family of the image; 'auto' detects from the host CPU")
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

	fam := family.Family(*cmd.family)
	if *cmd.family == "auto" {
		fam = family.Detect()
		if fam == family.FamilyUnknown {
			return commands.ErrArgs{Err: fmt.Errorf("unable to detect the hardware family of this host, pass -family explicitly (one of: %v)", family.Known())}
		}
	}
	tables, err := family.TablesFor(fam, false)
	if err != nil {
		return commands.ErrArgs{Err: err}
	}

	img, err := image.Load(imagePath, tables.Layout)
	if err != nil {
		return fmt.Errorf("unable to load the firmware image: %w", err)
	}

	fmt.Printf("image: %s, %d bytes, ID %s\n", imagePath, img.Size(), img.ID().String()[:32])
	for _, region := range img.Regions() {
		fmt.Printf("region %-8s 0x%X..0x%X (%d bytes)\n", region.Name, region.Start, region.End(), region.Length)
	}

	for _, region := range img.Regions() {
		matches := tables.Signatures.Scan(img, region.Name)
		volumes := 0
		for _, m := range matches {
			if m.Kind == scan.KindVolume {
				volumes++
			}
		}
		fmt.Printf("region %-8s %d firmware volume markers\n", region.Name, volumes)
	}

	dmiTable, err := dmidecode.DMITableFromFirmwareImage(img.Bytes())
	if err != nil {
		// A stripped or non-UEFI image has no SMBIOS static data; the
		// regions above are still worth printing.
		logger.FromCtx(ctx).Debugf("unable to extract SMBIOS data: %v", err)
		fmt.Printf("BIOS identity: not available\n")
		return nil
	}

	b, err := json.Marshal(dmiTable.BIOSInfo())
	if err != nil {
		return fmt.Errorf("unable to serialize BIOSInfo: %w", err)
	}
	fmt.Printf("BIOS identity: %s\n", b)

	return nil
}
