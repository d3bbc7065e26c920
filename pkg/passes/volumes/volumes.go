// Package volumes discovers UEFI firmware volumes by their header
// signature and cross-checks them against the filesystem parse.
package volumes

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/linuxboot/fiano/pkg/guid"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/ifr"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
	"github.com/fwscope/fwscope/pkg/uefi"
)

// ID is the unique id of the UEFI volume discovery pass.
const ID = analysis.PassID("volumes")

// The `_FVH` signature sits 40 bytes into the volume header; the
// total volume length is a u64 at header+0x20 and the filesystem GUID
// occupies the first 16 header bytes.
const (
	signatureOffsetInHeader = 40
	lengthOffsetInHeader    = 0x20
	headerReadLength        = 0x30
)

// Pass discovers UEFI volumes.
type Pass struct{}

// New returns a new instance of the pass.
func New() analysis.Pass {
	return &Pass{}
}

// ID implements analysis.Pass.
func (*Pass) ID() analysis.PassID {
	return ID
}

// Analyze implements analysis.Pass.
func (p *Pass) Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error) {
	res := &analysis.Result{}

	fw, fwErr := in.Shared.UEFI(ctx, in.Image)
	if fwErr != nil {
		res.AddDiagnostic(report.Diagnostic{
			Source:  string(ID),
			Message: fwErr.Error(),
		})
	}

	for _, region := range in.Regions() {
		reg, err := in.Image.Region(region)
		if err != nil {
			continue
		}
		for _, m := range in.Matches(ctx, region, scan.KindVolume) {
			if m.Offset < reg.Start+signatureOffsetInHeader {
				continue
			}
			headerStart := m.Offset - signatureOffsetInHeader
			header, err := in.Image.BytesAt(region, headerStart, headerReadLength)
			if err != nil {
				continue
			}
			volumeLength := binary.LittleEndian.Uint64(header[lengthOffsetInHeader:])
			if volumeLength == 0 || headerStart+volumeLength > reg.End() {
				continue
			}
			volumeGUID := ifr.GUIDString(header[:16])

			m := m
			finding := report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceProbable,
				Description: describeVolume(volumeGUID, volumeLength),
				Region:      region,
				Offset:      headerStart,
				Match:       &m,
			}
			if fwErr == nil && confirmedByFilesystem(ctx, fw, volumeGUID) {
				finding.Confidence = report.ConfidenceCertain
			}
			res.AddFinding(finding)
		}
	}
	return res, nil
}

func describeVolume(volumeGUID string, length uint64) string {
	if volumeGUID == "" {
		return fmt.Sprintf("UEFI volume without a filesystem GUID (0x%X bytes)", length)
	}
	return fmt.Sprintf("UEFI volume %s (0x%X bytes)", volumeGUID, length)
}

// confirmedByFilesystem reports whether the filesystem walk knows a
// node with the volume's GUID.
func confirmedByFilesystem(ctx context.Context, fw *uefi.UEFI, volumeGUID string) bool {
	parsed, err := guid.Parse(volumeGUID)
	if err != nil {
		return false
	}
	nodes, err := fw.GetByGUID(*parsed)
	if err != nil {
		logger.FromCtx(ctx).Debugf("unable to look up volume GUID %s: %v", volumeGUID, err)
		return false
	}
	return len(nodes) > 0
}
