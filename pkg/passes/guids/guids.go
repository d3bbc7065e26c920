// Package guids locates the known setup-driver file GUIDs by their
// in-firmware byte pattern.
package guids

import (
	"context"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the GUID analysis pass.
const ID = analysis.PassID("guids")

// driverNames maps signature IDs to the driver names they stand for.
var driverNames = map[scan.SignatureID]string{
	"guid-amd-cbs-setup-dxe": "AmdCbsSetupDxe",
	"guid-amd-pbs-setup-dxe": "AmdPbsSetupDxe",
}

// Pass locates known setup-driver GUIDs.
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

	for _, region := range in.Regions() {
		for _, m := range in.Matches(ctx, region, scan.KindGUID) {
			name := driverNames[m.Signature]
			if name == "" {
				name = string(m.Signature)
			}
			m := m
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingMatch,
				Confidence:  report.ConfidenceProbable,
				Description: fmt.Sprintf("setup driver %s", name),
				Region:      region,
				Offset:      m.Offset,
				Match:       &m,
			})
		}
	}
	return res, nil
}
