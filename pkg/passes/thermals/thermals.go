// Package thermals locates fan curves and thermal limit tables.
package thermals

import (
	"context"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the thermal analysis pass.
const ID = analysis.PassID("thermals")

// Fan curve shape: 8 interleaved (temperature, speed) byte pairs.
// Temperatures ascend inside the plausible band with a real spread;
// speeds are either percentages or raw PWM duty bytes.
const (
	fanCurvePairs    = 8
	fanCurveBytes    = fanCurvePairs * 2
	fanTempMin       = 30
	fanTempMax       = 105
	fanFirstTempMin  = 35
	fanLastTempMax   = 100
	fanMinSpread     = 20
	fanSpeedPctMax   = 100
	fanSpeedPWMMin   = 200
	fanSpeedPWMMax   = 255
	thermalTableMin  = 4
	thermalLimitLow  = 40
	thermalLimitHigh = 110
	maxPerCategory   = 48
)

// Pass locates thermal structures.
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
		reg, err := in.Image.Region(region)
		if err != nil {
			continue
		}
		data, err := in.Image.RegionBytes(region)
		if err != nil {
			continue
		}
		p.sweepFanCurves(res, region, reg.Start, data)
		p.sweepThermalLimits(res, region, reg.Start, data)
	}
	return res, nil
}

func (p *Pass) sweepFanCurves(res *analysis.Result, region image.RegionName, base uint64, data []byte) {
	found := 0
	for off := 0; off+fanCurveBytes <= len(data) && found < maxPerCategory; off++ {
		if !isFanCurve(data[off : off+fanCurveBytes]) {
			continue
		}
		found++
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMatch,
			Confidence:  report.ConfidenceHeuristic,
			Description: fmt.Sprintf("fan curve candidate (%d points)", fanCurvePairs),
			Region:      region,
			Offset:      base + uint64(off),
			Match: &scan.Match{
				Signature: "fan-curve",
				Kind:      scan.KindThermal,
				Region:    region,
				Offset:    base + uint64(off),
				Context:   append([]byte(nil), data[off:off+fanCurveBytes]...),
			},
		})
		off += fanCurveBytes - 1
	}
}

// isFanCurve checks the interleaved temperature/speed shape.
func isFanCurve(raw []byte) bool {
	prevTemp := byte(0)
	allPct, allPWM := true, true
	for i := 0; i < fanCurvePairs; i++ {
		temp, speed := raw[2*i], raw[2*i+1]
		if temp < fanTempMin || temp > fanTempMax || temp < prevTemp {
			return false
		}
		prevTemp = temp
		if speed > fanSpeedPctMax {
			allPct = false
		}
		if speed < fanSpeedPWMMin || speed > fanSpeedPWMMax {
			allPWM = false
		}
	}
	first, last := raw[0], raw[2*(fanCurvePairs-1)]
	if first < fanFirstTempMin || last > fanLastTempMax || last-first < fanMinSpread {
		return false
	}
	return allPct || allPWM
}

func (p *Pass) sweepThermalLimits(res *analysis.Result, region image.RegionName, base uint64, data []byte) {
	found := 0
	for off := 0; off+thermalTableMin <= len(data) && found < maxPerCategory; off++ {
		length, ok := thermalLimitRun(data[off:])
		if !ok {
			continue
		}
		found++
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMatch,
			Confidence:  report.ConfidenceHeuristic,
			Description: fmt.Sprintf("thermal limit table candidate, %d entries", length),
			Region:      region,
			Offset:      base + uint64(off),
			Match: &scan.Match{
				Signature: "thermal-limit-table",
				Kind:      scan.KindThermal,
				Region:    region,
				Offset:    base + uint64(off),
				Context:   append([]byte(nil), data[off:off+length]...),
			},
		})
		off += length - 1
	}
}

// thermalLimitRun accepts a run of at least four in-band bytes that
// mostly ascend (one dip tolerated) and contain a known trip point
// (85, 95 or 100 degrees).
func thermalLimitRun(data []byte) (int, bool) {
	length := 0
	dips := 0
	hasTripPoint := false
	for i := 0; i < len(data) && i < 16; i++ {
		v := data[i]
		if v < thermalLimitLow || v > thermalLimitHigh {
			break
		}
		if i > 0 && v < data[i-1] {
			dips++
		}
		if v == 85 || v == 95 || v == 100 {
			hasTripPoint = true
		}
		length++
	}
	if length < thermalTableMin || dips > 1 || !hasTripPoint {
		return 0, false
	}
	return length, true
}
