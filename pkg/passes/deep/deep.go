// Package deep runs the low-signal sweeps: GPU P-state tables, rail
// voltage runs, memory timing candidates near SPD blocks, and signed
// voltage-offset tables. Confidence never exceeds Probable here, and
// only a decoder hit reaches even that.
package deep

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/report"
	"github.com/fwscope/fwscope/pkg/scan"
)

// ID is the unique id of the deep analysis pass.
const ID = analysis.PassID("deep")

const (
	pstateFreqMin    = 200
	pstateFreqMax    = 1800
	pstateVoltMin    = 600
	pstateVoltMax    = 1400
	pstateMinEntries = 3

	voltOffsetMin        = -200
	voltOffsetMax        = 200
	voltOffsetMinEntries = 4

	// Timing candidates are only meaningful close to an SPD block.
	timingSearchWindow = 0x200

	maxPerCategory = 64
)

// Pass runs the deep sweeps.
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

		p.sweepPStates(res, region, reg.Start, data)
		p.sweepVoltageTables(in, res, region, reg.Start, data)
		p.sweepTimings(ctx, in, res, region)
		p.sweepVoltageOffsets(res, region, reg.Start, data)
	}
	return res, nil
}

// sweepPStates finds runs of (frequency MHz, voltage mV) u32 pairs
// with ascending frequencies.
func (p *Pass) sweepPStates(res *analysis.Result, region image.RegionName, base uint64, data []byte) {
	found := 0
	for off := 0; off+pstateMinEntries*8 <= len(data) && found < maxPerCategory; off += 4 {
		entries := 0
		prevFreq := uint32(0)
		for i := off; i+8 <= len(data); i += 8 {
			freq := binary.LittleEndian.Uint32(data[i:])
			volt := binary.LittleEndian.Uint32(data[i+4:])
			if freq < pstateFreqMin || freq > pstateFreqMax || volt < pstateVoltMin || volt > pstateVoltMax || freq <= prevFreq {
				break
			}
			prevFreq = freq
			entries++
		}
		if entries < pstateMinEntries {
			continue
		}
		found++
		span := entries * 8
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMatch,
			Confidence:  report.ConfidenceHeuristic,
			Description: fmt.Sprintf("GPU P-state table candidate, %d states", entries),
			Region:      region,
			Offset:      base + uint64(off),
			Match: &scan.Match{
				Signature: "gpu-pstate-table",
				Kind:      scan.KindNumeric,
				Region:    region,
				Offset:    base + uint64(off),
				Context:   append([]byte(nil), data[off:off+span]...),
			},
		})
		off += span - 4
	}
}

// sweepVoltageTables tries the rail-voltage decoder across the region.
func (p *Pass) sweepVoltageTables(in analysis.Input, res *analysis.Result, region image.RegionName, base uint64, data []byte) {
	decoder, haveDecoder := in.Decoders.Get(decode.StructVoltageTable)
	if !haveDecoder {
		return
	}
	found := 0
	for off := 0; off < len(data) && found < maxPerCategory; off += 4 {
		inst, err := decoder.Decode(data[off:], base+uint64(off), region)
		if err != nil {
			continue
		}
		found++
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingStructure,
			Confidence:  report.ConfidenceProbable,
			Description: inst.Describe(),
			Region:      region,
			Offset:      base + uint64(off),
			Instance:    inst,
		})
		if len(inst.Raw) > 4 {
			off += len(inst.Raw) - 4
		}
	}
}

// sweepTimings tries the timing decoder in the window after each SPD
// block; timing quadruples are too common to sweep blindly.
func (p *Pass) sweepTimings(ctx context.Context, in analysis.Input, res *analysis.Result, region image.RegionName) {
	decoder, haveDecoder := in.Decoders.Get(decode.StructTimingTable)
	if !haveDecoder {
		return
	}
	for _, m := range in.Matches(ctx, region, scan.KindSPD) {
		for delta := uint64(32); delta < timingSearchWindow; delta += 4 {
			offset := m.Offset + delta
			raw := in.TailBytes(region, offset)
			if raw == nil {
				break
			}
			inst, err := decoder.Decode(raw, offset, region)
			if err != nil {
				continue
			}
			res.AddFinding(report.Finding{
				Pass:        ID,
				Kind:        report.FindingStructure,
				Confidence:  report.ConfidenceHeuristic,
				Description: inst.Describe(),
				Region:      region,
				Offset:      offset,
				Instance:    inst,
			})
			break
		}
	}
}

// sweepVoltageOffsets finds i16 runs inside the offset band with a
// sign mix and a zero entry: the shape of per-rail trim tables.
func (p *Pass) sweepVoltageOffsets(res *analysis.Result, region image.RegionName, base uint64, data []byte) {
	found := 0
	for off := 0; off+voltOffsetMinEntries*2 <= len(data) && found < maxPerCategory; off += 2 {
		entries := 0
		hasNegative, hasPositive, hasZero := false, false, false
		for i := off; i+2 <= len(data); i += 2 {
			v := int16(binary.LittleEndian.Uint16(data[i:]))
			if v < voltOffsetMin || v > voltOffsetMax {
				break
			}
			switch {
			case v < 0:
				hasNegative = true
			case v > 0:
				hasPositive = true
			default:
				hasZero = true
			}
			entries++
			if entries == 16 {
				break
			}
		}
		if entries < voltOffsetMinEntries || !hasNegative || !hasPositive || !hasZero {
			continue
		}
		found++
		span := entries * 2
		res.AddFinding(report.Finding{
			Pass:        ID,
			Kind:        report.FindingMatch,
			Confidence:  report.ConfidenceHeuristic,
			Description: fmt.Sprintf("voltage offset table candidate, %d entries", entries),
			Region:      region,
			Offset:      base + uint64(off),
			Match: &scan.Match{
				Signature: "voltage-offset-table",
				Kind:      scan.KindVoltageOffset,
				Region:    region,
				Offset:    base + uint64(off),
				Context:   append([]byte(nil), data[off:off+span]...),
			},
		})
		off += span - 2
	}
}
