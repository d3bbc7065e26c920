package family

import (
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/scan"
)

// Van Gogh flash layout: 16 MiB SPI flash, BIOS mirrored at +8 MiB.
const vanGoghMirrorDelta = 0x800000

// vanGoghSMUMessages is the mailbox message-ID table of the Van Gogh
// SMU firmware.
var vanGoghSMUMessages = map[byte]string{
	0x01: "TestMessage",
	0x02: "GetSmuVersion",
	0x2B: "SetFastPPTLimit",
	0x2C: "SetSlowPPTLimit",
	0x3C: "SetSTAPMLimit",
	0x3E: "SetTDCLimit",
	0x40: "SetEDCLimit",
	0x42: "SetTHMLimit",
	0x43: "GetTHMLimit",
}

// vanGoghSMUResultCodes maps mailbox response codes to names.
var vanGoghSMUResultCodes = map[uint8]string{
	0x01: "OK",
	0xFB: "CmdRejectedBusy",
	0xFC: "CmdRejectedPrereq",
	0xFD: "UnknownCmd",
	0xFE: "Failed",
}

// Known sustained power limits (mW) appearing in Van Gogh power
// tables. The deep set adds values seen only in OEM-tuned variants.
var (
	vanGoghPowerLimitsMW     = []uint32{4000, 8000, 12000, 15000, 18000, 25000, 30000}
	vanGoghDeepPowerLimitsMW = []uint32{3000, 6000, 10000, 20000, 28000}
)

// vanGoghVoltageRailsMV are the board's known rail voltages.
var vanGoghVoltageRailsMV = []uint16{500, 750, 800, 900, 1000, 1050, 1100, 1150, 1200, 1350, 1500, 1800}

// Setup drivers whose file bodies carry the IFR packages.
var vanGoghSetupDriverGUIDs = []string{
	"7A9A7604-4278-4C2D-A017-52654E746368", // AmdCbsSetupDxe
	"C5B9D93B-7A5E-4B99-8B47-8E0577D1E25E", // AmdPbsSetupDxe
}

// vanGoghKeywords are the keyword sweep tables grouped by topic. The
// match-count caps keep a string-heavy image from drowning the report.
var vanGoghKeywords = []struct {
	Topic string
	Words []string
	Cap   int
}{
	{Topic: "memory-timing", Words: []string{"tCL", "tRCD", "tRFC", "DDR Timing"}, Cap: 50},
	{Topic: "power", Words: []string{"STAPM", "PPT Limit", "TDC Limit", "EDC Limit"}, Cap: 100},
	{Topic: "debug", Words: []string{"Debug Menu", "Advanced Debug"}, Cap: 100},
	{Topic: "clock", Words: []string{"FCLK", "UCLK", "GFXCLK", "SOCCLK"}, Cap: 200},
}

// KeywordCap returns the sanity cap for a keyword signature ID, or 0
// when the ID is not a keyword.
func KeywordCap(id scan.SignatureID) int {
	for _, group := range vanGoghKeywords {
		for i := range group.Words {
			if id == keywordID(group.Topic, i) {
				return group.Cap
			}
		}
	}
	return 0
}

func keywordID(topic string, idx int) scan.SignatureID {
	return scan.SignatureID(fmt.Sprintf("kw-%s-%d", topic, idx))
}

func vanGoghTables(deep bool) Tables {
	version := "vangogh-v1"
	if deep {
		version += "+deep"
	}

	sigs := []scan.Signature{
		{ID: "uefi-volume", Kind: scan.KindVolume, Pattern: scan.MustCompile("5F 46 56 48"), Context: 8},
		{ID: "spd-block", Kind: scan.KindSPD, Pattern: scan.MustCompile("23 11 13 0E"), NonOverlapping: true, Context: 32},
		{ID: "freq-run-51", Kind: scan.KindFreqTable, Pattern: scan.MustCompile("51 00 52 00 53 00"), Context: 48},
		{ID: "freq-run-59", Kind: scan.KindFreqTable, Pattern: scan.MustCompile("59 00 5A 00 5B 00"), Context: 48},
		{ID: "smu-msg", Kind: scan.KindSMU, Pattern: scan.LiteralUnits([]byte("SMU msg")), Context: 24},
		{ID: "smu-fw", Kind: scan.KindSMU, Pattern: scan.LiteralUnits([]byte("SMU FW")), Context: 24},
		{ID: "str-agesa", Kind: scan.KindString, Pattern: scan.LiteralUnits([]byte("AGESA!")), Context: 24},
		{ID: "str-abl", Kind: scan.KindString, Pattern: scan.LiteralUnits([]byte("ABL!")), Context: 24},
		{ID: "str-pmu", Kind: scan.KindString, Pattern: scan.LiteralUnits([]byte("PMU rev")), Context: 24},
		{ID: "str-vangogh", Kind: scan.KindString, Pattern: scan.LiteralUnits([]byte("VanGogh")), Context: 24},
		{ID: "guid-amd-cbs-setup-dxe", Kind: scan.KindGUID, Pattern: scan.LiteralUnits(guidBytes("7A9A7604-4278-4C2D-A017-52654E746368")), Context: 16},
		{ID: "guid-amd-pbs-setup-dxe", Kind: scan.KindGUID, Pattern: scan.LiteralUnits(guidBytes("C5B9D93B-7A5E-4B99-8B47-8E0577D1E25E")), Context: 16},
		{ID: "psp-dir", Kind: scan.KindPSP, Pattern: scan.MustCompile("24 50 53 50"), Context: 16},
		{ID: "ec-ite", Kind: scan.KindEC, Pattern: scan.LiteralUnits([]byte("ITE")), NonOverlapping: true, Context: 16},
		{ID: "ec-jupiter", Kind: scan.KindEC, Pattern: scan.LiteralUnits([]byte("Jupiter")), NonOverlapping: true, Context: 16},
		{ID: "ratio-1-1", Kind: scan.KindRatio, Pattern: scan.MustCompile("01 00 01 00"), Context: 4},
		{ID: "ratio-1-2", Kind: scan.KindRatio, Pattern: scan.MustCompile("01 00 02 00"), Context: 4},
		{ID: "ratio-2-1", Kind: scan.KindRatio, Pattern: scan.MustCompile("02 00 01 00"), Context: 4},
		{ID: "nvram-var", Kind: scan.KindNVRAM, Pattern: scan.MustCompile("07 00 00 00"), Context: 8},
	}

	powerValues := vanGoghPowerLimitsMW
	if deep {
		powerValues = append(append([]uint32(nil), powerValues...), vanGoghDeepPowerLimitsMW...)
	}
	powerLabels := make(map[uint32]string, len(powerValues))
	for _, mw := range powerValues {
		powerLabels[mw] = fmt.Sprintf("%dW sustained power limit", mw/1000)
		sigs = append(sigs, scan.Signature{
			ID:      scan.SignatureID(fmt.Sprintf("power-%dmw", mw)),
			Kind:    scan.KindPowerLimit,
			Pattern: scan.LiteralUnits(binary.LittleEndian.AppendUint32(nil, mw)),
			Context: 4,
		})
	}

	for _, group := range vanGoghKeywords {
		for i, word := range group.Words {
			sigs = append(sigs, scan.Signature{
				ID:      keywordID(group.Topic, i),
				Kind:    scan.KindKeyword,
				Pattern: scan.LiteralUnits([]byte(word)),
				Context: 16,
			})
		}
	}

	return Tables{
		Family:     FamilyVanGogh,
		Layout:     image.Layout{MirrorDelta: vanGoghMirrorDelta},
		Signatures: scan.MustNewSet(version, sigs),
		Decoders: decode.MustNewRegistry(
			decode.SPDDecoder{},
			decode.FrequencyTableDecoder{},
			decode.NewPowerLimitDecoder(powerLabels),
			decode.NewVoltageTableDecoder(vanGoghVoltageRailsMV),
			decode.TimingTableDecoder{},
			decode.NewSmuCommandTableDecoder(vanGoghSMUMessages),
			decode.DpmTableDecoder{},
		),
		SetupDriverGUIDs: vanGoghSetupDriverGUIDs,
		SMUResultCodes:   vanGoghSMUResultCodes,
	}
}

// guidBytes renders a canonical GUID string into its mixed-endian
// in-firmware byte form.
func guidBytes(s string) []byte {
	var d1 uint32
	var d2, d3 uint16
	var d4 [2]byte
	var d5 [6]byte
	_, err := fmt.Sscanf(s, "%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		&d1, &d2, &d3, &d4[0], &d4[1], &d5[0], &d5[1], &d5[2], &d5[3], &d5[4], &d5[5])
	if err != nil {
		panic(fmt.Sprintf("malformed GUID '%s': %v", s, err))
	}
	out := make([]byte, 0, 16)
	out = binary.LittleEndian.AppendUint32(out, d1)
	out = binary.LittleEndian.AppendUint16(out, d2)
	out = binary.LittleEndian.AppendUint16(out, d3)
	out = append(out, d4[:]...)
	return append(out, d5[:]...)
}
