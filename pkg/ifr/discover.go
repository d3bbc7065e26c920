package ifr

import (
	"encoding/binary"
	"fmt"

	"github.com/fwscope/fwscope/pkg/image"
)

// Package is one independently parsed IFR opcode stream. A broken
// package keeps its partial tree; the break reason lands in
// Diagnostics.
type Package struct {
	Source      string           `json:"source"`
	Region      image.RegionName `json:"region"`
	Base        uint64           `json:"base"`
	Root        *Node            `json:"root"`
	Diagnostics []Diagnostic     `json:"diagnostics,omitempty"`
}

// Source is an extra byte span to parse for packages, typically a
// setup-driver file body located through the UEFI filesystem walk.
type Source struct {
	Name string
	Base uint64
	Data []byte
}

// A raw FormSet candidate is parsed inside a bounded window; the
// parser stops at the FormSet scope end anyway, the cap only bounds
// work on false positives.
const maxPackageWindow = 0x20000

// formSetMinLength is header + guid + title + help, the smallest
// EFI_IFR_FORM_SET can be.
const formSetMinLength = 2 + 16 + 2 + 2

// FindPackages discovers and parses IFR packages in a region. Two
// candidate sources are combined: a raw scan for plausible FormSet
// headers (catches packages the filesystem walk cannot reach), and the
// explicitly provided driver bodies (catch compressed packages the raw
// scan cannot see). Overlapping candidates are collapsed to the
// earliest start.
func FindPackages(img *image.Image, region image.RegionName, extra ...Source) []Package {
	var pkgs []Package

	data, err := img.RegionBytes(region)
	if err == nil {
		for _, off := range ScanFormSets(data) {
			window := data[off:]
			if len(window) > maxPackageWindow {
				window = window[:maxPackageWindow]
			}
			reg, regErr := img.Region(region)
			base := uint64(off)
			if regErr == nil {
				base += reg.Start
			}
			pkgs = append(pkgs, parseOne("raw-scan", region, base, window))
		}
		pkgs = dedupOverlapping(pkgs)
	}

	for _, src := range extra {
		for _, off := range ScanFormSets(src.Data) {
			window := src.Data[off:]
			if len(window) > maxPackageWindow {
				window = window[:maxPackageWindow]
			}
			pkgs = append(pkgs, parseOne(src.Name, region, src.Base+uint64(off), window))
		}
	}

	return pkgs
}

// ScanFormSets returns the offsets of plausible FormSet opcode headers
// in data: FormSet opcode, scope bit set, declared length that both
// fits the minimal FormSet layout and the 7-bit field.
func ScanFormSets(data []byte) []int {
	var out []int
	for i := 0; i+formSetMinLength <= len(data); i++ {
		if Opcode(data[i]) != OpFormSet {
			continue
		}
		lb := data[i+1]
		if lb&0x80 == 0 {
			continue
		}
		if int(lb&0x7F) < formSetMinLength {
			continue
		}
		out = append(out, i)
	}
	return out
}

func parseOne(source string, region image.RegionName, base uint64, data []byte) Package {
	root, diags, err := ParsePackage(data, base)
	if err != nil {
		diags = append(diags, Diagnostic{Offset: base, Message: err.Error()})
	}
	return Package{
		Source:      source,
		Region:      region,
		Base:        base,
		Root:        root,
		Diagnostics: diags,
	}
}

// dedupOverlapping keeps the earliest package of every overlapping
// run. Candidates are already in ascending base order.
func dedupOverlapping(pkgs []Package) []Package {
	var out []Package
	var coveredUntil uint64
	for _, pkg := range pkgs {
		if len(out) > 0 && pkg.Base < coveredUntil {
			continue
		}
		out = append(out, pkg)
		coveredUntil = pkg.Base + treeSpan(pkg.Root)
	}
	return out
}

// treeSpan is the byte distance from the package base to the end of
// its last parsed opcode.
func treeSpan(root *Node) uint64 {
	var end uint64
	root.Walk(func(n *Node) {
		if n.Length == 0 {
			return
		}
		if nodeEnd := n.Offset + uint64(n.Length); nodeEnd > end {
			end = nodeEnd
		}
	})
	if end <= root.Offset {
		return 0
	}
	return end - root.Offset
}

// GUIDString renders an IFR FormSet GUID (first 16 payload bytes) in
// the canonical mixed-endian text form.
func GUIDString(payload []byte) string {
	if len(payload) < 16 {
		return ""
	}
	return fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
		binary.LittleEndian.Uint32(payload[0:]),
		binary.LittleEndian.Uint16(payload[4:]),
		binary.LittleEndian.Uint16(payload[6:]),
		binary.BigEndian.Uint16(payload[8:]),
		payload[10:16],
	)
}
