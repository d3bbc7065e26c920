// Package family selects the hardware-family tables (flash layout,
// signature set, decoder registry) the engine is handed. The engine
// itself is family-agnostic; everything family-specific lives here.
package family

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/fwscope/fwscope/pkg/decode"
	"github.com/fwscope/fwscope/pkg/image"
	"github.com/fwscope/fwscope/pkg/scan"
)

// Family is a supported hardware family.
type Family string

const (
	// FamilyVanGogh is the AMD Van Gogh APU platform (16 MiB flash
	// with a mirrored BIOS copy).
	FamilyVanGogh = Family("vangogh")
	// FamilyUnknown means autodetection failed; the caller must pick
	// explicitly.
	FamilyUnknown = Family("unknown")
)

// Tables is everything per-family the engine consumes.
type Tables struct {
	Family     Family
	Layout     image.Layout
	Signatures scan.Set
	Decoders   decode.Registry

	// SetupDriverGUIDs are the firmware files whose bodies carry the
	// setup IFR packages.
	SetupDriverGUIDs []string
	// SMUResultCodes maps mailbox result codes to names, for rendering.
	SMUResultCodes map[uint8]string
}

// ErrUnknownFamily means no tables exist for the requested family.
type ErrUnknownFamily struct {
	Family Family
}

func (err ErrUnknownFamily) Error() string {
	return fmt.Sprintf("no tables for hardware family '%s'", err.Family)
}

// vanGoghCPUFamily is the AMD family/model reported by Van Gogh APUs.
const (
	vanGoghCPUFamily = 0x17
	vanGoghCPUModel  = 0x90
)

// Detect guesses the family from the host CPU. Only useful when
// analyzing the firmware of the machine the tool runs on; an explicit
// family flag always wins.
func Detect() Family {
	if cpuid.CPU.VendorID != cpuid.AMD {
		return FamilyUnknown
	}
	if cpuid.CPU.Family == vanGoghCPUFamily && cpuid.CPU.Model == vanGoghCPUModel {
		return FamilyVanGogh
	}
	return FamilyUnknown
}

// TablesFor returns the tables of a family. deep additionally enables
// the low-signal signatures (extra power limits, keyword sweeps) that
// produce more candidates at lower confidence.
func TablesFor(f Family, deep bool) (Tables, error) {
	switch f {
	case FamilyVanGogh:
		return vanGoghTables(deep), nil
	}
	return Tables{}, ErrUnknownFamily{Family: f}
}

// Known returns every family with built-in tables.
func Known() []Family {
	return []Family{FamilyVanGogh}
}
