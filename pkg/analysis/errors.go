package analysis

import (
	"fmt"

	"github.com/fwscope/fwscope/pkg/image"
)

// ErrSetup means the engine could not even be constructed (for
// example the derived-data cache).
type ErrSetup struct {
	Err error
}

func (err ErrSetup) Error() string {
	return fmt.Sprintf("unable to set up the analysis engine: %v", err.Err)
}

// Unwrap implements errors.Unwrap.
func (err ErrSetup) Unwrap() error {
	return err.Err
}

// ErrPass means a pass failed or panicked; the rest of the run is
// unaffected.
type ErrPass struct {
	PassID PassID
	Err    error
}

func (err ErrPass) Error() string {
	return fmt.Sprintf("pass '%s' failed: %v", err.PassID, err.Err)
}

// Unwrap implements errors.Unwrap.
func (err ErrPass) Unwrap() error {
	return err.Err
}

// ErrCalculate means a shared derived value could not be computed.
type ErrCalculate struct {
	What   string
	Region image.RegionName
	Err    error
}

func (err ErrCalculate) Error() string {
	if err.Region != "" {
		return fmt.Sprintf("unable to calculate %s for region '%s': %v", err.What, err.Region, err.Err)
	}
	return fmt.Sprintf("unable to calculate %s: %v", err.What, err.Err)
}

// Unwrap implements errors.Unwrap.
func (err ErrCalculate) Unwrap() error {
	return err.Err
}
