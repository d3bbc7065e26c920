// Package passes provides access to all built-in analysis passes.
package passes

import (
	"fmt"

	"github.com/fwscope/fwscope/pkg/analysis"
	"github.com/fwscope/fwscope/pkg/family"
	"github.com/fwscope/fwscope/pkg/passes/deep"
	"github.com/fwscope/fwscope/pkg/passes/dpm"
	"github.com/fwscope/fwscope/pkg/passes/ec"
	"github.com/fwscope/fwscope/pkg/passes/freqtables"
	"github.com/fwscope/fwscope/pkg/passes/guids"
	"github.com/fwscope/fwscope/pkg/passes/ifrmenus"
	"github.com/fwscope/fwscope/pkg/passes/numerics"
	"github.com/fwscope/fwscope/pkg/passes/nvram"
	"github.com/fwscope/fwscope/pkg/passes/powerlimits"
	"github.com/fwscope/fwscope/pkg/passes/psp"
	"github.com/fwscope/fwscope/pkg/passes/ratios"
	"github.com/fwscope/fwscope/pkg/passes/smu"
	"github.com/fwscope/fwscope/pkg/passes/spd"
	"github.com/fwscope/fwscope/pkg/passes/thermals"
	"github.com/fwscope/fwscope/pkg/passes/vendorstrings"
	"github.com/fwscope/fwscope/pkg/passes/volumes"
)

// Registry holds registered passes in registration order. The order
// is part of the report format: pass results appear in it.
type Registry struct {
	order []analysis.Pass
	byID  map[analysis.PassID]analysis.Pass
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[analysis.PassID]analysis.Pass),
	}
}

// Add registers the provided pass.
func (r *Registry) Add(pass analysis.Pass) error {
	if pass == nil {
		return fmt.Errorf("pass should not be nil")
	}
	id := pass.ID()
	if len(id) == 0 {
		return fmt.Errorf("empty pass id")
	}
	if _, found := r.byID[id]; found {
		return fmt.Errorf("pass with id '%s' is already registered", id)
	}
	r.byID[id] = pass
	r.order = append(r.order, pass)
	return nil
}

// Get returns the registered pass by id, or nil.
func (r *Registry) Get(id analysis.PassID) analysis.Pass {
	return r.byID[id]
}

// IDs returns the ids of all registered passes in registration order.
func (r *Registry) IDs() []analysis.PassID {
	result := make([]analysis.PassID, 0, len(r.order))
	for _, pass := range r.order {
		result = append(result, pass.ID())
	}
	return result
}

// All returns all registered passes in registration order.
func (r *Registry) All() []analysis.Pass {
	return append([]analysis.Pass(nil), r.order...)
}

// NewRegistryWithKnownPasses creates a new Registry instance and
// registers every built-in pass, parameterized for the given hardware
// family.
func NewRegistryWithKnownPasses(tables family.Tables) (*Registry, error) {
	r := NewRegistry()
	for _, pass := range []analysis.Pass{
		volumes.New(),
		spd.New(),
		freqtables.New(),
		powerlimits.New(),
		smu.New(),
		vendorstrings.New(),
		guids.New(),
		numerics.New(),
		psp.New(),
		ec.New(),
		deep.New(),
		thermals.New(),
		ratios.New(),
		nvram.New(),
		dpm.New(),
		ifrmenus.New(tables),
	} {
		if err := r.Add(pass); err != nil {
			return nil, err
		}
	}
	return r, nil
}
