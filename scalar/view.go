package scalar

import (
	"github.com/notargets/scalarflux/utils"
)

// ResidualView is a read-only window onto an engine's flux and Jacobians.
// Writing through it panics, and it goes stale once the engine computes
// again; Copy what must survive.
type ResidualView struct {
	flux                   utils.Vector
	jacobian_i, jacobian_j utils.Matrix
	generation             uint64
	owner                  *Upwind
}

func newResidualView(c *Upwind) ResidualView {
	return ResidualView{
		flux:       utils.NewVector(c.NVar, c.res.Flux).ReadOnlyView("Flux"),
		jacobian_i: c.res.Jacobian_i.ReadOnlyView("Jacobian_i"),
		jacobian_j: c.res.Jacobian_j.ReadOnlyView("Jacobian_j"),
		generation: c.generation,
		owner:      c,
	}
}

func (rv ResidualView) Flux() utils.Vector       { return rv.flux }
func (rv ResidualView) Jacobian_i() utils.Matrix { return rv.jacobian_i }
func (rv ResidualView) Jacobian_j() utils.Matrix { return rv.jacobian_j }

// Valid reports whether the view still reflects its engine's buffers.
func (rv ResidualView) Valid() bool {
	return rv.owner != nil && rv.owner.generation == rv.generation
}

// Copy returns an owned Residual that later computations do not touch.
func (rv ResidualView) Copy() (r Residual) {
	r = Residual{
		Flux:       append([]float64(nil), rv.flux.Data()...),
		Jacobian_i: rv.jacobian_i.Copy(),
		Jacobian_j: rv.jacobian_j.Copy(),
	}
	return
}
