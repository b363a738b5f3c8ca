// Package scalar computes upwind convective fluxes of transported scalars
// (turbulence closures, species) across the face between two control
// volumes, together with the flux Jacobians for implicit integration.
//
// The skeleton shared by every model lives in Upwind: it brackets the
// computation on a differentiation tape, splits the face-normal convective
// speed and leaves the flux formula to a ResidualModel. An Upwind owns its
// result buffers and is meant to be used by one goroutine at a time; run one
// per worker, each with its own tape.
package scalar

import (
	"fmt"

	"github.com/notargets/scalarflux/ad"
)

type Upwind struct {
	NDim, NVar  int
	Implicit    bool
	Regime      Regime
	DynamicGrid bool
	Idx         FlowIndices
	Model       ResidualModel
	Tape        ad.Tape
	st          UpwindState
	res         *Residual
	view        ResidualView // Read only aliases of res, stamped per call
	generation  uint64
}

// NewUpwind builds the engine for a fixed problem size. Dimension and model
// problems are reported here, before any edge is evaluated.
func NewUpwind(nDim, nVar int, cfg Config, model ResidualModel, tape ad.Tape) (c *Upwind, err error) {
	if err = CheckDims(nDim, nVar); err != nil {
		return
	}
	switch {
	case cfg == nil:
		err = fmt.Errorf("no configuration: %w", ErrConfiguration)
	case model == nil:
		err = fmt.Errorf("no residual model: %w", ErrUnknownModel)
	}
	if err != nil {
		return
	}
	if tape == nil {
		tape = ad.NewPassive()
	}
	c = &Upwind{
		NDim:        nDim,
		NVar:        nVar,
		Implicit:    Implicit(cfg),
		Regime:      cfg.Regime(),
		DynamicGrid: cfg.DynamicGrid(),
		Idx:         NewFlowIndices(nDim, cfg.Regime()),
		Model:       model,
		Tape:        tape,
		res:         newResidual(nVar),
	}
	c.view = newResidualView(c)
	return
}

// NewUpwindModel is NewUpwind with the model chosen by name.
func NewUpwindModel(label string, nDim, nVar int, cfg Config, tape ad.Tape) (c *Upwind, err error) {
	var m ResidualModel
	if m, err = NewModel(label, nDim, nVar, cfg); err != nil {
		return
	}
	return NewUpwind(nDim, nVar, cfg, m, tape)
}

// ComputeResidual evaluates the upwind flux across the face described by
// edge. The returned view aliases the engine buffers and is invalidated by
// the next call.
func (c *Upwind) ComputeResidual(cfg Config, edge *EdgeState) (rv ResidualView, err error) {
	if err = edge.Check(c.NDim, c.NVar, c.DynamicGrid); err != nil {
		return
	}
	if err = c.Tape.StartPreacc(); err != nil {
		return
	}
	c.Tape.SetPreaccIn("Normal", edge.Normal)
	c.Tape.SetPreaccIn("Scalar_i", edge.Scalar_i)
	c.Tape.SetPreaccIn("Scalar_j", edge.Scalar_j)
	if c.DynamicGrid {
		c.Tape.SetPreaccIn("GridVel_i", edge.GridVel_i)
		c.Tape.SetPreaccIn("GridVel_j", edge.GridVel_j)
	}

	c.Model.ExtraADPreaccIn(c.Tape, edge, c.Idx)

	kernel := func() {
		c.upwind(cfg, edge)
	}
	kernel()

	c.Tape.SetPreaccOut("Flux", c.res.Flux)
	if err = c.Tape.EndPreacc(kernel); err != nil {
		return
	}
	c.generation++
	rv = c.view
	rv.generation = c.generation
	return
}

func (c *Upwind) upwind(cfg Config, edge *EdgeState) {
	var (
		rho = c.Idx.Density()
		q   = ConvectiveSpeed(edge.Normal,
			c.Idx.VelocityOf(edge.V_i), c.Idx.VelocityOf(edge.V_j),
			edge.GridVel_i, edge.GridVel_j, c.DynamicGrid)
	)
	c.st.A0, c.st.A1 = UpwindSplit(q)
	c.st.Density_i, c.st.Density_j = edge.V_i[rho], edge.V_j[rho]
	c.st.Implicit = c.Implicit
	c.st.Edge = edge
	c.res.zero()
	c.Model.FinishResidualCalc(cfg, &c.st, c.res)
	c.st.Edge = nil
}

// Split returns the coefficients of the most recent computation.
func (c *Upwind) Split() (a0, a1 float64) { return c.st.A0, c.st.A1 }
