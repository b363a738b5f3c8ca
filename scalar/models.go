package scalar

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/scalarflux/ad"
)

// Linear is the plain upwind flux of the transported scalars, used by the
// Spalart-Allmaras family:
//
//	Flux = a0*s_i + a1*s_j,  Jacobian_i = a0*I,  Jacobian_j = a1*I
type Linear struct{}

func (m *Linear) ExtraADPreaccIn(tape ad.Tape, edge *EdgeState, idx FlowIndices) {
	tape.SetPreaccIn("Velocity_i", idx.VelocityOf(edge.V_i))
	tape.SetPreaccIn("Velocity_j", idx.VelocityOf(edge.V_j))
}

func (m *Linear) FinishResidualCalc(_ Config, st *UpwindState, res *Residual) {
	floats.ScaleTo(res.Flux, st.A0, st.Edge.Scalar_i)
	floats.AddScaled(res.Flux, st.A1, st.Edge.Scalar_j)
	if st.Implicit {
		res.Jacobian_i.SetDiag(st.A0)
		res.Jacobian_j.SetDiag(st.A1)
	}
}

// DensityWeighted convects density weighted scalars such as the SST k and
// omega or species mass fractions:
//
//	Flux = a0*rho_i*s_i + a1*rho_j*s_j
//
// The Jacobians are taken with respect to the conserved variables rho*s, so
// they are a0*I and a1*I.
type DensityWeighted struct{}

func (m *DensityWeighted) ExtraADPreaccIn(tape ad.Tape, edge *EdgeState, idx FlowIndices) {
	tape.SetPreaccIn("Velocity_i", idx.VelocityOf(edge.V_i))
	tape.SetPreaccIn("Velocity_j", idx.VelocityOf(edge.V_j))
	rho := idx.Density()
	tape.SetPreaccIn("Density_i", edge.V_i[rho:rho+1])
	tape.SetPreaccIn("Density_j", edge.V_j[rho:rho+1])
}

func (m *DensityWeighted) FinishResidualCalc(_ Config, st *UpwindState, res *Residual) {
	floats.ScaleTo(res.Flux, st.A0*st.Density_i, st.Edge.Scalar_i)
	floats.AddScaled(res.Flux, st.A1*st.Density_j, st.Edge.Scalar_j)
	if st.Implicit {
		res.Jacobian_i.SetDiag(st.A0)
		res.Jacobian_j.SetDiag(st.A1)
	}
}
