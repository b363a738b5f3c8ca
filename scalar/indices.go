package scalar

// FlowIndices locates quantities inside a primitive flow state vector.
//
//	compressible:   [T, u_1..u_nDim, P, rho, ...]
//	incompressible: [P, u_1..u_nDim, T, rho, ...]
type FlowIndices struct {
	nDim   int
	regime Regime
}

func NewFlowIndices(nDim int, regime Regime) FlowIndices {
	return FlowIndices{nDim: nDim, regime: regime}
}

func (fi FlowIndices) NDim() int     { return fi.nDim }
func (fi FlowIndices) Velocity() int { return 1 }
func (fi FlowIndices) Density() int  { return fi.nDim + 2 }

func (fi FlowIndices) Temperature() int {
	if fi.regime == INCOMPRESSIBLE {
		return fi.nDim + 1
	}
	return 0
}

func (fi FlowIndices) Pressure() int {
	if fi.regime == INCOMPRESSIBLE {
		return 0
	}
	return fi.nDim + 1
}

// NPrimVar is the minimum primitive width the indices address.
func (fi FlowIndices) NPrimVar() int { return fi.nDim + 3 }

// VelocityOf returns the velocity components of V without copying.
func (fi FlowIndices) VelocityOf(V []float64) []float64 {
	return V[fi.Velocity() : fi.Velocity()+fi.nDim]
}
