package driver

import (
	"fmt"
	"math/rand"

	"github.com/notargets/scalarflux/scalar"
)

// Fields holds the node states the edge loop reads, one row per node.
type Fields struct {
	V       [][]float64 // Primitive flow state, laid out per scalar.FlowIndices
	Scalar  [][]float64 // Transported scalars
	GridVel [][]float64 // Only read under a dynamic grid
}

func NewFields(nNodes, nDim, nVar int) (f *Fields) {
	var (
		nPrim = scalar.NewFlowIndices(nDim, scalar.COMPRESSIBLE).NPrimVar()
	)
	f = &Fields{
		V:       make([][]float64, nNodes),
		Scalar:  make([][]float64, nNodes),
		GridVel: make([][]float64, nNodes),
	}
	for i := 0; i < nNodes; i++ {
		f.V[i] = make([]float64, nPrim)
		f.Scalar[i] = make([]float64, nVar)
		f.GridVel[i] = make([]float64, nDim)
	}
	return
}

// Randomize fills f with a smooth-ish random state: velocities in
// [-1,1], positive densities, pressures and temperatures.
func (f *Fields) Randomize(rng *rand.Rand, idx scalar.FlowIndices, dynamicGrid bool) {
	var (
		nDim = idx.NDim()
	)
	for i := range f.V {
		for d := 0; d < nDim; d++ {
			f.V[i][idx.Velocity()+d] = 2*rng.Float64() - 1
			if dynamicGrid {
				f.GridVel[i][d] = 0.2*rng.Float64() - 0.1
			}
		}
		f.V[i][idx.Density()] = 0.5 + rng.Float64()
		f.V[i][idx.Pressure()] = 1.e5 * (0.9 + 0.2*rng.Float64())
		f.V[i][idx.Temperature()] = 288 + 10*rng.Float64()
		for n := range f.Scalar[i] {
			f.Scalar[i][n] = rng.Float64()
		}
	}
}

func (f *Fields) Check(nNodes, nDim, nVar int, dynamicGrid bool) (err error) {
	var (
		nPrim = scalar.NewFlowIndices(nDim, scalar.COMPRESSIBLE).NPrimVar()
	)
	if len(f.V) != nNodes || len(f.Scalar) != nNodes {
		return fmt.Errorf("fields hold %d,%d nodes, mesh has %d: %w",
			len(f.V), len(f.Scalar), nNodes, scalar.ErrDimensionMismatch)
	}
	if dynamicGrid && len(f.GridVel) != nNodes {
		return fmt.Errorf("grid velocity holds %d nodes, mesh has %d: %w",
			len(f.GridVel), nNodes, scalar.ErrDimensionMismatch)
	}
	for i := 0; i < nNodes; i++ {
		switch {
		case len(f.V[i]) != nPrim:
			err = fmt.Errorf("node %d has %d primitives, need %d: %w", i, len(f.V[i]), nPrim, scalar.ErrDimensionMismatch)
		case len(f.Scalar[i]) != nVar:
			err = fmt.Errorf("node %d has %d scalars, need %d: %w", i, len(f.Scalar[i]), nVar, scalar.ErrDimensionMismatch)
		case dynamicGrid && len(f.GridVel[i]) != nDim:
			err = fmt.Errorf("node %d grid velocity has %d components, need %d: %w",
				i, len(f.GridVel[i]), nDim, scalar.ErrDimensionMismatch)
		}
		if err != nil {
			return
		}
	}
	return
}
