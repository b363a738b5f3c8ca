package scalar

import "fmt"

// EdgeState is the two-sided input of one face evaluation. The engine reads
// it and, while a recording tape replays the kernel, may perturb and restore
// the registered slices in place, so it must not be shared between workers.
type EdgeState struct {
	I, J                 int       // Control volume ids, opaque to the engine
	Normal               []float64 // nDim
	V_i, V_j             []float64 // Primitive flow state, see FlowIndices
	Scalar_i, Scalar_j   []float64 // nVar transported scalars
	GridVel_i, GridVel_j []float64 // nDim, only read under a dynamic grid
}

// NewEdgeState allocates an EdgeState sized for the engine dimensions.
// Sizes below zero allocate empty slices, which Check rejects.
func NewEdgeState(nDim, nVar int) (e *EdgeState) {
	nDim, nVar = max(nDim, 0), max(nVar, 0)
	nPrim := NewFlowIndices(nDim, COMPRESSIBLE).NPrimVar()
	e = &EdgeState{
		Normal:    make([]float64, nDim),
		V_i:       make([]float64, nPrim),
		V_j:       make([]float64, nPrim),
		Scalar_i:  make([]float64, nVar),
		Scalar_j:  make([]float64, nVar),
		GridVel_i: make([]float64, nDim),
		GridVel_j: make([]float64, nDim),
	}
	return
}

// CheckDims reports problem sizes the engine cannot be built for.
func CheckDims(nDim, nVar int) (err error) {
	switch {
	case nDim != 2 && nDim != 3:
		err = fmt.Errorf("nDim = %d, must be 2 or 3: %w", nDim, ErrDimensionMismatch)
	case nVar < 1:
		err = fmt.Errorf("nVar = %d, must be positive: %w", nVar, ErrDimensionMismatch)
	}
	return
}

// Check validates the widths of e against the engine dimensions.
func (e *EdgeState) Check(nDim, nVar int, dynamicGrid bool) (err error) {
	var (
		nPrim = NewFlowIndices(nDim, COMPRESSIBLE).NPrimVar()
	)
	switch {
	case len(e.Normal) != nDim:
		err = fmt.Errorf("normal has %d components, need %d: %w", len(e.Normal), nDim, ErrDimensionMismatch)
	case len(e.V_i) < nPrim || len(e.V_j) < nPrim:
		err = fmt.Errorf("primitive state widths %d,%d, need at least %d: %w",
			len(e.V_i), len(e.V_j), nPrim, ErrDimensionMismatch)
	case len(e.Scalar_i) != nVar || len(e.Scalar_j) != nVar:
		err = fmt.Errorf("scalar state widths %d,%d, need %d: %w",
			len(e.Scalar_i), len(e.Scalar_j), nVar, ErrDimensionMismatch)
	case dynamicGrid && (len(e.GridVel_i) != nDim || len(e.GridVel_j) != nDim):
		err = fmt.Errorf("grid velocity widths %d,%d, need %d: %w",
			len(e.GridVel_i), len(e.GridVel_j), nDim, ErrDimensionMismatch)
	}
	return
}
