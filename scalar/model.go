package scalar

import (
	"fmt"
	"strings"

	"github.com/notargets/scalarflux/ad"
	"github.com/notargets/scalarflux/utils"
)

// UpwindState is what the shared upwind skeleton hands a model once the
// convective speed has been split.
type UpwindState struct {
	A0, A1               float64 // max(q,0) and min(q,0)
	Density_i, Density_j float64
	Implicit             bool
	Edge                 *EdgeState
}

// Residual is the engine-owned scratch a model writes into. The engine zeroes
// it before every FinishResidualCalc.
type Residual struct {
	Flux                   []float64
	Jacobian_i, Jacobian_j utils.Matrix
}

func newResidual(nVar int) (r *Residual) {
	r = &Residual{
		Flux:       make([]float64, nVar),
		Jacobian_i: utils.NewMatrix(nVar, nVar),
		Jacobian_j: utils.NewMatrix(nVar, nVar),
	}
	return
}

func (r *Residual) zero() {
	for i := range r.Flux {
		r.Flux[i] = 0
	}
	r.Jacobian_i.Zero()
	r.Jacobian_j.Zero()
}

// ResidualModel supplies the model specific part of a scalar upwind flux.
type ResidualModel interface {
	// ExtraADPreaccIn registers any state beyond the normal, the scalars and
	// the grid velocities that the model's flux depends on.
	ExtraADPreaccIn(tape ad.Tape, edge *EdgeState, idx FlowIndices)
	// FinishResidualCalc writes the flux and, when st.Implicit, both
	// Jacobians. Entries it leaves alone stay zero.
	FinishResidualCalc(cfg Config, st *UpwindState, res *Residual)
}

type ModelType uint8

const (
	MODEL_Linear ModelType = iota
	MODEL_SA
	MODEL_SA_NEG
	MODEL_SST
	MODEL_Species
)

var (
	ModelNames = map[string]ModelType{
		"linear":  MODEL_Linear,
		"sa":      MODEL_SA,
		"sa_neg":  MODEL_SA_NEG,
		"sst":     MODEL_SST,
		"species": MODEL_Species,
	}
	ModelPrintNames = []string{"Linear Upwind", "Spalart-Allmaras", "Negative Spalart-Allmaras",
		"Menter SST", "Species Transport"}
)

func (mt ModelType) Print() (txt string) {
	if int(mt) < len(ModelPrintNames) {
		txt = ModelPrintNames[mt]
	}
	return
}

func NewModelType(label string) (mt ModelType, err error) {
	var ok bool
	if mt, ok = ModelNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("model named %q: %w", label, ErrUnknownModel)
	}
	return
}

// NewModel assembles the model named label for an engine of the given
// dimensions.
func NewModel(label string, nDim, nVar int, cfg Config) (m ResidualModel, err error) {
	var mt ModelType
	if mt, err = NewModelType(label); err != nil {
		return
	}
	want := map[ModelType]int{MODEL_SA: 1, MODEL_SA_NEG: 1, MODEL_SST: 2}
	if n, ok := want[mt]; ok && nVar != n {
		err = fmt.Errorf("%s transports %d scalars, engine has nVar = %d: %w",
			mt.Print(), n, nVar, ErrDimensionMismatch)
		return
	}
	switch mt {
	case MODEL_Linear, MODEL_SA, MODEL_SA_NEG:
		m = &Linear{}
	case MODEL_SST, MODEL_Species:
		m = &DensityWeighted{}
	}
	return
}
