package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/scalarflux/scalar"
)

// Parameters obtained from the YAML input file
type ScalarParameters struct {
	Title           string             `json:"Title"`
	Model           string             `json:"Model"`
	TimeIntegration string             `json:"TimeIntegration"`
	Regime          string             `json:"Regime"`
	DynamicGrid     bool               `json:"DynamicGrid"`
	NDim            int                `json:"NDim"`
	NVar            int                `json:"NVar"`
	ModelParameters map[string]float64 `json:"ModelParameters"`
	ParallelDegree  int                `json:"ParallelDegree"` // Zero means one worker per CPU
	Edge            *EdgeParameters    `json:"Edge"`
}

// A single face evaluation, primitive vectors laid out per the flow regime
type EdgeParameters struct {
	Normal    []float64 `json:"Normal"`
	V_i       []float64 `json:"V_i"`
	V_j       []float64 `json:"V_j"`
	Scalar_i  []float64 `json:"Scalar_i"`
	Scalar_j  []float64 `json:"Scalar_j"`
	GridVel_i []float64 `json:"GridVel_i"`
	GridVel_j []float64 `json:"GridVel_j"`
}

func (ip *ScalarParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	if len(ip.Model) == 0 {
		ip.Model = "linear"
	}
	if len(ip.TimeIntegration) == 0 {
		ip.TimeIntegration = "Euler_Implicit"
	}
	if len(ip.Regime) == 0 {
		ip.Regime = "Compressible"
	}
	if ip.NDim == 0 {
		ip.NDim = 2
	}
	if ip.NVar == 0 {
		ip.NVar = 1
	}
	return
}

func (ip *ScalarParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Model\n", ip.Model)
	fmt.Printf("[%s]\t\t= Time Integration\n", ip.TimeIntegration)
	fmt.Printf("[%s]\t\t= Regime\n", ip.Regime)
	fmt.Printf("%v\t\t\t= Dynamic Grid\n", ip.DynamicGrid)
	fmt.Printf("[%d, %d]\t\t\t= NDim, NVar\n", ip.NDim, ip.NVar)
	keys := make([]string, 0, len(ip.ModelParameters))
	for k := range ip.ModelParameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("ModelParameters[%s] = %v\n", key, ip.ModelParameters[key])
	}
}

// Config resolves the named enums into the configuration the engine reads.
func (ip *ScalarParameters) Config() (cfg scalar.ConfigValues, err error) {
	if err = scalar.CheckDims(ip.NDim, ip.NVar); err != nil {
		return
	}
	if cfg.TimeInt, err = scalar.NewTimeIntScheme(ip.TimeIntegration); err != nil {
		return
	}
	if cfg.FlowRegime, err = scalar.NewRegime(ip.Regime); err != nil {
		return
	}
	cfg.MovingGrid = ip.DynamicGrid
	cfg.ModelParameters = ip.ModelParameters
	return
}

// EdgeState loads the Edge section into a state sized for the problem.
// Every vector must match its width exactly. Grid velocities may be left out
// when the grid is static.
func (ip *ScalarParameters) EdgeState() (e *scalar.EdgeState, err error) {
	if ip.Edge == nil {
		return nil, fmt.Errorf("no Edge section in input: %w", scalar.ErrConfiguration)
	}
	if err = scalar.CheckDims(ip.NDim, ip.NVar); err != nil {
		return
	}
	e = scalar.NewEdgeState(ip.NDim, ip.NVar)
	for _, f := range []struct {
		name     string
		dst, src []float64
		optional bool
	}{
		{"Normal", e.Normal, ip.Edge.Normal, false},
		{"V_i", e.V_i, ip.Edge.V_i, false},
		{"V_j", e.V_j, ip.Edge.V_j, false},
		{"Scalar_i", e.Scalar_i, ip.Edge.Scalar_i, false},
		{"Scalar_j", e.Scalar_j, ip.Edge.Scalar_j, false},
		{"GridVel_i", e.GridVel_i, ip.Edge.GridVel_i, !ip.DynamicGrid},
		{"GridVel_j", e.GridVel_j, ip.Edge.GridVel_j, !ip.DynamicGrid},
	} {
		if len(f.src) == 0 && f.optional {
			continue
		}
		if len(f.src) != len(f.dst) {
			return nil, fmt.Errorf("Edge.%s has %d entries, need %d: %w",
				f.name, len(f.src), len(f.dst), scalar.ErrDimensionMismatch)
		}
		copy(f.dst, f.src)
	}
	return
}
