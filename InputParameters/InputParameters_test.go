package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/scalarflux/scalar"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Test Case
Model: SST
TimeIntegration: Euler_Explicit
Regime: Incompressible # Can be Compressible
DynamicGrid: true
NDim: 2
NVar: 2
ModelParameters:
  sigma_k: 0.85
  beta_star: 0.09
ParallelDegree: 4
Edge:
  Normal: [1, 0]
  V_i: [100000, 2, 0, 300, 1.2]
  V_j: [100000, 1, 0, 300, 1.1]
  Scalar_i: [3, 10]
  Scalar_j: [4, 12]
  GridVel_i: [0.5, 0]
  GridVel_j: [0.5, 0]
`)
	var input ScalarParameters
	require.NoError(t, input.Parse(fileInput))
	input.Print()
	assert.Equal(t, "SST", input.Model)
	assert.Equal(t, 0.85, input.ModelParameters["sigma_k"])
	assert.Equal(t, 4, input.ParallelDegree)

	cfg, err := input.Config()
	require.NoError(t, err)
	assert.Equal(t, scalar.EULER_EXPLICIT, cfg.TimeIntegration())
	assert.Equal(t, scalar.INCOMPRESSIBLE, cfg.Regime())
	assert.True(t, cfg.DynamicGrid())
	val, ok := cfg.ModelParameter("beta_star")
	assert.True(t, ok)
	assert.Equal(t, 0.09, val)

	e, err := input.EdgeState()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, e.Normal)
	assert.Equal(t, []float64{3, 10}, e.Scalar_i)
	assert.Equal(t, []float64{4, 12}, e.Scalar_j)
	assert.Equal(t, []float64{0.5, 0}, e.GridVel_j)
	assert.NoError(t, e.Check(2, 2, true))
}

func TestEdgeStateWidths(t *testing.T) {
	full := func() *ScalarParameters {
		return &ScalarParameters{
			Model: "linear", TimeIntegration: "Euler_Implicit", Regime: "Compressible",
			NDim: 2, NVar: 1,
			Edge: &EdgeParameters{
				Normal:   []float64{1, 0},
				V_i:      []float64{300, 2, 0, 1.e5, 1},
				V_j:      []float64{300, -1, 0, 1.e5, 1},
				Scalar_i: []float64{3},
				Scalar_j: []float64{5},
			},
		}
	}
	{ // Grid velocities are optional on a static grid
		e, err := full().EdgeState()
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, e.GridVel_i)
	}
	for _, tc := range []struct {
		name  string
		apply func(ip *ScalarParameters)
	}{
		{"short V_i", func(ip *ScalarParameters) { ip.Edge.V_i = []float64{300, 2} }},
		{"missing V_j", func(ip *ScalarParameters) { ip.Edge.V_j = nil }},
		{"missing Scalar_j", func(ip *ScalarParameters) { ip.Edge.Scalar_j = nil }},
		{"wide Scalar_i", func(ip *ScalarParameters) { ip.Edge.Scalar_i = []float64{3, 4} }},
		{"short Normal", func(ip *ScalarParameters) { ip.Edge.Normal = []float64{1} }},
		{"moving grid without velocities", func(ip *ScalarParameters) { ip.DynamicGrid = true }},
		{"short GridVel_i", func(ip *ScalarParameters) { ip.Edge.GridVel_i = []float64{1} }},
		{"negative NVar", func(ip *ScalarParameters) { ip.NVar = -1 }},
		{"negative NDim", func(ip *ScalarParameters) { ip.NDim = -2 }},
	} {
		ip := full()
		tc.apply(ip)
		_, err := ip.EdgeState()
		assert.True(t, errors.Is(err, scalar.ErrDimensionMismatch), tc.name)
	}
	{
		ip := full()
		ip.NVar = 0
		_, err := ip.Config()
		assert.True(t, errors.Is(err, scalar.ErrDimensionMismatch))
		ip.NVar, ip.NDim = 1, 4
		_, err = ip.Config()
		assert.True(t, errors.Is(err, scalar.ErrDimensionMismatch))
	}
}

func TestParseDefaults(t *testing.T) {
	var input ScalarParameters
	require.NoError(t, input.Parse([]byte("Title: Bare\n")))
	assert.Equal(t, "linear", input.Model)
	assert.Equal(t, 2, input.NDim)
	assert.Equal(t, 1, input.NVar)
	cfg, err := input.Config()
	require.NoError(t, err)
	assert.Equal(t, scalar.EULER_IMPLICIT, cfg.TimeIntegration())
	assert.Equal(t, scalar.COMPRESSIBLE, cfg.Regime())

	_, err = input.EdgeState()
	assert.True(t, errors.Is(err, scalar.ErrConfiguration))

	input.Edge = &EdgeParameters{Normal: []float64{1, 0, 0}}
	_, err = input.EdgeState()
	assert.True(t, errors.Is(err, scalar.ErrDimensionMismatch))

	input.TimeIntegration = "leapfrog"
	_, err = input.Config()
	assert.True(t, errors.Is(err, scalar.ErrConfiguration))
}
