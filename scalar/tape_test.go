package scalar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/scalarflux/ad"
)

// forgetful is a Linear model that skips registering the velocities it reads.
type forgetful struct{ Linear }

func (m *forgetful) ExtraADPreaccIn(ad.Tape, *EdgeState, FlowIndices) {}

func recordOne(t *testing.T, c *Upwind, cfg Config, e *EdgeState) ad.Record {
	_, err := c.ComputeResidual(cfg, e)
	require.NoError(t, err)
	rec, ok := c.Tape.(*ad.Recorder).Last()
	require.True(t, ok)
	return rec
}

func TestUpwindTape(t *testing.T) {
	var (
		tol = 1.e-6
	)
	partial := func(rec ad.Record, in string, idx int) float64 {
		d, ok := rec.Partial("Flux", 0, in, idx)
		require.True(t, ok, in)
		return d
	}
	{ // Registered inputs and their local sensitivities
		c, err := NewUpwindModel("sa", 2, 1, implicitCfg, ad.NewRecorder())
		require.NoError(t, err)
		e := scenarioEdge(3, 5)
		rec := recordOne(t, c, implicitCfg, e)
		for _, name := range []string{"Normal", "Scalar_i", "Scalar_j", "Velocity_i", "Velocity_j"} {
			assert.True(t, rec.HasInput(name), name)
		}
		assert.False(t, rec.HasInput("GridVel_i"))
		assert.False(t, rec.HasInput("Density_i"))
		assert.InDelta(t, 1.5, partial(rec, "Normal", 0), tol)
		assert.InDelta(t, 0., partial(rec, "Normal", 1), tol)
		assert.InDelta(t, 0.5, partial(rec, "Scalar_i", 0), tol)
		assert.InDelta(t, 0., partial(rec, "Scalar_j", 0), tol)
		assert.InDelta(t, 1.5, partial(rec, "Velocity_i", 0), tol)
		assert.InDelta(t, 1.5, partial(rec, "Velocity_j", 0), tol)
		// Recording leaves inputs and result as they were
		assert.Equal(t, []float64{3}, e.Scalar_i)
		assert.Equal(t, []float64{1, 0}, e.Normal)
		assert.Equal(t, []float64{1.5}, c.res.Flux)
		assert.Equal(t, []float64{0.5}, c.res.Jacobian_i.Data())
		// Reverse sweep
		xBar, err := c.Tape.(*ad.Recorder).Adjoint(rec, []float64{2})
		require.NoError(t, err)
		assert.InDelta(t, 1., xBar["Scalar_i"][0], tol)
		assert.InDelta(t, 3., xBar["Normal"][0], tol)
	}
	{ // Perturbing a registered input moves the sensitivity, an unregistered one does not
		c, err := NewUpwindModel("sa", 2, 1, implicitCfg, ad.NewRecorder())
		require.NoError(t, err)
		base := recordOne(t, c, implicitCfg, scenarioEdge(3, 5))

		e := scenarioEdge(3, 5)
		e.Normal[0] = 2
		moved := recordOne(t, c, implicitCfg, e)
		assert.InDelta(t, 1., partial(moved, "Scalar_i", 0), tol)
		assert.NotEqual(t, base.Jacobian.Data(), moved.Jacobian.Data())

		e = scenarioEdge(3, 5)
		e.V_i[4], e.V_i[3], e.V_j[0] = 7, 2.e5, 500 // density, pressure, temperature
		still := recordOne(t, c, implicitCfg, e)
		assert.Equal(t, base.Jacobian.Data(), still.Jacobian.Data())
		assert.Equal(t, base.Y, still.Y)
	}
	{ // Dropping the model inputs silently loses the velocity dependency
		c, err := NewUpwind(2, 1, implicitCfg, &forgetful{}, ad.NewRecorder())
		require.NoError(t, err)
		rec := recordOne(t, c, implicitCfg, scenarioEdge(3, 5))
		assert.False(t, rec.HasInput("Velocity_i"))
		_, ok := rec.Partial("Flux", 0, "Velocity_i", 0)
		assert.False(t, ok)
		assert.InDelta(t, 0.5, partial(rec, "Scalar_i", 0), tol)
	}
	{ // Dynamic grids register the grid velocities
		c, err := NewUpwindModel("sa", 2, 1, movingCfg, ad.NewRecorder())
		require.NoError(t, err)
		e := scenarioEdge(3, 5)
		e.GridVel_i[0], e.GridVel_j[0] = 0.5, -0.5
		rec := recordOne(t, c, movingCfg, e)
		assert.True(t, rec.HasInput("GridVel_i"))
		assert.True(t, rec.HasInput("GridVel_j"))
		assert.InDelta(t, -1.5, partial(rec, "GridVel_i", 0), tol)
	}
	{ // Density weighted models track the side densities
		c, err := NewUpwindModel("sst", 2, 2, implicitCfg, ad.NewRecorder())
		require.NoError(t, err)
		e := NewEdgeState(2, 2)
		e.Normal[0] = 1
		e.V_i[1], e.V_j[1] = 2, -1
		e.V_i[4], e.V_j[4] = 1.2, 0.8
		copy(e.Scalar_i, []float64{3, 10})
		copy(e.Scalar_j, []float64{5, 20})
		rec := recordOne(t, c, implicitCfg, e)
		assert.InDelta(t, 0.5*3, partial(rec, "Density_i", 0), tol)
		assert.InDelta(t, 0., partial(rec, "Density_j", 0), tol)
		d, ok := rec.Partial("Flux", 1, "Density_i", 0)
		assert.True(t, ok)
		assert.InDelta(t, 0.5*10, d, tol)
		assert.InDelta(t, 0.5*1.2, partial(rec, "Scalar_i", 0), tol)
		assert.Len(t, c.Tape.(*ad.Recorder).Records(), 1)
	}
}
