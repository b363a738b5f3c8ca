package ad

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// product computes y = [a*b*z, 3*a] where z is never registered.
type product struct {
	a, b []float64
	z    float64
	y    []float64
}

func (p *product) eval() {
	p.y[0] = p.a[0] * p.b[0] * p.z
	p.y[1] = 3 * p.a[0]
}

func (p *product) bracket(t *testing.T, tape Tape) {
	require.NoError(t, tape.StartPreacc())
	tape.SetPreaccIn("a", p.a)
	tape.SetPreaccIn("b", p.b)
	p.eval()
	tape.SetPreaccOut("y", p.y)
	require.NoError(t, tape.EndPreacc(p.eval))
}

func TestRecorder(t *testing.T) {
	var (
		tol = 1.e-6
	)
	{ // Local Jacobian of registered inputs
		p := &product{a: []float64{2}, b: []float64{5}, z: 0.5, y: make([]float64, 2)}
		r := NewRecorder()
		p.bracket(t, r)
		rec, ok := r.Last()
		require.True(t, ok)
		nr, nc := rec.Jacobian.Dims()
		assert.Equal(t, 2, nr)
		assert.Equal(t, 2, nc)
		d, ok := rec.Partial("y", 0, "a", 0)
		assert.True(t, ok)
		assert.InDelta(t, 2.5, d, tol)
		d, _ = rec.Partial("y", 0, "b", 0)
		assert.InDelta(t, 1., d, tol)
		d, _ = rec.Partial("y", 1, "a", 0)
		assert.InDelta(t, 3., d, tol)
		d, _ = rec.Partial("y", 1, "b", 0)
		assert.InDelta(t, 0., d, tol)
		_, ok = rec.Partial("y", 0, "z", 0)
		assert.False(t, ok)
		_, ok = rec.Partial("y", 2, "a", 0)
		assert.False(t, ok)
		// Inputs and outputs are restored after the replay
		assert.Equal(t, []float64{2}, p.a)
		assert.Equal(t, []float64{5}, p.b)
		assert.Equal(t, []float64{5, 6}, p.y)
		assert.Equal(t, []float64{2, 5}, rec.X)
		assert.Equal(t, []float64{5, 6}, rec.Y)
	}
	{ // Registered inputs move the sensitivity, unregistered ones leave it alone
		r := NewRecorder()
		p := &product{a: []float64{2}, b: []float64{5}, z: 1, y: make([]float64, 2)}
		p.bracket(t, r)
		base, _ := r.Last()
		dBase, _ := base.Partial("y", 0, "a", 0)

		p.b[0] = 7
		p.bracket(t, r)
		rec, _ := r.Last()
		d, _ := rec.Partial("y", 0, "a", 0)
		assert.NotEqual(t, dBase, d)
		assert.InDelta(t, 7., d, tol)

		p.b[0] = 5
		p.y[0] = -100 // outputs are overwritten by the kernel
		p.bracket(t, r)
		rec, _ = r.Last()
		d, _ = rec.Partial("y", 0, "a", 0)
		assert.InDelta(t, dBase, d, tol)
		assert.Len(t, r.Records(), 3)
		r.Reset()
		assert.Len(t, r.Records(), 0)
	}
	{ // Reverse sweep
		r := NewRecorder()
		p := &product{a: []float64{2}, b: []float64{5}, z: 1, y: make([]float64, 2)}
		p.bracket(t, r)
		rec, _ := r.Last()
		xBar, err := r.Adjoint(rec, []float64{1, 1})
		require.NoError(t, err)
		assert.InDelta(t, 5.+3., xBar["a"][0], tol)
		assert.InDelta(t, 2., xBar["b"][0], tol)
		_, err = r.Adjoint(rec, []float64{1})
		assert.Error(t, err)
	}
	{ // A replay is required to preaccumulate
		r := NewRecorder()
		require.NoError(t, r.StartPreacc())
		r.SetPreaccIn("a", []float64{1})
		r.SetPreaccOut("y", []float64{1})
		assert.Error(t, r.EndPreacc(nil))
		assert.NoError(t, r.StartPreacc()) // the failed close still released the scope
		assert.NoError(t, r.EndPreacc(func() {}))
	}
}

func TestScopeDiscipline(t *testing.T) {
	for _, tape := range []Tape{NewPassive(), NewRecorder()} {
		require.NoError(t, tape.StartPreacc())
		err := tape.StartPreacc()
		assert.True(t, errors.Is(err, ErrScopeOpen))
		require.NoError(t, tape.EndPreacc(func() {}))

		err = tape.EndPreacc(func() {})
		assert.True(t, errors.Is(err, ErrScopeClosed))

		// Registering outside a scope is reported by the next bracket call
		tape.SetPreaccIn("stray", []float64{1})
		err = tape.StartPreacc()
		assert.True(t, errors.Is(err, ErrScopeClosed))
		assert.Contains(t, err.Error(), "stray")
		require.NoError(t, tape.StartPreacc())
		require.NoError(t, tape.EndPreacc(func() {}))
	}
}
