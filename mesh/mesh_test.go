package mesh

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unit square split into four triangles around a center node
const squareSU2 = `%
% Problem dimension
%
NDIME= 2
NELEM= 4
5 0 1 4 0
5 1 2 4 1
5 2 3 4 2
5 3 0 4 3
NPOIN= 5
0.0 0.0 0
1.0 0.0 1
1.0 1.0 2
0.0 1.0 3
0.5 0.5 4
NMARK= 2
MARKER_TAG= wall
MARKER_ELEMS= 2
3 0 1
3 1 2
MARKER_TAG= farfield
MARKER_ELEMS= 2
3 2 3
3 3 0
`

func TestReadSU2(t *testing.T) {
	{
		m, err := ReadSU2(strings.NewReader(squareSU2))
		require.NoError(t, err)
		assert.Equal(t, 5, m.NumNodes())
		assert.Equal(t, [][3]int{{0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}, m.Tris)
		assert.Equal(t, []float64{0, 1, 1, 0, 0.5}, m.X)
		assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, m.Markers["wall"])
		assert.Len(t, m.Markers["farfield"], 2)
	}
	{ // Quads are split in two
		m, err := ReadSU2(strings.NewReader(`NDIME= 2
NELEM= 1
9 0 1 2 3 0
NPOIN= 4
0 0
1 0
1 1
0 1
`))
		require.NoError(t, err)
		assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, m.Tris)
		assert.Nil(t, m.Markers)
	}
	{ // Broken inputs
		_, err := ReadSU2(strings.NewReader("NDIME= 3\n"))
		assert.Error(t, err)
		_, err = ReadSU2(strings.NewReader("NDIM 2\n"))
		assert.Error(t, err)
		_, err = ReadSU2(strings.NewReader("NDIME= 2\nNELEM= 1\n5 0 1 7 0\nNPOIN= 3\n0 0\n1 0\n0 1\n"))
		assert.Error(t, err)
		_, err = ReadSU2(strings.NewReader("NDIME= 2\nNELEM= 1\n12 0 1 2 3 4 5 6 7 0\n"))
		assert.Error(t, err)
		_, err = ReadSU2(strings.NewReader("NDIME= 2\nNELEM= 2\n5 0 1 2 0\n"))
		assert.Error(t, err)
	}
	{ // Section counts from a malformed header
		for _, input := range []string{
			"NDIME= 2\nNELEM= 0\nNPOIN= -4\n",
			"NDIME= 2\nNELEM= -1\n",
			"NDIME= 2\nNELEM= 1\n5 0 1 2 0\nNPOIN= 3\n0 0\n1 0\n0 1\nNMARK= -2\n",
			"NDIME= 2\nNELEM= 1\n5 0 1 2 0\nNPOIN= 3\n0 0\n1 0\n0 1\nNMARK= 1\nMARKER_TAG= wall\nMARKER_ELEMS= -1\n",
		} {
			_, err := ReadSU2(strings.NewReader(input))
			require.Error(t, err, input)
			assert.Contains(t, err.Error(), "must not be negative")
		}
		_, err := ReadSU2(strings.NewReader("NDIME= 2\nNELEM= 1\n5 0 1 2 0\nNPOIN= 4000000000000\n0 0\n"))
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	}
}

func TestDualEdges(t *testing.T) {
	var (
		tol = 1.e-14
	)
	m, err := ReadSU2(strings.NewReader(squareSU2))
	require.NoError(t, err)
	edges := m.DualEdges()
	// 4 boundary edges and 4 spokes
	require.Len(t, edges, 8)
	for _, e := range edges {
		assert.True(t, e.I < e.J)
		dx, dy := m.X[e.J]-m.X[e.I], m.Y[e.J]-m.Y[e.I]
		assert.True(t, e.Normal[0]*dx+e.Normal[1]*dy > 0)
	}
	{ // The dual cell around the interior node is closed
		var sx, sy float64
		for _, e := range edges {
			switch {
			case e.I == 4:
				sx, sy = sx+e.Normal[0], sy+e.Normal[1]
			case e.J == 4:
				sx, sy = sx-e.Normal[0], sy-e.Normal[1]
			}
		}
		assert.InDelta(t, 0., sx, tol)
		assert.InDelta(t, 0., sy, tol)
	}
	{ // Spoke 0-4 collects half a face from each neighbor triangle
		var found bool
		for _, e := range edges {
			if e.I == 0 && e.J == 4 {
				found = true
				// Centroids at (0.5, 1/6) and (1/6, 0.5), midpoint (0.25, 0.25)
				assert.InDelta(t, 1./3., e.Normal[0], tol)
				assert.InDelta(t, 1./3., e.Normal[1], tol)
			}
		}
		assert.True(t, found)
	}
}

func TestDelaunay(t *testing.T) {
	x := []float64{0, 1, 1, 0, 0.4}
	y := []float64{0, 0, 1, 1, 0.6}
	m, err := Delaunay(x, y)
	require.NoError(t, err)
	assert.Len(t, m.Tris, 4)
	var area float64
	for _, tri := range m.Tris {
		a := 0.5 * ((m.X[tri[1]]-m.X[tri[0]])*(m.Y[tri[2]]-m.Y[tri[0]]) -
			(m.X[tri[2]]-m.X[tri[0]])*(m.Y[tri[1]]-m.Y[tri[0]]))
		if a < 0 {
			a = -a
		}
		area += a
	}
	assert.InDelta(t, 1., area, 1.e-12)
	assert.Len(t, m.DualEdges(), 8)

	_, err = Delaunay([]float64{0, 1}, []float64{0, 1})
	assert.Error(t, err)
	_, err = Delaunay([]float64{0, 1, 2}, []float64{0, 1})
	assert.Error(t, err)
}
