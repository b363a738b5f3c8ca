// Package mesh provides 2D triangulations and the median dual edges the edge
// based flux loop runs over.
package mesh

import (
	"fmt"

	"github.com/pradeep-pyro/triangle"
)

type Mesh struct {
	X, Y    []float64
	Tris    [][3]int
	Markers map[string][][2]int // Boundary segments by tag
}

// Edge is a mesh edge between nodes I < J with the median dual face normal,
// oriented from I towards J and scaled by the face length.
type Edge struct {
	I, J   int
	Normal []float64
}

func (m *Mesh) NumNodes() int { return len(m.X) }

func (m *Mesh) Check() (err error) {
	if len(m.X) != len(m.Y) {
		return fmt.Errorf("coordinate length mismatch: %d X, %d Y", len(m.X), len(m.Y))
	}
	for k, tri := range m.Tris {
		for _, v := range tri {
			if v < 0 || v >= len(m.X) {
				return fmt.Errorf("triangle %d references node %d, have %d nodes", k, v, len(m.X))
			}
		}
		if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
			return fmt.Errorf("triangle %d is degenerate: %v", k, tri)
		}
	}
	for tag, segs := range m.Markers {
		for _, seg := range segs {
			if seg[0] < 0 || seg[0] >= len(m.X) || seg[1] < 0 || seg[1] >= len(m.X) {
				return fmt.Errorf("marker %s references node outside of mesh: %v", tag, seg)
			}
		}
	}
	return
}

// Delaunay triangulates the point cloud.
func Delaunay(x, y []float64) (m *Mesh, err error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("coordinate length mismatch: %d X, %d Y", len(x), len(y))
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("need at least 3 points to triangulate, have %d", len(x))
	}
	pts := make([][2]float64, len(x))
	for i := range x {
		pts[i] = [2]float64{x[i], y[i]}
	}
	tris := triangle.Delaunay(pts)
	m = &Mesh{
		X:    append([]float64(nil), x...),
		Y:    append([]float64(nil), y...),
		Tris: make([][3]int, len(tris)),
	}
	for k, tri := range tris {
		m.Tris[k] = [3]int{int(tri[0]), int(tri[1]), int(tri[2])}
	}
	if err = m.Check(); err != nil {
		return nil, err
	}
	return
}

// DualEdges returns every unique edge of the triangulation in the order it is
// first met. Each triangle adds the segment from the edge midpoint to its
// centroid to the dual face of that edge.
func (m *Mesh) DualEdges() (edges []Edge) {
	index := make(map[[2]int]int, 3*len(m.Tris)/2)
	for _, tri := range m.Tris {
		var (
			cx = (m.X[tri[0]] + m.X[tri[1]] + m.X[tri[2]]) / 3
			cy = (m.Y[tri[0]] + m.Y[tri[1]] + m.Y[tri[2]]) / 3
		)
		for n := 0; n < 3; n++ {
			i, j := tri[n], tri[(n+1)%3]
			if i > j {
				i, j = j, i
			}
			key := [2]int{i, j}
			ind, ok := index[key]
			if !ok {
				ind = len(edges)
				index[key] = ind
				edges = append(edges, Edge{I: i, J: j, Normal: make([]float64, 2)})
			}
			var (
				mx, my = 0.5 * (m.X[i] + m.X[j]), 0.5 * (m.Y[i] + m.Y[j])
				nx, ny = cy - my, -(cx - mx)
			)
			if nx*(m.X[j]-m.X[i])+ny*(m.Y[j]-m.Y[i]) < 0 {
				nx, ny = -nx, -ny
			}
			edges[ind].Normal[0] += nx
			edges[ind].Normal[1] += ny
		}
	}
	return
}
