package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is a block sparse matrix under assembly. Blocks are BlockSize square
// and addressed by block row and column.
type DOK struct {
	M         *sparse.DOK
	BlockSize int
	readOnly  bool
	name      string
}

func NewDOK(nBlocks, blockSize int) (R DOK) {
	R = DOK{
		M:         sparse.NewDOK(nBlocks*blockSize, nBlocks*blockSize),
		BlockSize: blockSize,
		name:      "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

// AddBlock accumulates scale*B into block (bi, bj). Zero entries of B are
// skipped so they never create storage.
func (m DOK) AddBlock(bi, bj int, B mat.Matrix, scale float64) {
	var (
		nr, nc = B.Dims()
		bs     = m.BlockSize
	)
	m.checkWritable()
	if nr != bs || nc != bs {
		panic(fmt.Errorf("block is %dx%d, matrix %q holds %dx%d blocks", nr, nc, m.name, bs, bs))
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if val := B.At(i, j); val != 0 {
				ii, jj := bi*bs+i, bj*bs+j
				m.M.Set(ii, jj, m.M.At(ii, jj)+scale*val)
			}
		}
	}
}

// Accumulate adds every stored entry of B into m.
func (m DOK) Accumulate(B DOK) {
	m.checkWritable()
	B.M.DoNonZero(func(i, j int, v float64) {
		m.M.Set(i, j, m.M.At(i, j)+v)
	})
}

func (m DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:         m.M.ToCSR(),
		BlockSize: m.BlockSize,
		name:      m.name,
	}
}

// CSR is the compressed form handed to a linear solver.
type CSR struct {
	M         *sparse.CSR
	BlockSize int
	name      string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) Data() []float64 {
	return m.RawMatrix().Data
}
func (m CSR) NNZ() int { return m.M.NNZ() }

// MulVec returns m*x.
func (m CSR) MulVec(x []float64) (y []float64) {
	nr, _ := m.Dims()
	yV := mat.NewVecDense(nr, nil)
	yV.MulVec(m.M, mat.NewVecDense(len(x), x))
	return yV.RawVector().Data
}
