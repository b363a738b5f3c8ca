package ad

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/scalarflux/utils"
)

// Record is one closed preaccumulation scope: the values of the registered
// inputs and outputs and the local Jacobian d(outputs)/d(inputs).
type Record struct {
	Inputs, Outputs []Slot
	X, Y            []float64
	Jacobian        utils.Matrix // len(Y) x len(X), zero sized if either is empty
}

func (rec Record) slot(slots []Slot, name string) (Slot, bool) {
	for _, sl := range slots {
		if sl.Name == name {
			return sl, true
		}
	}
	return Slot{}, false
}

// Partial returns d out[outIdx] / d in[inIdx]. ok is false when either name
// was not registered in the scope.
func (rec Record) Partial(out string, outIdx int, in string, inIdx int) (val float64, ok bool) {
	var (
		so, si Slot
		okO    bool
	)
	if so, okO = rec.slot(rec.Outputs, out); !okO {
		return
	}
	if si, ok = rec.slot(rec.Inputs, in); !ok {
		return
	}
	if outIdx < 0 || outIdx >= so.Len || inIdx < 0 || inIdx >= si.Len {
		return 0, false
	}
	val = rec.Jacobian.At(so.Offset+outIdx, si.Offset+inIdx)
	return
}

// HasInput reports whether name was registered as an input.
func (rec Record) HasInput(name string) bool {
	_, ok := rec.slot(rec.Inputs, name)
	return ok
}

// Recorder preaccumulates every scope into a Record by replaying the kernel
// under central differences. It holds one record per closed scope until
// Reset.
type Recorder struct {
	s       scope
	Step    float64 // Finite difference step, zero selects the gonum default
	records []Record
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) StartPreacc() error { return r.s.start() }

func (r *Recorder) SetPreaccIn(name string, x []float64) { r.s.addInput(name, x) }

func (r *Recorder) SetPreaccOut(name string, y []float64) { r.s.addOutput(name, y) }

func (r *Recorder) EndPreacc(replay func()) (err error) {
	if !r.s.open {
		return r.s.end()
	}
	if r.s.err != nil {
		return r.s.end()
	}
	if replay == nil {
		r.s.end()
		return errors.New("recorder needs a replay function to preaccumulate")
	}
	var (
		inputs, outputs = r.s.inputs, r.s.outputs
		x0              = make([]float64, r.s.nIn)
		y0              = make([]float64, r.s.nOut)
		rec             = Record{
			Inputs:  detach(inputs),
			Outputs: detach(outputs),
			X:       x0,
			Y:       y0,
		}
	)
	gather(inputs, x0)
	gather(outputs, y0)
	if r.s.nIn != 0 && r.s.nOut != 0 {
		rec.Jacobian = utils.NewMatrix(r.s.nOut, r.s.nIn)
		fd.Jacobian(rec.Jacobian.M, func(y, x []float64) {
			scatter(inputs, x)
			replay()
			gather(outputs, y)
		}, x0, &fd.JacobianSettings{
			Formula: fd.Central,
			Step:    r.Step,
		})
		// Put the caller's state back the way it was handed to us
		scatter(inputs, x0)
		replay()
	}
	r.records = append(r.records, rec)
	return r.s.end()
}

func detach(slots []Slot) (out []Slot) {
	out = make([]Slot, len(slots))
	for i, sl := range slots {
		out[i] = Slot{Name: sl.Name, Offset: sl.Offset, Len: sl.Len}
	}
	return
}

func (r *Recorder) Records() []Record { return r.records }

func (r *Recorder) Last() (rec Record, ok bool) {
	if len(r.records) == 0 {
		return
	}
	return r.records[len(r.records)-1], true
}

func (r *Recorder) Reset() { r.records = r.records[:0] }

// Adjoint runs the reverse sweep through rec: given output adjoints yBar it
// returns the input adjoints Jᵀ·yBar keyed by input name.
func (r *Recorder) Adjoint(rec Record, yBar []float64) (xBar map[string][]float64, err error) {
	if len(yBar) != len(rec.Y) {
		err = fmt.Errorf("output adjoint has length %d, record has %d outputs", len(yBar), len(rec.Y))
		return
	}
	xBar = make(map[string][]float64, len(rec.Inputs))
	if len(rec.X) == 0 || len(rec.Y) == 0 {
		for _, sl := range rec.Inputs {
			xBar[sl.Name] = make([]float64, sl.Len)
		}
		return
	}
	var xb mat.VecDense
	xb.MulVec(rec.Jacobian.T(), mat.NewVecDense(len(yBar), yBar))
	flat := xb.RawVector().Data
	for _, sl := range rec.Inputs {
		xBar[sl.Name] = append([]float64(nil), flat[sl.Offset:sl.Offset+sl.Len]...)
	}
	return
}
