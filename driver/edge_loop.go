// Package driver runs the scalar upwind flux over every edge of a mesh in
// parallel and assembles the node residuals and the block sparse Jacobian.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/scalarflux/ad"
	"github.com/notargets/scalarflux/mesh"
	"github.com/notargets/scalarflux/scalar"
	"github.com/notargets/scalarflux/utils"
)

var ErrNotFinite = errors.New("non-finite residual")

type Options struct {
	Model          string
	NDim, NVar     int
	ParallelDegree int            // Zero means one worker per CPU
	NewTape        func() ad.Tape // One tape per worker, nil for passive
	Logger         *slog.Logger
}

// EdgeLoop owns one engine per worker. Edges are split into contiguous
// buckets, each bucket is only ever touched by its worker.
type EdgeLoop struct {
	NDim, NVar, NNodes int
	Implicit           bool
	DynamicGrid        bool
	Edges              []mesh.Edge
	Partitions         *utils.PartitionMap
	workers            []*worker
	logger             *slog.Logger
}

type worker struct {
	engine   *scalar.Upwind
	edge     *scalar.EdgeState // Scratch copy, the tape perturbs it in place
	res      []float64
	jac      utils.DOK
	maxSpeed float64
	elapsed  time.Duration
}

// Assembly is the summed result of one pass over the edges. Flux leaves node
// I and enters node J, so the residual sums to zero over the mesh.
type Assembly struct {
	Residual []float64 // NNodes*NVar, node major
	Jacobian *utils.CSR
	MaxSpeed float64 // Largest |q| over the faces
	NumEdges int
}

func NewEdgeLoop(nNodes int, edges []mesh.Edge, cfg scalar.Config, opt Options) (el *EdgeLoop, err error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("no edges to loop over: %w", scalar.ErrConfiguration)
	}
	for k, e := range edges {
		switch {
		case e.I < 0 || e.I >= nNodes || e.J < 0 || e.J >= nNodes:
			err = fmt.Errorf("edge %d (%d,%d) outside of %d nodes: %w", k, e.I, e.J, nNodes, scalar.ErrConfiguration)
		case e.I == e.J:
			err = fmt.Errorf("edge %d connects node %d to itself: %w", k, e.I, scalar.ErrConfiguration)
		case len(e.Normal) != opt.NDim:
			err = fmt.Errorf("edge %d normal has %d components, need %d: %w",
				k, len(e.Normal), opt.NDim, scalar.ErrDimensionMismatch)
		}
		if err != nil {
			return nil, err
		}
	}
	el = &EdgeLoop{
		NDim:        opt.NDim,
		NVar:        opt.NVar,
		NNodes:      nNodes,
		Implicit:    scalar.Implicit(cfg),
		DynamicGrid: cfg.DynamicGrid(),
		Edges:       edges,
		logger:      opt.Logger,
	}
	if el.logger == nil {
		el.logger = slog.Default()
	}
	NP := utils.ParallelDegreeFor(opt.ParallelDegree, len(edges))
	el.Partitions = utils.NewPartitionMap(NP, len(edges))
	el.workers = make([]*worker, NP)
	for np := 0; np < NP; np++ {
		var tape ad.Tape
		if opt.NewTape != nil {
			tape = opt.NewTape()
		}
		w := &worker{}
		if w.engine, err = scalar.NewUpwindModel(opt.Model, opt.NDim, opt.NVar, cfg, tape); err != nil {
			return nil, err
		}
		w.edge = scalar.NewEdgeState(opt.NDim, opt.NVar)
		w.res = make([]float64, nNodes*opt.NVar)
		el.workers[np] = w
	}
	el.logger.Debug("edge loop ready",
		"model", opt.Model, "nodes", nNodes, "edges", len(edges),
		"workers", NP, "implicit", el.Implicit)
	return
}

func (el *EdgeLoop) ParallelDegree() int { return len(el.workers) }

// Tape returns the tape of worker np.
func (el *EdgeLoop) Tape(np int) ad.Tape { return el.workers[np].engine.Tape }

// Run evaluates every edge against the node fields and sums the result.
func (el *EdgeLoop) Run(ctx context.Context, cfg scalar.Config, f *Fields) (a *Assembly, err error) {
	if err = f.Check(el.NNodes, el.NDim, el.NVar, el.DynamicGrid); err != nil {
		return
	}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for np := range el.workers {
		np := np
		g.Go(func() error {
			return el.runBucket(gctx, np, cfg, f)
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	a = el.combine()
	if utils.IsNan(a.Residual) || utils.IsInf(a.Residual) {
		return nil, fmt.Errorf("assembled over %d edges: %w", a.NumEdges, ErrNotFinite)
	}
	el.logger.Info("edge loop done",
		"edges", a.NumEdges, "workers", len(el.workers),
		"max_speed", a.MaxSpeed, "elapsed", time.Since(start))
	return
}

func (el *EdgeLoop) runBucket(ctx context.Context, np int, cfg scalar.Config, f *Fields) (err error) {
	var (
		w          = el.workers[np]
		kMin, kMax = el.Partitions.GetBucketRange(np)
		nVar       = el.NVar
		start      = time.Now()
		rv         scalar.ResidualView
	)
	for i := range w.res {
		w.res[i] = 0
	}
	w.maxSpeed = 0
	if el.Implicit {
		w.jac = utils.NewDOK(el.NNodes, nVar)
	}
	for k := kMin; k < kMax; k++ {
		if err = ctx.Err(); err != nil {
			return
		}
		e := el.Edges[k]
		el.loadEdge(w.edge, e, f)
		if rv, err = w.engine.ComputeResidual(cfg, w.edge); err != nil {
			return fmt.Errorf("edge %d (%d,%d): %w", k, e.I, e.J, err)
		}
		flux := rv.Flux().Data()
		floats.Add(w.res[e.I*nVar:(e.I+1)*nVar], flux)
		floats.Sub(w.res[e.J*nVar:(e.J+1)*nVar], flux)
		if el.Implicit {
			Ji, Jj := rv.Jacobian_i(), rv.Jacobian_j()
			w.jac.AddBlock(e.I, e.I, Ji, 1)
			w.jac.AddBlock(e.I, e.J, Jj, 1)
			w.jac.AddBlock(e.J, e.I, Ji, -1)
			w.jac.AddBlock(e.J, e.J, Jj, -1)
		}
		a0, a1 := w.engine.Split()
		w.maxSpeed = math.Max(w.maxSpeed, a0-a1)
	}
	w.elapsed = time.Since(start)
	el.logger.Debug("bucket done", "worker", np, "edges", kMax-kMin, "elapsed", w.elapsed)
	return
}

func (el *EdgeLoop) loadEdge(edge *scalar.EdgeState, e mesh.Edge, f *Fields) {
	edge.I, edge.J = e.I, e.J
	copy(edge.Normal, e.Normal)
	copy(edge.V_i, f.V[e.I])
	copy(edge.V_j, f.V[e.J])
	copy(edge.Scalar_i, f.Scalar[e.I])
	copy(edge.Scalar_j, f.Scalar[e.J])
	if el.DynamicGrid {
		copy(edge.GridVel_i, f.GridVel[e.I])
		copy(edge.GridVel_j, f.GridVel[e.J])
	}
}

func (el *EdgeLoop) combine() (a *Assembly) {
	a = &Assembly{
		Residual: make([]float64, el.NNodes*el.NVar),
		NumEdges: len(el.Edges),
	}
	var jac utils.DOK
	if el.Implicit {
		jac = utils.NewDOK(el.NNodes, el.NVar)
	}
	for _, w := range el.workers {
		floats.Add(a.Residual, w.res)
		a.MaxSpeed = math.Max(a.MaxSpeed, w.maxSpeed)
		if el.Implicit {
			jac.Accumulate(w.jac)
		}
	}
	if el.Implicit {
		csr := jac.ToCSR()
		a.Jacobian = &csr
	}
	return
}
