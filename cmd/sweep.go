/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/scalarflux/InputParameters"
	"github.com/notargets/scalarflux/ad"
	"github.com/notargets/scalarflux/driver"
	"github.com/notargets/scalarflux/mesh"
	"github.com/notargets/scalarflux/scalar"
	"github.com/notargets/scalarflux/utils"
)

type Sweep struct {
	GridFile       string
	Points         int
	Seed           int64
	ParallelDegree int
	Profile        string
	Perf           bool
	Tape           bool
}

// SweepCmd represents the sweep command
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Assemble the upwind residual over every edge of a 2D mesh",
	Long: `
Assembles node residuals and, for implicit integration, the block sparse
flux Jacobian over the median dual edges of a triangulation. The mesh is
read from an SU2 file or triangulated from random points.

scalarflux sweep -I input.yaml -F mesh.su2
scalarflux sweep -I input.yaml --points 5000 --workers 8 --profile cpu`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.ScalarParameters
			sw = &Sweep{}
		)
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		sw.GridFile, _ = cmd.Flags().GetString("gridFile")
		sw.Points, _ = cmd.Flags().GetInt("points")
		sw.Seed, _ = cmd.Flags().GetInt64("seed")
		sw.ParallelDegree, _ = cmd.Flags().GetInt("workers")
		sw.Profile, _ = cmd.Flags().GetString("profile")
		sw.Perf, _ = cmd.Flags().GetBool("perf")
		sw.Tape, _ = cmd.Flags().GetBool("tape")
		if ip, err = processInput(icFile); err != nil {
			return
		}
		switch sw.Profile {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
		default:
			return fmt.Errorf("unknown profile type %q, use cpu or mem", sw.Profile)
		}
		return RunSweep(cmd.Context(), cmd.OutOrStdout(), ip, sw)
	},
}

func init() {
	rootCmd.AddCommand(SweepCmd)
	SweepCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters")
	SweepCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in SU2 (.su2) format")
	SweepCmd.Flags().IntP("points", "n", 1000, "number of random points to triangulate when no grid file is given")
	SweepCmd.Flags().Int64("seed", 1, "random seed for points and node states")
	SweepCmd.Flags().IntP("workers", "w", 0, "number of parallel workers, overrides ParallelDegree in the input file")
	SweepCmd.Flags().String("profile", "", "write a pprof profile: cpu or mem")
	SweepCmd.Flags().Bool("perf", false, "count CPU instructions of the edge loop with perf events")
	SweepCmd.Flags().BoolP("tape", "t", false, "record every face on a per worker tape")
}

func (sw *Sweep) buildMesh(rng *rand.Rand) (m *mesh.Mesh, err error) {
	if len(sw.GridFile) != 0 {
		return mesh.ReadSU2File(sw.GridFile)
	}
	if sw.Points < 1 {
		return nil, fmt.Errorf("need a grid file or a positive number of points, have %d", sw.Points)
	}
	// Corners of the unit square bound the cloud
	x := []float64{0, 1, 1, 0}
	y := []float64{0, 0, 1, 1}
	for i := 0; i < sw.Points; i++ {
		x, y = append(x, rng.Float64()), append(y, rng.Float64())
	}
	return mesh.Delaunay(x, y)
}

func RunSweep(ctx context.Context, w io.Writer, ip *InputParameters.ScalarParameters, sw *Sweep) (err error) {
	var (
		cfg scalar.ConfigValues
		m   *mesh.Mesh
		el  *driver.EdgeLoop
		a   *driver.Assembly
		rng = rand.New(rand.NewSource(sw.Seed))
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if ip.NDim != 2 {
		return fmt.Errorf("meshes are two dimensional, input has NDim = %d: %w", ip.NDim, scalar.ErrDimensionMismatch)
	}
	if cfg, err = ip.Config(); err != nil {
		return
	}
	if m, err = sw.buildMesh(rng); err != nil {
		return
	}
	opt := driver.Options{
		Model:          ip.Model,
		NDim:           ip.NDim,
		NVar:           ip.NVar,
		ParallelDegree: ip.ParallelDegree,
		Logger:         slog.Default(),
	}
	if sw.ParallelDegree != 0 {
		opt.ParallelDegree = sw.ParallelDegree
	}
	if sw.Tape {
		opt.NewTape = func() ad.Tape { return ad.NewRecorder() }
	}
	if el, err = driver.NewEdgeLoop(m.NumNodes(), m.DualEdges(), cfg, opt); err != nil {
		return
	}
	f := driver.NewFields(m.NumNodes(), ip.NDim, ip.NVar)
	f.Randomize(rng, scalar.NewFlowIndices(ip.NDim, cfg.Regime()), cfg.DynamicGrid())

	run := func() (err error) {
		a, err = el.Run(ctx, cfg, f)
		return
	}
	if sw.Perf {
		err = countInstructions(run)
	} else {
		err = run()
	}
	if err != nil {
		return
	}
	slog.Debug("sweep done", "mem", utils.GetMemUsage())

	fmt.Fprintf(w, "nodes = %d, triangles = %d, edges = %d, workers = %d\n",
		m.NumNodes(), len(m.Tris), a.NumEdges, el.ParallelDegree())
	fmt.Fprintf(w, "|R| = %g, sum(R) = %g, max speed = %g\n",
		floats.Norm(a.Residual, 2), floats.Sum(a.Residual), a.MaxSpeed)
	if a.Jacobian != nil {
		fmt.Fprintf(w, "Jacobian %d nonzeros in %dx%d blocks\n", a.Jacobian.NNZ(), ip.NVar, ip.NVar)
	}
	if sw.Tape {
		var recs int
		for np := 0; np < el.ParallelDegree(); np++ {
			recs += len(el.Tape(np).(*ad.Recorder).Records())
		}
		fmt.Fprintf(w, "taped faces = %d\n", recs)
	}
	return
}
