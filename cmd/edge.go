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
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/scalarflux/InputParameters"
	"github.com/notargets/scalarflux/ad"
	"github.com/notargets/scalarflux/scalar"
)

const exampleFile = `
########################################
Title: "Test Case"
Model: SA # linear, sa, sa_neg, sst or species
TimeIntegration: Euler_Implicit
Regime: Compressible
DynamicGrid: false
NDim: 2
NVar: 1
Edge:
  Normal: [1, 0]
  V_i: [300, 2, 0, 100000, 1]
  V_j: [300, -1, 0, 100000, 1]
  Scalar_i: [3]
  Scalar_j: [5]
########################################
`

// EdgeCmd represents the edge command
var EdgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Evaluate the upwind flux across the single face described in the input file",
	Long:  `Evaluate the upwind flux across the single face described in the input file`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.ScalarParameters
		)
		icFile, _ := cmd.Flags().GetString("inputConditionsFile")
		withTape, _ := cmd.Flags().GetBool("tape")
		if ip, err = processInput(icFile); err != nil {
			return
		}
		return RunEdge(cmd.OutOrStdout(), ip, withTape)
	},
}

func init() {
	rootCmd.AddCommand(EdgeCmd)
	EdgeCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Model\n\t- TimeIntegration\n\t- Edge")
	EdgeCmd.Flags().BoolP("tape", "t", false, "record the face on a tape and print the local sensitivities")
}

func processInput(icFile string) (ip *InputParameters.ScalarParameters, err error) {
	var data []byte
	if len(icFile) == 0 {
		fmt.Fprintf(os.Stderr, "Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
	}
	if data, err = os.ReadFile(icFile); err != nil {
		return
	}
	ip = &InputParameters.ScalarParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", icFile, err)
	}
	return
}

func RunEdge(w io.Writer, ip *InputParameters.ScalarParameters, withTape bool) (err error) {
	var (
		cfg  scalar.ConfigValues
		e    *scalar.EdgeState
		c    *scalar.Upwind
		rv   scalar.ResidualView
		rec  *ad.Recorder
		tape ad.Tape
	)
	if cfg, err = ip.Config(); err != nil {
		return
	}
	if e, err = ip.EdgeState(); err != nil {
		return
	}
	if withTape {
		rec = ad.NewRecorder()
		tape = rec
	}
	if c, err = scalar.NewUpwindModel(ip.Model, ip.NDim, ip.NVar, cfg, tape); err != nil {
		return
	}
	slog.Debug("evaluating face", "title", ip.Title, "model", ip.Model,
		"time_integration", cfg.TimeIntegration().Print(), "regime", cfg.Regime().Print())
	if rv, err = c.ComputeResidual(cfg, e); err != nil {
		return
	}
	a0, a1 := c.Split()
	fmt.Fprintf(w, "a0 = %g, a1 = %g\n", a0, a1)
	fmt.Fprintf(w, "Flux = %v\n", rv.Flux().Data())
	if c.Implicit {
		fmt.Fprintf(w, "Jacobian_i = %v\n", mat.Formatted(rv.Jacobian_i(), mat.Prefix("             ")))
		fmt.Fprintf(w, "Jacobian_j = %v\n", mat.Formatted(rv.Jacobian_j(), mat.Prefix("             ")))
	}
	if withTape {
		last, _ := rec.Last()
		for _, in := range last.Inputs {
			for idx := 0; idx < in.Len; idx++ {
				fmt.Fprintf(w, "dFlux/d%s[%d] =", in.Name, idx)
				for n := 0; n < ip.NVar; n++ {
					d, _ := last.Partial("Flux", n, in.Name, idx)
					fmt.Fprintf(w, " %g", d)
				}
				fmt.Fprintln(w)
			}
		}
	}
	return
}
