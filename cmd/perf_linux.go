//go:build linux

package cmd

import (
	"log/slog"

	perf "github.com/hodgesds/perf-utils"
)

// countInstructions runs f under a perf instruction counter. Without perf
// event access f runs uncounted.
func countInstructions(f func() error) (err error) {
	var (
		ran bool
		pv  *perf.ProfileValue
	)
	pv, err = perf.CPUInstructions(func() error {
		ran = true
		return f()
	})
	if err != nil && !ran {
		slog.Warn("perf events unavailable, running uncounted", "err", err)
		return f()
	}
	if err != nil {
		return
	}
	slog.Info("edge loop instructions", "count", pv.Value,
		"enabled", pv.TimeEnabled, "running", pv.TimeRunning)
	return
}
