package scalar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration     = errors.New("invalid scalar convection configuration")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrUnknownModel      = errors.New("unknown scalar transport model")
)

type TimeIntScheme uint8

const (
	EULER_EXPLICIT TimeIntScheme = iota
	RUNGE_KUTTA_EXPLICIT
	EULER_IMPLICIT
)

var (
	TimeIntNames = map[string]TimeIntScheme{
		"euler_explicit":       EULER_EXPLICIT,
		"explicit":             EULER_EXPLICIT,
		"runge_kutta_explicit": RUNGE_KUTTA_EXPLICIT,
		"rk":                   RUNGE_KUTTA_EXPLICIT,
		"euler_implicit":       EULER_IMPLICIT,
		"implicit":             EULER_IMPLICIT,
	}
	TimeIntPrintNames = []string{"Euler Explicit", "Runge-Kutta Explicit", "Euler Implicit"}
)

func (ts TimeIntScheme) Print() (txt string) {
	if int(ts) < len(TimeIntPrintNames) {
		txt = TimeIntPrintNames[ts]
	}
	return
}

func NewTimeIntScheme(label string) (ts TimeIntScheme, err error) {
	var ok bool
	if ts, ok = TimeIntNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unable to use time integration named %q: %w", label, ErrConfiguration)
	}
	return
}

type Regime uint8

const (
	COMPRESSIBLE Regime = iota
	INCOMPRESSIBLE
)

var (
	RegimeNames = map[string]Regime{
		"compressible":   COMPRESSIBLE,
		"incompressible": INCOMPRESSIBLE,
	}
	RegimePrintNames = []string{"Compressible", "Incompressible"}
)

func (rg Regime) Print() (txt string) {
	if int(rg) < len(RegimePrintNames) {
		txt = RegimePrintNames[rg]
	}
	return
}

func NewRegime(label string) (rg Regime, err error) {
	var ok bool
	if rg, ok = RegimeNames[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unable to use flow regime named %q: %w", label, ErrConfiguration)
	}
	return
}

// Config is the read-only view of the problem definition the engine queries
// at construction and on every residual computation.
type Config interface {
	TimeIntegration() TimeIntScheme
	Regime() Regime
	DynamicGrid() bool
	ModelParameter(name string) (val float64, ok bool)
}

// ConfigValues is a plain Config.
type ConfigValues struct {
	TimeInt         TimeIntScheme
	FlowRegime      Regime
	MovingGrid      bool
	ModelParameters map[string]float64
}

func (cv ConfigValues) TimeIntegration() TimeIntScheme { return cv.TimeInt }
func (cv ConfigValues) Regime() Regime                 { return cv.FlowRegime }
func (cv ConfigValues) DynamicGrid() bool              { return cv.MovingGrid }

func (cv ConfigValues) ModelParameter(name string) (val float64, ok bool) {
	val, ok = cv.ModelParameters[name]
	return
}

// Implicit reports whether cfg asks for flux Jacobians.
func Implicit(cfg Config) bool {
	return cfg.TimeIntegration() == EULER_IMPLICIT
}
