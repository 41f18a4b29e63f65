// Package fitting drives the adaptive loop that compresses a content model until it fits one page.
package fitting

import (
	"fmt"
	"math"
)

// Canonical controller settings.
const (
	DefaultLowBound        = 0.3
	DefaultHighBound       = 0.9
	DefaultIncreaseStep    = 0.15
	DefaultDecreaseStep    = 0.10
	DefaultMaxIterations   = 6
	DefaultProbeIterations = 1
)

// ControllerConfig bounds the pressure signal and the iteration budget.
type ControllerConfig struct {
	LowBound        float64 `json:"low_bound"`
	HighBound       float64 `json:"high_bound"`
	IncreaseStep    float64 `json:"increase_step"`
	DecreaseStep    float64 `json:"decrease_step"`
	MaxIterations   int     `json:"max_iterations"`
	ProbeIterations int     `json:"probe_iterations"`
}

// DefaultControllerConfig returns the canonical settings.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		LowBound:        DefaultLowBound,
		HighBound:       DefaultHighBound,
		IncreaseStep:    DefaultIncreaseStep,
		DecreaseStep:    DefaultDecreaseStep,
		MaxIterations:   DefaultMaxIterations,
		ProbeIterations: DefaultProbeIterations,
	}
}

// Validate reports the first inconsistent setting.
func (c ControllerConfig) Validate() error {
	switch {
	case math.IsNaN(c.LowBound) || math.IsNaN(c.HighBound):
		return fmt.Errorf("pressure bounds must be numbers")
	case c.LowBound < 0 || c.HighBound > 1 || c.LowBound >= c.HighBound:
		return fmt.Errorf("pressure bounds must satisfy 0 <= low < high <= 1, got [%g, %g]", c.LowBound, c.HighBound)
	case c.IncreaseStep <= 0 || c.DecreaseStep <= 0:
		return fmt.Errorf("pressure steps must be positive, got +%g/-%g", c.IncreaseStep, c.DecreaseStep)
	case c.MaxIterations < 1:
		return fmt.Errorf("max iterations must be at least 1, got %d", c.MaxIterations)
	case c.ProbeIterations < 0:
		return fmt.Errorf("probe iterations must not be negative, got %d", c.ProbeIterations)
	}
	return nil
}

// State is a pressure controller state. The set is closed: Seeking, Converged and Exhausted.
type State interface {
	// Pressure is the value the next iteration runs at, or the terminal value.
	Pressure() float64
	// Terminal reports whether the loop stops in this state.
	Terminal() bool
	// Name is a stable lowercase label.
	Name() string
	isState()
}

// Seeking raises pressure while candidates overflow.
type Seeking struct {
	P float64
}

// Converged holds the pressure lowered after a one-page accepted candidate.
// ConvergingPressure is the value that produced that candidate. While
// ProbesLeft is positive the loop runs refinement probes at P.
type Converged struct {
	P                  float64
	ConvergingPressure float64
	ProbesLeft         int
	// Reverted is set when a probe overflowed and P went back to ConvergingPressure.
	Reverted bool
}

// Exhausted ends the loop when the iteration ceiling is reached while seeking.
type Exhausted struct {
	P float64
}

func (s Seeking) Pressure() float64   { return s.P }
func (s Converged) Pressure() float64 { return s.P }
func (s Exhausted) Pressure() float64 { return s.P }

func (Seeking) Terminal() bool     { return false }
func (s Converged) Terminal() bool { return s.ProbesLeft <= 0 }
func (Exhausted) Terminal() bool   { return true }

func (Seeking) Name() string   { return "seeking" }
func (Converged) Name() string { return "converged" }
func (Exhausted) Name() string { return "exhausted" }

func (Seeking) isState()   {}
func (Converged) isState() {}
func (Exhausted) isState() {}

// Observation is what the controller learns from one iteration.
type Observation struct {
	Iteration int
	// Pages of the candidate, or of the accepted candidate when the iteration failed.
	Pages    int
	Accepted bool
	Failed   bool
}

// Controller is the pressure state machine. It is a pure transition function;
// the loop owns the current state.
type Controller struct {
	cfg ControllerConfig
}

// NewController validates cfg and returns a controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// Config returns the controller settings.
func (c *Controller) Config() ControllerConfig {
	return c.cfg
}

// Start returns the initial state, seeking at the low bound.
func (c *Controller) Start() State {
	return Seeking{P: quantize(c.cfg.LowBound)}
}

// Next returns the state after an iteration observed in s.
func (c *Controller) Next(s State, o Observation) State {
	switch st := s.(type) {
	case Seeking:
		return c.nextSeeking(st, o)
	case Converged:
		return c.nextProbe(st, o)
	default:
		return s
	}
}

func (c *Controller) nextSeeking(st Seeking, o Observation) State {
	var next State
	switch {
	case o.Pages > 1:
		next = Seeking{P: c.raise(st.P)}
	case o.Pages == 1 && o.Accepted && !o.Failed:
		probes := c.cfg.ProbeIterations
		if o.Iteration >= c.cfg.MaxIterations {
			probes = 0
		}
		return Converged{P: c.lower(st.P), ConvergingPressure: st.P, ProbesLeft: probes}
	case o.Pages == 1:
		next = Seeking{P: c.lower(st.P)}
	default:
		next = st
	}
	if o.Iteration >= c.cfg.MaxIterations {
		return Exhausted{P: next.Pressure()}
	}
	return next
}

func (c *Controller) nextProbe(st Converged, o Observation) State {
	if o.Failed || o.Pages > 1 {
		return Converged{P: st.ConvergingPressure, ConvergingPressure: st.ConvergingPressure, Reverted: true}
	}
	left := st.ProbesLeft - 1
	if !o.Accepted || left <= 0 || o.Iteration >= c.cfg.MaxIterations {
		return Converged{P: st.P, ConvergingPressure: st.ConvergingPressure}
	}
	return Converged{P: c.lower(st.P), ConvergingPressure: st.P, ProbesLeft: left}
}

func (c *Controller) raise(p float64) float64 {
	return quantize(math.Min(c.cfg.HighBound, p+c.cfg.IncreaseStep))
}

func (c *Controller) lower(p float64) float64 {
	return quantize(math.Max(c.cfg.LowBound, p-c.cfg.DecreaseStep))
}

// quantize rounds to six decimals so repeated steps land on exact band edges.
func quantize(p float64) float64 {
	return math.Round(p*1e6) / 1e6
}
