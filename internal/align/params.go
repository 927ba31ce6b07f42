package align

import (
	"fmt"
	"math"

	"github.com/banshee-data/isoalign/internal/config"
)

// RTTolerance is either an absolute retention time window or a fraction of
// the mean of the two retention times being compared.
type RTTolerance struct {
	Relative bool    `json:"relative"`
	Value    float64 `json:"value"`
}

// AbsoluteRT returns a fixed retention time tolerance.
func AbsoluteRT(v float64) RTTolerance { return RTTolerance{Value: v} }

// RelativeRT returns a tolerance of fraction × mean(rtA, rtB).
func RelativeRT(fraction float64) RTTolerance { return RTTolerance{Relative: true, Value: fraction} }

// Window returns the tolerance that applies when comparing rtA with rtB.
func (t RTTolerance) Window(rtA, rtB float64) float64 {
	if !t.Relative {
		return t.Value
	}
	return t.Value * 0.5 * (rtA + rtB)
}

func (t RTTolerance) String() string {
	if t.Relative {
		return fmt.Sprintf("%.4g%%", t.Value*100)
	}
	return fmt.Sprintf("%.4g", t.Value)
}

// Params configures the scorer.
type Params struct {
	MZTolerance float64     `json:"mz_tolerance"`
	RT          RTTolerance `json:"rt_tolerance"`
	// MZRTBalance weights the m/z difference against the RT difference
	// in the match cost.
	MZRTBalance float64 `json:"mz_rt_balance"`
}

// DefaultParams returns the built-in defaults.
func DefaultParams() Params {
	return Params{
		MZTolerance: config.DefaultMZTolerance,
		RT:          AbsoluteRT(config.DefaultRTToleranceAbsolute),
		MZRTBalance: config.DefaultMZRTBalance,
	}
}

// ParamsFromConfig builds validated Params from a loaded AlignConfig.
func ParamsFromConfig(cfg *config.AlignConfig) (Params, error) {
	if cfg == nil {
		return DefaultParams(), nil
	}
	p := Params{
		MZTolerance: cfg.GetMZTolerance(),
		RT:          AbsoluteRT(cfg.GetRTTolerance()),
		MZRTBalance: cfg.GetMZRTBalance(),
	}
	if cfg.IsRTToleranceRelative() {
		p.RT = RelativeRT(cfg.GetRTTolerance())
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate returns a *ConfigError describing the first invalid field.
func (p Params) Validate() error {
	if !finite(p.MZTolerance) || p.MZTolerance <= 0 {
		return &ConfigError{Field: "mz_tolerance", Reason: fmt.Sprintf("must be positive, got %v", p.MZTolerance)}
	}
	if !finite(p.RT.Value) || p.RT.Value <= 0 {
		return &ConfigError{Field: "rt_tolerance", Reason: fmt.Sprintf("must be positive, got %v", p.RT.Value)}
	}
	if p.RT.Relative && p.RT.Value > 1 {
		return &ConfigError{Field: "rt_tolerance", Reason: fmt.Sprintf("relative fraction must be in (0,1], got %v", p.RT.Value)}
	}
	if !finite(p.MZRTBalance) || p.MZRTBalance < 0 {
		return &ConfigError{Field: "mz_rt_balance", Reason: fmt.Sprintf("must be non-negative, got %v", p.MZRTBalance)}
	}
	return nil
}
