package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical alignment defaults file.
const DefaultConfigPath = "config/align.defaults.json"

// RT tolerance modes accepted in rt_tolerance_mode.
const (
	RTModeAbsolute = "absolute"
	RTModeRelative = "relative"
)

// Default values used when a field is omitted from the file.
const (
	DefaultMZTolerance          = 0.2
	DefaultRTToleranceAbsolute  = 15.0
	DefaultRTToleranceRelative  = 0.15
	DefaultMZRTBalance          = 10.0
	maxConfigFileSize     int64 = 1 * 1024 * 1024 // 1MB
)

// AlignConfig is the on-disk join aligner configuration.
// Fields left nil fall back to defaults through the Get* accessors, so
// partial files are safe.
type AlignConfig struct {
	MZTolerance     *float64 `json:"mz_tolerance,omitempty"`
	RTToleranceMode *string  `json:"rt_tolerance_mode,omitempty"` // "absolute" or "relative"
	// RTTolerance is seconds in absolute mode, a fraction in (0,1] in relative mode.
	RTTolerance *float64 `json:"rt_tolerance,omitempty"`
	MZRTBalance *float64 `json:"mz_rt_balance,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyAlignConfig returns an AlignConfig with all fields unset.
func EmptyAlignConfig() *AlignConfig {
	return &AlignConfig{}
}

// DefaultAlignConfig returns a config with every field populated from the
// built-in defaults.
func DefaultAlignConfig() *AlignConfig {
	return &AlignConfig{
		MZTolerance:     ptrFloat64(DefaultMZTolerance),
		RTToleranceMode: ptrString(RTModeAbsolute),
		RTTolerance:     ptrFloat64(DefaultRTToleranceAbsolute),
		MZRTBalance:     ptrFloat64(DefaultMZRTBalance),
	}
}

// LoadAlignConfig loads an AlignConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAlignConfig(path string) (*AlignConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAlignConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set. Unset fields are not checked
// because their defaults are valid.
func (c *AlignConfig) Validate() error {
	if c.MZTolerance != nil {
		if v := *c.MZTolerance; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("mz_tolerance must be positive, got %v", v)
		}
	}

	if c.RTToleranceMode != nil {
		switch *c.RTToleranceMode {
		case RTModeAbsolute, RTModeRelative:
		default:
			return fmt.Errorf("rt_tolerance_mode must be %q or %q, got %q",
				RTModeAbsolute, RTModeRelative, *c.RTToleranceMode)
		}
	}

	if c.RTTolerance != nil {
		v := *c.RTTolerance
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("rt_tolerance must be positive, got %v", v)
		}
		if c.GetRTToleranceMode() == RTModeRelative && v > 1 {
			return fmt.Errorf("relative rt_tolerance must be in (0,1], got %v", v)
		}
	}

	if c.MZRTBalance != nil {
		if v := *c.MZRTBalance; !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("mz_rt_balance must be non-negative, got %v", v)
		}
	}

	return nil
}

// GetMZTolerance returns mz_tolerance or the default.
func (c *AlignConfig) GetMZTolerance() float64 {
	if c.MZTolerance == nil {
		return DefaultMZTolerance
	}
	return *c.MZTolerance
}

// GetRTToleranceMode returns rt_tolerance_mode or "absolute".
func (c *AlignConfig) GetRTToleranceMode() string {
	if c.RTToleranceMode == nil || *c.RTToleranceMode == "" {
		return RTModeAbsolute
	}
	return *c.RTToleranceMode
}

// IsRTToleranceRelative reports whether the RT tolerance is a fraction of
// the compared retention times.
func (c *AlignConfig) IsRTToleranceRelative() bool {
	return c.GetRTToleranceMode() == RTModeRelative
}

// GetRTTolerance returns rt_tolerance or the default for the active mode.
func (c *AlignConfig) GetRTTolerance() float64 {
	if c.RTTolerance == nil {
		if c.IsRTToleranceRelative() {
			return DefaultRTToleranceRelative
		}
		return DefaultRTToleranceAbsolute
	}
	return *c.RTTolerance
}

// GetMZRTBalance returns mz_rt_balance or the default.
func (c *AlignConfig) GetMZRTBalance() float64 {
	if c.MZRTBalance == nil {
		return DefaultMZRTBalance
	}
	return *c.MZRTBalance
}

// SetRTPercent switches to relative mode with the tolerance given as a
// percentage, the way it is entered on the command line.
func (c *AlignConfig) SetRTPercent(percent float64) {
	c.RTToleranceMode = ptrString(RTModeRelative)
	c.RTTolerance = ptrFloat64(percent / 100)
}

// SetRTAbsolute switches to absolute mode with the given tolerance.
func (c *AlignConfig) SetRTAbsolute(seconds float64) {
	c.RTToleranceMode = ptrString(RTModeAbsolute)
	c.RTTolerance = ptrFloat64(seconds)
}

// SetMZTolerance overrides mz_tolerance.
func (c *AlignConfig) SetMZTolerance(v float64) { c.MZTolerance = ptrFloat64(v) }

// SetMZRTBalance overrides mz_rt_balance.
func (c *AlignConfig) SetMZRTBalance(v float64) { c.MZRTBalance = ptrFloat64(v) }
