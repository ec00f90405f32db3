package denoise

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scheme selects how filtered face normals are estimated.
type Scheme int

const (
	// Local runs a fixed number of bilateral averaging rounds.
	Local Scheme = iota
	// Global solves one sparse linear system for all normals.
	Global
)

func (s Scheme) String() string {
	switch s {
	case Local:
		return "local"
	case Global:
		return "global"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme parses "local" or "global", ignoring case.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return Local, nil
	case "global":
		return Global, nil
	}
	return 0, fmt.Errorf("unknown scheme %q (want local or global)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Config holds the knobs of a Bilateral engine. Iteration counts are fixed
// budgets; there is no convergence test.
type Config struct {
	Scheme           Scheme
	NormalIterations int     // local scheme rounds.
	VertexIterations int     // vertex reconstruction rounds.
	SigmaS           float64 // normal similarity bandwidth.
	SigmaCScale      float64 // factor applied to the mean adjacent centroid distance.
	Smoothness       float64 // global scheme fidelity weight λ in (0, 1].
	FixBoundary      bool    // keep border vertices in place.
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		Scheme:           Local,
		NormalIterations: 20,
		VertexIterations: 10,
		SigmaS:           0.35,
		SigmaCScale:      1.0,
		Smoothness:       0.01,
		FixBoundary:      true,
	}
}

// Validate checks that the configuration values are usable.
func (c Config) Validate() error {
	if c.Scheme != Local && c.Scheme != Global {
		return fmt.Errorf("invalid scheme %v", c.Scheme)
	}
	if c.NormalIterations < 0 {
		return fmt.Errorf("normal_iterations must be non-negative, got %d", c.NormalIterations)
	}
	if c.VertexIterations < 0 {
		return fmt.Errorf("vertex_iterations must be non-negative, got %d", c.VertexIterations)
	}
	if !(c.SigmaS > 0) {
		return fmt.Errorf("sigma_s must be positive, got %g", c.SigmaS)
	}
	if !(c.SigmaCScale > 0) {
		return fmt.Errorf("sigma_c_scale must be positive, got %g", c.SigmaCScale)
	}
	if !(c.Smoothness > 0 && c.Smoothness <= 1) {
		return fmt.Errorf("smoothness must be in (0, 1], got %g", c.Smoothness)
	}
	return nil
}

// FileConfig is the JSON form of Config. Omitted fields keep the value of
// the Config they are applied to, so partial files are safe.
type FileConfig struct {
	Scheme           *Scheme  `json:"scheme,omitempty"`
	NormalIterations *int     `json:"normal_iterations,omitempty"`
	VertexIterations *int     `json:"vertex_iterations,omitempty"`
	SigmaS           *float64 `json:"sigma_s,omitempty"`
	SigmaCScale      *float64 `json:"sigma_c_scale,omitempty"`
	Smoothness       *float64 `json:"smoothness,omitempty"`
	FixBoundary      *bool    `json:"fix_boundary,omitempty"`
}

// Apply returns base with every field set in fc overridden.
func (fc *FileConfig) Apply(base Config) Config {
	if fc.Scheme != nil {
		base.Scheme = *fc.Scheme
	}
	if fc.NormalIterations != nil {
		base.NormalIterations = *fc.NormalIterations
	}
	if fc.VertexIterations != nil {
		base.VertexIterations = *fc.VertexIterations
	}
	if fc.SigmaS != nil {
		base.SigmaS = *fc.SigmaS
	}
	if fc.SigmaCScale != nil {
		base.SigmaCScale = *fc.SigmaCScale
	}
	if fc.Smoothness != nil {
		base.Smoothness = *fc.Smoothness
	}
	if fc.FixBoundary != nil {
		base.FixBoundary = *fc.FixBoundary
	}
	return base
}

// LoadConfig reads a JSON configuration file and applies it over
// DefaultConfig. The file must have a .json extension and be under 1MB.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg := fc.Apply(DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
