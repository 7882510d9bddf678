// Package config holds the run configuration of the topological feature
// pipeline: the on-disk JSON defaults file and the immutable Pipeline value
// threaded through every stage.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/tda.defaults.json"

// Defaults used when neither the config file nor a flag sets a value.
const (
	DefaultWindowSize          = 50
	DefaultMaxDimension        = 1
	DefaultFieldCharacteristic = 11
	DefaultMinPersistence      = 0.0
	DefaultHomologyDimension   = 1
	DefaultNormExponent        = 1.0
	DefaultDistance            = DistanceEuclidean
	DefaultProgressEvery       = 100
)

// Distance metric names accepted in configuration.
const (
	DistanceEuclidean = "euclidean"
	DistanceManhattan = "manhattan"
	DistanceChebyshev = "chebyshev"
)

// FailurePolicy decides what happens when a single window fails.
type FailurePolicy string

const (
	// FailAbort cancels the whole run on the first window error.
	FailAbort FailurePolicy = "abort"
	// FailSkip logs the error and emits a placeholder row with a NaN norm.
	FailSkip FailurePolicy = "skip"
)

// FileConfig is the JSON schema of the defaults file. Every field is
// optional; omitted fields fall back to the package defaults through the
// Get* accessors. The Rips threshold has no JSON form for +Inf, so an
// omitted max_edge_length means "no threshold".
type FileConfig struct {
	WindowSize        *int     `json:"window_size,omitempty"`
	MaxEdgeLength     *float64 `json:"max_edge_length,omitempty"`
	CpxDimension      *int     `json:"cpx_dimension,omitempty"`
	FieldCharac       *int     `json:"field_charac,omitempty"`
	MinPersistence    *float64 `json:"min_persistence,omitempty"`
	HomologyDimension *int     `json:"homology_dimension,omitempty"`
	NormExponent      *float64 `json:"norm_exponent,omitempty"`
	Distance          *string  `json:"distance,omitempty"`
	Workers           *int     `json:"workers,omitempty"`
	OnWindowError     *string  `json:"on_window_error,omitempty"`
	ProgressEvery     *int     `json:"progress_every,omitempty"`
}

// LoadFileConfig loads a FileConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadFileConfig(path string) (*FileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &FileConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Resolve().Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up to the repository root. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultConfig() *FileConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/tda/<pkg>/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadFileConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// GetWindowSize returns the window_size value or the default.
func (c *FileConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return DefaultWindowSize
	}
	return *c.WindowSize
}

// GetMaxEdgeLength returns the max_edge_length value or +Inf.
func (c *FileConfig) GetMaxEdgeLength() float64 {
	if c.MaxEdgeLength == nil {
		return math.Inf(1)
	}
	return *c.MaxEdgeLength
}

// GetCpxDimension returns the cpx_dimension value or the default.
func (c *FileConfig) GetCpxDimension() int {
	if c.CpxDimension == nil {
		return DefaultMaxDimension
	}
	return *c.CpxDimension
}

// GetFieldCharac returns the field_charac value or the default.
func (c *FileConfig) GetFieldCharac() int {
	if c.FieldCharac == nil {
		return DefaultFieldCharacteristic
	}
	return *c.FieldCharac
}

// GetMinPersistence returns the min_persistence value or the default.
func (c *FileConfig) GetMinPersistence() float64 {
	if c.MinPersistence == nil {
		return DefaultMinPersistence
	}
	return *c.MinPersistence
}

// GetHomologyDimension returns the homology_dimension value or the default.
func (c *FileConfig) GetHomologyDimension() int {
	if c.HomologyDimension == nil {
		return DefaultHomologyDimension
	}
	return *c.HomologyDimension
}

// GetNormExponent returns the norm_exponent value or the default.
func (c *FileConfig) GetNormExponent() float64 {
	if c.NormExponent == nil {
		return DefaultNormExponent
	}
	return *c.NormExponent
}

// GetDistance returns the distance value or the default.
func (c *FileConfig) GetDistance() string {
	if c.Distance == nil || *c.Distance == "" {
		return DefaultDistance
	}
	return *c.Distance
}

// GetWorkers returns the workers value, or GOMAXPROCS when unset or non-positive.
func (c *FileConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetOnWindowError returns the on_window_error value or FailAbort.
func (c *FileConfig) GetOnWindowError() FailurePolicy {
	if c.OnWindowError == nil || *c.OnWindowError == "" {
		return FailAbort
	}
	return FailurePolicy(*c.OnWindowError)
}

// GetProgressEvery returns the progress_every value or the default.
func (c *FileConfig) GetProgressEvery() int {
	if c.ProgressEvery == nil {
		return DefaultProgressEvery
	}
	return *c.ProgressEvery
}

// Resolve applies defaults and returns the immutable Pipeline value.
func (c *FileConfig) Resolve() Pipeline {
	return Pipeline{
		WindowSize:          c.GetWindowSize(),
		MaxEdgeLength:       c.GetMaxEdgeLength(),
		MaxDimension:        c.GetCpxDimension(),
		FieldCharacteristic: c.GetFieldCharac(),
		MinPersistence:      c.GetMinPersistence(),
		HomologyDimension:   c.GetHomologyDimension(),
		NormExponent:        c.GetNormExponent(),
		Distance:            c.GetDistance(),
		Workers:             c.GetWorkers(),
		OnWindowError:       c.GetOnWindowError(),
		ProgressEvery:       c.GetProgressEvery(),
	}
}

// Pipeline is the resolved, immutable run configuration. It is passed by
// value into every stage so windows can be processed concurrently.
type Pipeline struct {
	WindowSize          int     // W: points per window
	MaxEdgeLength       float64 // θ: Rips threshold, +Inf for none
	MaxDimension        int     // D: maximal simplex dimension
	FieldCharacteristic int     // p: coefficient field Z/pZ
	MinPersistence      float64 // ε: interval kept iff death-birth > ε
	HomologyDimension   int     // diagram dimension fed to the landscape
	NormExponent        float64 // q: landscape norm exponent
	Distance            string
	Workers             int
	OnWindowError       FailurePolicy
	ProgressEvery       int // log progress every N windows, 0 disables
}

// Default returns the Pipeline used when no config file or flag is given.
func Default() Pipeline {
	return (&FileConfig{}).Resolve()
}

// Validate checks that the configuration values are usable.
func (p Pipeline) Validate() error {
	if p.WindowSize < 1 {
		return fmt.Errorf("window_size must be positive, got %d", p.WindowSize)
	}
	if math.IsNaN(p.MaxEdgeLength) || p.MaxEdgeLength < 0 {
		return fmt.Errorf("max_edge_length must be non-negative, got %v", p.MaxEdgeLength)
	}
	if p.MaxDimension < 0 {
		return fmt.Errorf("cpx_dimension must be non-negative, got %d", p.MaxDimension)
	}
	if !IsPrime(p.FieldCharacteristic) {
		return fmt.Errorf("field_charac must be prime, got %d", p.FieldCharacteristic)
	}
	if math.IsNaN(p.MinPersistence) {
		return fmt.Errorf("min_persistence must be a number")
	}
	if p.HomologyDimension < 0 {
		return fmt.Errorf("homology_dimension must be non-negative, got %d", p.HomologyDimension)
	}
	if math.IsNaN(p.NormExponent) || p.NormExponent < 1 {
		return fmt.Errorf("norm_exponent must be >= 1, got %v", p.NormExponent)
	}
	switch p.Distance {
	case DistanceEuclidean, DistanceManhattan, DistanceChebyshev:
	default:
		return fmt.Errorf("unknown distance %q", p.Distance)
	}
	if p.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", p.Workers)
	}
	switch p.OnWindowError {
	case FailAbort, FailSkip:
	default:
		return fmt.Errorf("on_window_error must be %q or %q, got %q", FailAbort, FailSkip, p.OnWindowError)
	}
	if p.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must be non-negative, got %d", p.ProgressEvery)
	}
	return nil
}

// IsPrime reports whether n is a prime usable as a field characteristic.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	// ProbablyPrime is exact for inputs below 2^64.
	return big.NewInt(int64(n)).ProbablyPrime(0)
}
