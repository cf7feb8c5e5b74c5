package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/shuttle.report/internal/speed"
	"github.com/banshee-data/shuttle.report/internal/units"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/shuttle.defaults.json"

// DefaultDragConstant is the drag constant (1/m) seeded into new sessions.
// It corresponds to g/vt² for a feather shuttle with a terminal velocity of
// roughly 6.95 m/s.
const DefaultDragConstant = 0.20324632

// Config holds the calculator defaults and server settings. Every field is
// optional; the Get* accessors fall back to built-in defaults, so partial
// files are safe.
type Config struct {
	// Calculator seeds
	DefaultModel        *string  `json:"default_model,omitempty"`
	DefaultDragConstant *float64 `json:"default_drag_constant,omitempty"`
	DefaultDistanceM    *float64 `json:"default_distance_m,omitempty"`
	DefaultTimeS        *float64 `json:"default_time_s,omitempty"`
	DefaultAngleDeg     *float64 `json:"default_angle_deg,omitempty"`
	DefaultKnownLengthM *float64 `json:"default_known_length_m,omitempty"`

	// Measurement surfaces
	HitRadius *float64 `json:"hit_radius,omitempty"`

	// Server
	Units          *string `json:"units,omitempty"`
	MaxUploadBytes *int64  `json:"max_upload_bytes,omitempty"`
	MediaDir       *string `json:"media_dir,omitempty"`

	// Reference radar
	ReferenceWindow *string `json:"reference_window,omitempty"` // duration string like "3s"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyConfig returns a Config with all fields set to nil.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field populated from the
// built-in defaults.
func DefaultConfig() *Config {
	e := EmptyConfig()
	return &Config{
		DefaultModel:        ptrString(e.GetDefaultModelName()),
		DefaultDragConstant: ptrFloat64(e.GetDefaultDragConstant()),
		DefaultDistanceM:    ptrFloat64(e.GetDefaultDistanceM()),
		DefaultTimeS:        ptrFloat64(e.GetDefaultTimeS()),
		DefaultAngleDeg:     ptrFloat64(e.GetDefaultAngleDeg()),
		DefaultKnownLengthM: ptrFloat64(e.GetDefaultKnownLengthM()),
		HitRadius:           ptrFloat64(e.GetHitRadius()),
		Units:               ptrString(e.GetUnits()),
		MaxUploadBytes:      ptrInt64(e.GetMaxUploadBytes()),
		MediaDir:            ptrString(e.GetMediaDir()),
		ReferenceWindow:     ptrString("3s"),
	}
}

// Load reads a Config from a JSON file.
// The file must have a .json extension and be under 1MB.
func Load(path string) (*Config, error) {
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

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.DefaultModel != nil {
		if _, err := speed.ParseModel(*c.DefaultModel); err != nil {
			return fmt.Errorf("default_model: %w", err)
		}
	}

	if c.DefaultDragConstant != nil {
		k := *c.DefaultDragConstant
		if k == 0 || math.IsNaN(k) || math.IsInf(k, 0) {
			return fmt.Errorf("default_drag_constant must be a finite non-zero number, got %v", k)
		}
	}

	if c.DefaultTimeS != nil && !(*c.DefaultTimeS > 0) {
		return fmt.Errorf("default_time_s must be positive, got %v", *c.DefaultTimeS)
	}

	if c.DefaultAngleDeg != nil {
		if a := *c.DefaultAngleDeg; a < 0 || a > 90 {
			return fmt.Errorf("default_angle_deg must be between 0 and 90, got %v", a)
		}
	}

	if c.DefaultKnownLengthM != nil && !(*c.DefaultKnownLengthM > 0) {
		return fmt.Errorf("default_known_length_m must be positive, got %v", *c.DefaultKnownLengthM)
	}

	if c.HitRadius != nil && !(*c.HitRadius > 0) {
		return fmt.Errorf("hit_radius must be positive, got %v", *c.HitRadius)
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("units must be one of %s, got %q", units.GetValidUnitsString(), *c.Units)
	}

	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}

	if c.ReferenceWindow != nil && *c.ReferenceWindow != "" {
		if _, err := time.ParseDuration(*c.ReferenceWindow); err != nil {
			return fmt.Errorf("invalid reference_window '%s': %w", *c.ReferenceWindow, err)
		}
	}

	return nil
}

// GetDefaultModelName returns the default_model value or "exponential".
func (c *Config) GetDefaultModelName() string {
	if c.DefaultModel == nil || *c.DefaultModel == "" {
		return string(speed.Exponential)
	}
	return *c.DefaultModel
}

// GetDefaultModel returns the parsed default model, falling back to the
// exponential model on an invalid name.
func (c *Config) GetDefaultModel() speed.Model {
	m, err := speed.ParseModel(c.GetDefaultModelName())
	if err != nil {
		return speed.Exponential
	}
	return m
}

// GetDefaultDragConstant returns the default_drag_constant value or DefaultDragConstant.
func (c *Config) GetDefaultDragConstant() float64 {
	if c.DefaultDragConstant == nil {
		return DefaultDragConstant
	}
	return *c.DefaultDragConstant
}

// GetDefaultDistanceM returns the default_distance_m value or the default.
func (c *Config) GetDefaultDistanceM() float64 {
	if c.DefaultDistanceM == nil {
		return 5.18
	}
	return *c.DefaultDistanceM
}

// GetDefaultTimeS returns the default_time_s value or the default.
func (c *Config) GetDefaultTimeS() float64 {
	if c.DefaultTimeS == nil {
		return 0.2
	}
	return *c.DefaultTimeS
}

// GetDefaultAngleDeg returns the default_angle_deg value or the default.
func (c *Config) GetDefaultAngleDeg() float64 {
	if c.DefaultAngleDeg == nil {
		return 0
	}
	return *c.DefaultAngleDeg
}

// GetDefaultKnownLengthM returns the default_known_length_m value or the
// width of a doubles court.
func (c *Config) GetDefaultKnownLengthM() float64 {
	if c.DefaultKnownLengthM == nil {
		return 6.1
	}
	return *c.DefaultKnownLengthM
}

// GetHitRadius returns the hit_radius value or the default.
func (c *Config) GetHitRadius() float64 {
	if c.HitRadius == nil {
		return 12
	}
	return *c.HitRadius
}

// GetUnits returns the units value or the default.
func (c *Config) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.KPH
	}
	return *c.Units
}

// GetMaxUploadBytes returns the max_upload_bytes value or 512 MiB.
func (c *Config) GetMaxUploadBytes() int64 {
	if c.MaxUploadBytes == nil {
		return 512 << 20
	}
	return *c.MaxUploadBytes
}

// GetMediaDir returns the media_dir value or a directory under the OS temp dir.
func (c *Config) GetMediaDir() string {
	if c.MediaDir == nil || *c.MediaDir == "" {
		return filepath.Join(os.TempDir(), "shuttle-media")
	}
	return *c.MediaDir
}

// GetReferenceWindow parses and returns the ReferenceWindow as a time.Duration.
func (c *Config) GetReferenceWindow() time.Duration {
	if c.ReferenceWindow == nil || *c.ReferenceWindow == "" {
		return 3 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ReferenceWindow)
	if err != nil {
		return 3 * time.Second // default on parse error
	}
	return d
}
