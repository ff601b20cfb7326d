// Package config provides configuration loading for the muscle simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Variant names understood by Run.Variant.
const (
	VariantOriginal = "original"
	VariantExtended = "extended"
)

// Default tic budgets per variant, used when run.max_tic is 0.
const (
	OriginalMaxTic = 1000
	ExtendedMaxTic = 3000
)

// Config holds all simulation configuration parameters.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Run       RunConfig       `yaml:"run"`
	Subject   SubjectConfig   `yaml:"subject"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ModelConfig holds the fixed physical constants of the tissue model.
type ModelConfig struct {
	GridWidth    int     `yaml:"grid_width"`
	GridHeight   int     `yaml:"grid_height"`
	AnabolicMin  float64 `yaml:"anabolic_min"`
	AnabolicMax  float64 `yaml:"anabolic_max"`
	CatabolicMin float64 `yaml:"catabolic_min"`
	CatabolicMax float64 `yaml:"catabolic_max"`
	DiffuseRate  float64 `yaml:"diffuse_rate"`  // Fraction of a patch's hormone exported per tic
	MaxNeighbors int     `yaml:"max_neighbors"` // Share divisor, independent of the real neighbor count
}

// RunConfig holds settings of a single simulation run.
type RunConfig struct {
	Variant string `yaml:"variant"` // "original" or "extended"
	MaxTic  int    `yaml:"max_tic"` // 0 = variant default
	Seed    int64  `yaml:"seed"`    // 0 = time-based
}

// SubjectConfig holds the user-chosen training and lifestyle knobs.
type SubjectConfig struct {
	Intensity                 int     `yaml:"intensity"` // 0-100
	HoursOfSleep              float64 `yaml:"hours_of_sleep"`
	DaysBetweenWorkouts       int     `yaml:"days_between_workouts"`
	SlowTwitchFiberPercentage int     `yaml:"slow_twitch_fiber_percentage"` // 0-100
	Lift                      bool    `yaml:"lift"`
	NutritionQuality          float64 `yaml:"nutrition_quality"`  // extended variant only, 1 = neutral
	NutritionResponse         float64 `yaml:"nutrition_response"` // how strongly nutrition scales daily gain
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int  `yaml:"stats_window"` // Tics per fiber-stats window
	Plot        bool `yaml:"plot"`         // Render muscle_mass.png at the end of a run
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxTic    int  // Run.MaxTic or the variant default
	Extended  bool // Run.Variant == extended
	CellCount int  // GridWidth * GridHeight
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// ComputeDerived recalculates derived values. Call it again after mutating
// a loaded config (for example from CLI overrides).
func (c *Config) ComputeDerived() {
	c.Derived.Extended = c.Run.Variant == VariantExtended

	c.Derived.MaxTic = c.Run.MaxTic
	if c.Derived.MaxTic == 0 {
		if c.Derived.Extended {
			c.Derived.MaxTic = ExtendedMaxTic
		} else {
			c.Derived.MaxTic = OriginalMaxTic
		}
	}

	c.Derived.CellCount = c.Model.GridWidth * c.Model.GridHeight
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
