package telemetry

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// RunSummary holds run-wide totals, written as summary.yaml at the end of a
// run.
type RunSummary struct {
	Seed    int64  `yaml:"seed"`
	Variant string `yaml:"variant"`
	Tics    int    `yaml:"tics"`

	InitialMass    float64 `yaml:"initial_mass"`
	FinalMass      float64 `yaml:"final_mass"`
	PeakMass       float64 `yaml:"peak_mass"`
	PeakTic        int     `yaml:"peak_tic"`
	MinMass        float64 `yaml:"min_mass"`
	MinTic         int     `yaml:"min_tic"`
	FinalAnabolic  float64 `yaml:"final_anabolic"`
	FinalCatabolic float64 `yaml:"final_catabolic"`

	TrainingSessions int `yaml:"training_sessions"`
	Pulses           int `yaml:"pulses"`
	Bookmarks        int `yaml:"bookmarks"`
}

// MassGain returns the relative change from the initial to the final mass.
func (s RunSummary) MassGain() float64 {
	if s.InitialMass == 0 {
		return 0
	}
	return s.FinalMass/s.InitialMass - 1
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("seed", s.Seed),
		slog.String("variant", s.Variant),
		slog.Int("tics", s.Tics),
		slog.Float64("initial_mass", s.InitialMass),
		slog.Float64("final_mass", s.FinalMass),
		slog.Float64("mass_gain", s.MassGain()),
		slog.Float64("peak_mass", s.PeakMass),
		slog.Int("peak_tic", s.PeakTic),
		slog.Int("training_sessions", s.TrainingSessions),
		slog.Int("pulses", s.Pulses),
		slog.Int("bookmarks", s.Bookmarks),
	)
}

// WriteYAML writes the summary to path.
func (s RunSummary) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
