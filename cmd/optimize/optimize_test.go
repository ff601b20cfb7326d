package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/hypertrophy/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := []float64{60, 7.5, 3}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("param %s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{120.4, 2, 3.6})
	want := []float64{100, 4, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Clamp[%s] = %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestApplyAndExtract(t *testing.T) {
	pv := NewParamVector()
	cfg := config.MustLoad("")

	pv.ApplyToConfig(cfg, []float64{71.6, 9.25, 6.4})
	if cfg.Subject.Intensity != 72 || cfg.Subject.HoursOfSleep != 9.25 || cfg.Subject.DaysBetweenWorkouts != 6 {
		t.Errorf("unexpected subject: %+v", cfg.Subject)
	}

	got := pv.ExtractFromConfig(cfg)
	want := []float64{72, 9.25, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extract[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "0m42s"},
		{3*time.Minute + 5*time.Second, "3m05s"},
		{2*time.Hour + 7*time.Minute + 9*time.Second, "2h07m09s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func smallConfig() *config.Config {
	cfg := config.MustLoad("")
	cfg.Model.GridWidth = 5
	cfg.Model.GridHeight = 5
	cfg.Run.MaxTic = 15
	cfg.ComputeDerived()
	return cfg
}

func TestEvaluateDeterministic(t *testing.T) {
	fe := NewFitnessEvaluator(context.Background(), NewParamVector(), evalSeeds(3), smallConfig())

	raw := []float64{90, 8, 3}
	a := fe.Evaluate(raw)
	b := fe.Evaluate(raw)
	if a != b {
		t.Errorf("repeat evaluation differs: %v vs %v", a, b)
	}
	if a >= 0 {
		t.Errorf("fitness %v should be the negated positive mass", a)
	}

	ev := fe.Last()
	if math.Abs(ev.Fitness+ev.MeanFinalMass) > 1e-12 {
		t.Errorf("fitness %v != -mean mass %v", ev.Fitness, ev.MeanFinalMass)
	}
	if ev.Intensity != 90 || ev.DaysBetweenWorkouts != 3 {
		t.Errorf("evaluation params not recorded: %+v", ev)
	}
	if fe.BestSummary().FinalMass <= 0 {
		t.Error("best summary not recorded")
	}
}

func TestEvaluateFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.Model.GridWidth = 0
	fe := NewFitnessEvaluator(context.Background(), NewParamVector(), evalSeeds(2), cfg)

	if got := fe.Evaluate([]float64{50, 8, 5}); got != failedFitness {
		t.Errorf("fitness = %v, want failedFitness", got)
	}
}

func TestRunWritesResults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "base.yaml")
	if err := smallConfig().WriteYAML(cfgPath); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), options{
		configPath: cfgPath,
		outputDir:  dir,
		method:     "nelder-mead",
		seeds:      2,
		maxEvals:   6,
		logLevel:   "warn",
	})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	for _, name := range []string{logFile, bestConfigFile, bestRunFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	best, err := config.Load(filepath.Join(dir, bestConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := best.Params(); err != nil {
		t.Errorf("best config is invalid: %v", err)
	}
}

func TestNewMethod(t *testing.T) {
	for _, name := range []string{"nelder-mead", "cmaes"} {
		if _, err := newMethod(name, 3, 0); err != nil {
			t.Errorf("newMethod(%q) error: %v", name, err)
		}
	}
	if _, err := newMethod("bogus", 3, 0); err == nil {
		t.Error("expected error for unknown method")
	}
}
