package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/hypertrophy/config"
	"github.com/pthm-cable/hypertrophy/telemetry"
)

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output %q missing %q", out.String(), version)
	}
}

func TestRunWithOverrides(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer

	cmd := newRootCmd(&logs)
	cmd.SetArgs([]string{
		"--output-dir", dir,
		"--seed", "3",
		"--variant", "extended",
		"--max-tic", "12",
		"--intensity", "80",
		"--hours-of-sleep", "7.5",
		"--nutrition-quality", "1.2",
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run failed: %v\nlogs:\n%s", err, logs.String())
	}

	obs, err := telemetry.ReadObservations(filepath.Join(dir, telemetry.ObservationsFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 13 {
		t.Errorf("got %d observation rows, want 13", len(obs))
	}

	snap, err := config.Load(filepath.Join(dir, telemetry.ConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Run.Variant != config.VariantExtended || snap.Run.MaxTic != 12 || snap.Run.Seed != 3 {
		t.Errorf("run section not overridden: %+v", snap.Run)
	}
	if snap.Subject.Intensity != 80 || snap.Subject.HoursOfSleep != 7.5 || snap.Subject.NutritionQuality != 1.2 {
		t.Errorf("subject section not overridden: %+v", snap.Subject)
	}
	// Untouched flags keep the defaults
	if snap.Subject.DaysBetweenWorkouts != 5 || !snap.Subject.Lift {
		t.Errorf("defaults lost: %+v", snap.Subject)
	}

	if !strings.Contains(logs.String(), `"msg":"run complete"`) {
		t.Errorf("missing run complete log:\n%s", logs.String())
	}
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--days-between-workouts", "0", "--max-tic", "3"})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "days between workouts") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
