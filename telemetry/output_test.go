package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/hypertrophy/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// A nil manager swallows writes
	if err := om.WriteObservation(Observation{Tic: 1}); err != nil {
		t.Errorf("nil WriteObservation error: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close error: %v", err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager error: %v", err)
	}

	series := []Observation{
		{Tic: 0, MuscleMass: 2.5, AverageAnabolic: 50, AverageCatabolic: 52},
		{Tic: 1, MuscleMass: 2.6, AverageAnabolic: 51.5, AverageCatabolic: 53},
		{Tic: 2, MuscleMass: 2.7, AverageAnabolic: 52, AverageCatabolic: 54.25},
	}
	for _, o := range series {
		if err := om.WriteObservation(o); err != nil {
			t.Fatalf("WriteObservation error: %v", err)
		}
	}
	if err := om.WriteStats(WindowStats{WindowEndTic: 2, MuscleMass: 2.7}); err != nil {
		t.Fatalf("WriteStats error: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkPlateau, Tic: 2, Description: "flat"}); err != nil {
		t.Fatalf("WriteBookmark error: %v", err)
	}
	if err := om.WriteConfig(config.MustLoad("")); err != nil {
		t.Fatalf("WriteConfig error: %v", err)
	}
	if err := om.WriteSummary(RunSummary{Seed: 9, FinalMass: 2.7}); err != nil {
		t.Fatalf("WriteSummary error: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ObservationsFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "tic,muscle_mass,anabolic,catabolic" {
		t.Errorf("header = %q", lines[0])
	}

	got, err := ReadObservations(filepath.Join(dir, ObservationsFile))
	if err != nil {
		t.Fatalf("ReadObservations error: %v", err)
	}
	if len(got) != len(series) {
		t.Fatalf("read %d observations, want %d", len(got), len(series))
	}
	for i := range series {
		if got[i] != series[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], series[i])
		}
	}

	for _, name := range []string{StatsFile, BookmarksFile, ConfigFile, SummaryFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestPlotsRequireData(t *testing.T) {
	dir := t.TempDir()
	if err := PlotMuscleMass(filepath.Join(dir, "m.png"), nil); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestWritePlots(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	series := []Observation{
		{Tic: 0, MuscleMass: 2.0, AverageAnabolic: 50, AverageCatabolic: 52},
		{Tic: 1, MuscleMass: 2.2, AverageAnabolic: 60, AverageCatabolic: 58},
	}
	if err := om.WritePlots(series); err != nil {
		t.Fatalf("WritePlots error: %v", err)
	}
	for _, name := range []string{MassPlotFile, HormonePlotFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}
