package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hypertrophy/config"
)

func testBase() *config.Config {
	cfg := config.MustLoad("")
	cfg.Model.GridWidth = 4
	cfg.Model.GridHeight = 4
	cfg.Run.MaxTic = 10
	cfg.ComputeDerived()
	return cfg
}

func TestExpand(t *testing.T) {
	combos := Expand([]int{50, 90}, []float64{6, 8, 10}, []int{3}, []int{20, 80})
	if len(combos) != 12 {
		t.Fatalf("got %d combinations, want 12", len(combos))
	}
	if combos[0] != (Combination{50, 6, 3, 20}) {
		t.Errorf("first = %+v", combos[0])
	}
	if combos[len(combos)-1] != (Combination{90, 10, 3, 80}) {
		t.Errorf("last = %+v", combos[len(combos)-1])
	}
}

func TestValidateRejectsBadCombination(t *testing.T) {
	combos := Expand([]int{50}, []float64{8, 30}, []int{5}, []int{50})
	err := Validate(testBase(), combos)
	if err == nil || !strings.Contains(err.Error(), "combination 1") {
		t.Fatalf("expected error naming combination 1, got %v", err)
	}
}

func TestRunMatchesSequential(t *testing.T) {
	base := testBase()
	combos := Expand([]int{40, 95}, []float64{8}, []int{2, 5}, []int{50})
	seeds := []int64{1, 2, 3}

	parallel, err := Run(context.Background(), base, combos, seeds, 4)
	if err != nil {
		t.Fatal(err)
	}
	serial, err := Run(context.Background(), base, combos, seeds, 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(parallel) != len(combos)*len(seeds) {
		t.Fatalf("got %d results, want %d", len(parallel), len(combos)*len(seeds))
	}
	for i := range parallel {
		if parallel[i] != serial[i] {
			t.Errorf("result %d differs between job counts:\n%+v\n%+v", i, parallel[i], serial[i])
		}
		if parallel[i].Run != i {
			t.Errorf("result %d has run index %d", i, parallel[i].Run)
		}
	}

	// Training on tics 0, 5 with cadence 5; 0, 2, 4, 6, 8 with cadence 2
	if parallel[0].TrainingSessions != 5 || parallel[3].TrainingSessions != 2 {
		t.Errorf("sessions = %d, %d", parallel[0].TrainingSessions, parallel[3].TrainingSessions)
	}
}

func TestSummarize(t *testing.T) {
	combos := []Combination{{Intensity: 10}, {Intensity: 20}}
	results := []Result{
		{FinalMass: 2, MassGain: 0.1},
		{FinalMass: 4, MassGain: 0.3},
		{FinalMass: 3, MassGain: 0},
		{FinalMass: 3, MassGain: 0},
	}
	agg := Summarize(combos, results)
	if len(agg) != 2 {
		t.Fatalf("got %d aggregates", len(agg))
	}
	if agg[0].MeanFinalMass != 3 || agg[0].StdFinalMass != 1 || math.Abs(agg[0].MeanGain-0.2) > 1e-12 {
		t.Errorf("first aggregate = %+v", agg[0])
	}
	if agg[1].Intensity != 20 || agg[1].StdFinalMass != 0 || agg[1].Runs != 2 {
		t.Errorf("second aggregate = %+v", agg[1])
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "base.yaml")
	if err := testBase().WriteYAML(cfgPath); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), options{
		configPath: cfgPath,
		outputDir:  dir,
		seeds:      2,
		jobs:       2,
		intensity:  []int{60, 90},
	})
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, resultsFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []Result
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Errorf("got %d rows, want 4", len(rows))
	}
	for _, name := range []string{summaryFile, baseFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
