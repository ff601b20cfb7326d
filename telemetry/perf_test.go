package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTic()
		pc.StartPhase(PhaseStep)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseTelemetry)
		time.Sleep(50 * time.Microsecond)
		pc.EndTic()
	}

	stats := pc.Stats()
	if stats.AvgTicDuration <= 0 {
		t.Error("expected positive average tic duration")
	}
	if stats.MinTicDuration > stats.MaxTicDuration {
		t.Errorf("min %v > max %v", stats.MinTicDuration, stats.MaxTicDuration)
	}
	for _, phase := range []string{PhaseStep, PhaseTelemetry} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[PhaseOutput]; ok {
		t.Error("output phase was never started")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	// Overfill the window
	for i := 0; i < 12; i++ {
		pc.StartTic()
		pc.StartPhase(PhaseStep)
		time.Sleep(10 * time.Microsecond)
		pc.EndTic()
	}

	if pc.sampleCount != 5 {
		t.Errorf("sampleCount = %d, want 5", pc.sampleCount)
	}
	stats := pc.Stats()
	if stats.TicsPerSecond <= 0 {
		t.Error("expected positive tics per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTic()
		pc.StartPhase(PhaseOutput)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseStep)
		time.Sleep(500 * time.Microsecond)
		pc.EndTic()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseStep] <= stats.PhasePct[PhaseOutput] {
		t.Errorf("expected step (%v%%) > output (%v%%)",
			stats.PhasePct[PhaseStep], stats.PhasePct[PhaseOutput])
	}

	row := stats.ToCSV(100)
	if row.WindowEnd != 100 || row.StepPct != stats.PhasePct[PhaseStep] {
		t.Errorf("unexpected CSV row: %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgTicDuration != 0 {
		t.Error("expected zero avg tic duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}
