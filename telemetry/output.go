package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hypertrophy/config"
)

// Output file names inside the run directory.
const (
	ObservationsFile = "observations.csv"
	StatsFile        = "fiber_stats.csv"
	BookmarksFile    = "bookmarks.csv"
	PerfFile         = "perf.csv"
	ConfigFile       = "config.yaml"
	SummaryFile      = "summary.yaml"
	MassPlotFile     = "muscle_mass.png"
	HormonePlotFile  = "hormones.png"
)

// CSVLog appends records of one type to a CSV file, writing the header with
// the first record.
type CSVLog struct {
	file          *os.File
	headerWritten bool
}

// CreateCSVLog creates (or truncates) the CSV file at path.
func CreateCSVLog(path string) (*CSVLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &CSVLog{file: f}, nil
}

// Write appends records, a slice of gocsv-tagged structs.
func (l *CSVLog) Write(records any) error {
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return err
		}
		l.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, l.file)
}

// Close closes the underlying file. Safe on a nil log.
func (l *CSVLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// OutputManager handles structured run output with CSV logging.
// A nil OutputManager discards everything.
type OutputManager struct {
	dir          string
	observations *CSVLog
	stats        *CSVLog
	bookmarks    *CSVLog
	perf         *CSVLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.observations, err = CreateCSVLog(filepath.Join(dir, ObservationsFile)); err != nil {
		return nil, err
	}
	if om.stats, err = CreateCSVLog(filepath.Join(dir, StatsFile)); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = CreateCSVLog(filepath.Join(dir, BookmarksFile)); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = CreateCSVLog(filepath.Join(dir, PerfFile)); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteObservation appends one per-tic row to observations.csv.
func (om *OutputManager) WriteObservation(obs Observation) error {
	if om == nil {
		return nil
	}
	if err := om.observations.Write([]Observation{obs}); err != nil {
		return fmt.Errorf("writing observation: %w", err)
	}
	return nil
}

// WriteStats writes a window stats record to fiber_stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.stats.Write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.Write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.Write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSummary saves the run summary as YAML.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}
	return s.WriteYAML(filepath.Join(om.dir, SummaryFile))
}

// WritePlots renders the mass and hormone series as PNG charts.
func (om *OutputManager) WritePlots(series []Observation) error {
	if om == nil {
		return nil
	}
	if err := PlotMuscleMass(filepath.Join(om.dir, MassPlotFile), series); err != nil {
		return err
	}
	return PlotHormones(filepath.Join(om.dir, HormonePlotFile), series)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, l := range []*CSVLog{om.observations, om.stats, om.bookmarks, om.perf} {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadObservations loads a previously written observations.csv.
func ReadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening observations: %w", err)
	}
	defer f.Close()

	var out []Observation
	if err := gocsv.UnmarshalFile(f, &out); err != nil {
		return nil, fmt.Errorf("parsing observations: %w", err)
	}
	return out, nil
}
