package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/hypertrophy/muscle"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete grid state at one tic.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Variant string `json:"variant"`

	GridWidth  int `json:"grid_width"`
	GridHeight int `json:"grid_height"`

	Tic int `json:"tic"`

	Patches []PatchState `json:"patches"` // row-major

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// PatchState holds one patch's hormones and fiber.
type PatchState struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Anabolic  float64 `json:"anabolic"`
	Catabolic float64 `json:"catabolic"`

	FiberID      int     `json:"fiber_id"`
	FiberSize    float64 `json:"fiber_size"`
	FiberMaxSize int     `json:"fiber_max_size"`
}

// TakeSnapshot captures the state of g at tic.
func TakeSnapshot(g *muscle.Grid, seed int64, variant string, tic int, bm *Bookmark) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       seed,
		Variant:    variant,
		GridWidth:  g.Width(),
		GridHeight: g.Height(),
		Tic:        tic,
		Patches:    make([]PatchState, 0, g.Width()*g.Height()),
		Bookmark:   bm,
	}
	g.ForEach(func(p *muscle.Patch) {
		s.Patches = append(s.Patches, PatchState{
			X:            p.X,
			Y:            p.Y,
			Anabolic:     p.Anabolic,
			Catabolic:    p.Catabolic,
			FiberID:      p.Fiber.ID,
			FiberSize:    p.Fiber.Size,
			FiberMaxSize: p.Fiber.MaxSize,
		})
	})
	return s
}

// MuscleMass recomputes the grid muscle mass from the stored fibers.
func (s *Snapshot) MuscleMass() float64 {
	var total float64
	for _, p := range s.Patches {
		total += p.FiberSize
	}
	return total / 100
}

// SaveSnapshot writes a snapshot to dir and returns the file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tic)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tic, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
