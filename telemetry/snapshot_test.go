package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	g := newTestGrid(t)
	if err := g.Setup(); err != nil {
		t.Fatal(err)
	}

	bm := &Bookmark{Type: BookmarkGrowthSpurt, Tic: 200, Description: "test"}
	snap := TakeSnapshot(g, 42, "original", 200, bm)

	if len(snap.Patches) != 16 {
		t.Fatalf("got %d patches, want 16", len(snap.Patches))
	}
	if math.Abs(snap.MuscleMass()-g.TotalMuscleMass()) > 1e-12 {
		t.Errorf("snapshot mass %v != grid mass %v", snap.MuscleMass(), g.TotalMuscleMass())
	}
	// Row-major order
	if p := snap.Patches[5]; p.X != 1 || p.Y != 1 || p.FiberID != 6 {
		t.Errorf("patch 5 = %+v", p)
	}

	dir := filepath.Join(t.TempDir(), "snapshots")
	path, err := SaveSnapshot(snap, dir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_200_growth_spurt.json") {
		t.Errorf("unexpected path %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Seed != 42 || loaded.Tic != 200 || loaded.GridWidth != 4 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkGrowthSpurt {
		t.Errorf("bookmark not preserved: %+v", loaded.Bookmark)
	}
	for i := range snap.Patches {
		if loaded.Patches[i] != snap.Patches[i] {
			t.Errorf("patch %d = %+v, want %+v", i, loaded.Patches[i], snap.Patches[i])
		}
	}
}

func TestSnapshotWithoutBookmark(t *testing.T) {
	snap := TakeSnapshot(newTestGrid(t), 1, "extended", 0, nil)
	path, err := SaveSnapshot(snap, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "snapshot_0.json" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}
