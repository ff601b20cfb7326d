package sim

import "github.com/pthm-cable/hypertrophy/telemetry"

// flushTelemetry closes the current stats window and runs bookmark detection.
func (s *Simulation) flushTelemetry() error {
	stats := s.collector.Flush(s.tic, s.grid)
	perfStats := s.perf.Stats()
	s.lastFlush = s.tic

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteStats(stats); err != nil {
		return err
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTic); err != nil {
		return err
	}

	for _, bm := range s.bookmarks.Check(stats) {
		s.bookmarkCount++
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			return err
		}
		if s.snapshotDir != "" {
			if err := s.saveSnapshot(&bm); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveSnapshot writes the current grid state tagged with bm.
func (s *Simulation) saveSnapshot(bm *telemetry.Bookmark) error {
	snap := telemetry.TakeSnapshot(s.grid, s.seed, s.cfg.Run.Variant, s.tic, bm)
	_, err := telemetry.SaveSnapshot(snap, s.snapshotDir)
	return err
}
