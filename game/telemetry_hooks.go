package game

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles
// bookmarks and snapshots.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick, s.time) {
		return
	}

	// Sample flock shape from the state just written back
	flock := s.sampleFlock()

	// Flush the stats window
	stats := s.collector.Flush(s.tick, s.time, flock)
	perfStats := s.perf.Stats()
	s.lastWindow = &stats
	s.metrics.ObserveWindow(stats)

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	s.logger.Debug("stats window", "stats", stats)

	// Write to CSV if output manager is enabled
	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			s.logger.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			s.logger.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	bookmarks := s.bookmarks.Check(stats)
	for _, bm := range bookmarks {
		if s.logStats {
			bm.LogBookmark()
		}
		s.metrics.RecordBookmark(bm)

		// Write to CSV if output manager is enabled
		if s.output != nil {
			if err := s.output.WriteBookmark(bm); err != nil {
				s.logger.Error("failed to write bookmark", "error", err)
			}
		}
	}

	// One snapshot per window; the first bookmark names it
	if s.snapshotDir != "" {
		var bm *telemetry.Bookmark
		if len(bookmarks) > 0 {
			bm = &bookmarks[0]
		}
		s.saveSnapshot(bm)
	}
}

// sampleFlock computes flock statistics from the parallel buffers, which
// hold every agent's post-tick state in ID order.
func (s *Simulation) sampleFlock() telemetry.FlockStats {
	p := s.parallel
	pos := make([]r2.Vec, len(p.intents))
	vel := make([]r2.Vec, len(p.intents))
	for i := range p.intents {
		pos[i] = p.intents[i].Pos
		vel[i] = p.intents[i].Vel
	}
	return telemetry.ComputeFlockStats(pos, vel, s.params.Topology)
}

// saveSnapshot creates and saves a snapshot to disk.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := s.Snapshot(bookmark)

	path, err := telemetry.SaveSnapshot(snapshot, s.snapshotDir)
	if err != nil {
		s.logger.Error("failed to save snapshot", "error", err)
		return
	}

	s.logger.Info("snapshot saved", "path", path, "tick", s.tick)
}

// Snapshot captures the current state so it can be saved and restored.
func (s *Simulation) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       s.runID,
		RNGSeed:     s.cfg.Population.Seed,
		WorldWidth:  s.env.Width,
		WorldHeight: s.env.Height,
		Policy:      s.policy.String(),
		Tick:        s.tick,
		SimTime:     s.time,
		NextID:      s.nextID,
		Bookmark:    bookmark,
	}

	for _, a := range s.Agents(nil) {
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			ID:      a.ID,
			X:       a.Position.X,
			Y:       a.Position.Y,
			VelX:    a.Velocity.X,
			VelY:    a.Velocity.Y,
			Heading: a.Heading,
			Hue:     a.Hue,
		})
	}

	return snapshot
}
