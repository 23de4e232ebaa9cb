package telemetry

// Collector counts spawn and despawn events over fixed windows of
// simulation time and turns each window into a WindowStats. Windows are
// measured in seconds, not ticks, so a varying dt does not stretch them.
type Collector struct {
	windowDurationSec float64

	windowStartTick int64
	windowStartTime float64

	// since windowStartTick
	spawned   int
	despawned int
}

// NewCollector returns a collector whose windows last windowDurationSec of
// simulation time. A non-positive duration flushes every tick.
func NewCollector(windowDurationSec float64) *Collector {
	return &Collector{windowDurationSec: windowDurationSec}
}

// RecordSpawn records an agent entering the simulation.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// RecordDespawn records an agent leaving the simulation.
func (c *Collector) RecordDespawn() {
	c.despawned++
}

// ShouldFlush reports whether the current window is complete at currentTick
// and simTime. At least one tick must have passed since the window began.
func (c *Collector) ShouldFlush(currentTick int64, simTime float64) bool {
	if currentTick <= c.windowStartTick {
		return false
	}
	// Summing dt tick by tick drifts below exact multiples of the window.
	slack := 1e-9 * max(1, c.windowDurationSec)
	return simTime-c.windowStartTime >= c.windowDurationSec-slack
}

// Flush produces a WindowStats from the flock sample taken at currentTick
// and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, simTime float64, flock FlockStats) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,

		Agents:    flock.Agents,
		Spawned:   c.spawned,
		Despawned: c.despawned,

		Polarization: flock.Polarization,
		SpeedMean:    flock.SpeedMean,
		SpeedStd:     flock.SpeedStd,
		NNMean:       flock.NNMean,
		NNP10:        flock.NNP10,
		NNP50:        flock.NNP50,
		NNP90:        flock.NNP90,
		HeadingMean:  flock.HeadingMean,
	}

	c.windowStartTick = currentTick
	c.windowStartTime = simTime
	c.spawned = 0
	c.despawned = 0

	return stats
}

// Reset restarts windowing at tick and simTime, e.g. after restoring a
// snapshot.
func (c *Collector) Reset(tick int64, simTime float64) {
	c.windowStartTick = tick
	c.windowStartTime = simTime
	c.spawned = 0
	c.despawned = 0
}
