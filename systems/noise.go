package systems

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// WanderSource produces the raw wander vector for an agent at a point in
// simulated time. Components lie in [-1, 1). Sample is called from a single
// goroutine, once per agent per tick, in a fixed agent order.
type WanderSource interface {
	Sample(id uint32, t float64) r2.Vec
}

// UniformWander draws each axis independently and uniformly from [-1, 1).
type UniformWander struct {
	rng *rand.Rand
}

// NewUniformWander creates a uniform source seeded for reproducible runs.
func NewUniformWander(seed int64) *UniformWander {
	return &UniformWander{rng: rand.New(rand.NewSource(seed))}
}

// Sample ignores id and t; successive calls advance the RNG.
func (u *UniformWander) Sample(uint32, float64) r2.Vec {
	return r2.Vec{
		X: u.rng.Float64()*2 - 1,
		Y: u.rng.Float64()*2 - 1,
	}
}

// NoiseWander samples coherent OpenSimplex noise, so an agent's jitter turns
// smoothly over time instead of changing direction every tick. Each agent
// reads its own slice of the noise field.
type NoiseWander struct {
	noise     opensimplex.Noise
	idScale   float64
	timeScale float64
}

// NewNoiseWander creates a coherent source. idScale spreads agents apart in
// the noise field; timeScale sets how quickly each agent's sample drifts.
func NewNoiseWander(seed int64, idScale, timeScale float64) *NoiseWander {
	return &NoiseWander{
		noise:     opensimplex.NewNormalized(seed),
		idScale:   idScale,
		timeScale: timeScale,
	}
}

// Sample is deterministic in (id, t).
func (n *NoiseWander) Sample(id uint32, t float64) r2.Vec {
	u := float64(id) * n.idScale
	z := t * n.timeScale
	return r2.Vec{
		X: signed(n.noise.Eval3(u, 0, z)),
		Y: signed(n.noise.Eval3(u, 53.7, z)),
	}
}

// signed maps a [0, 1] noise value onto [-1, 1).
func signed(v float64) float64 {
	s := v*2 - 1
	if s < -1 {
		return -1
	}
	if s >= 1 {
		return math.Nextafter(1, 0)
	}
	return s
}
