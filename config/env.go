package config

import (
	"fmt"
	"strconv"
)

// Environment variables that override loaded configuration.
const (
	EnvNumAgents      = "FLOCK_NUM_AGENTS"
	EnvBoundaryPolicy = "FLOCK_BOUNDARY_POLICY"
	EnvSeed           = "FLOCK_SEED"
)

// ApplyEnv overrides fields from environment variables found by lookup
// (normally os.LookupEnv), then recomputes derived values and validates.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvNumAgents); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNumAgents, err)
		}
		c.Population.NumAgents = n
	}
	if v, ok := lookup(EnvBoundaryPolicy); ok {
		c.Boundary.Policy = v
	}
	if v, ok := lookup(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Population.Seed = seed
	}

	c.computeDerived()
	return c.Validate()
}
