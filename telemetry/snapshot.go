package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SnapshotVersion is the current snapshot format. Loading any other
// version fails.
const SnapshotVersion = 1

// Snapshot is the state needed to resume a run. Behavior settings are not
// included; they come from the config the run is restored under.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`
	Policy      string  `json:"policy"`

	Tick    int64   `json:"tick"`
	SimTime float64 `json:"sim_time"`
	NextID  uint32  `json:"next_id"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState is one agent in a snapshot.
type AgentState struct {
	ID uint32 `json:"id"`

	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
	Heading float64 `json:"heading"`

	Hue float32 `json:"hue"`
}

// Validate checks that a loaded snapshot can be restored.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.New("nil snapshot")
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	seen := make(map[uint32]struct{}, len(s.Agents))
	for _, a := range s.Agents {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("snapshot: duplicate agent id %d", a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.ID >= s.NextID {
			return fmt.Errorf("snapshot: agent id %d not below next_id %d", a.ID, s.NextID)
		}
	}
	return nil
}

// Filename is the name SaveSnapshot gives this snapshot:
// snapshot_<tick>[_<bookmark type>].json.
func (s *Snapshot) Filename() string {
	name := "snapshot_" + strconv.FormatInt(s.Tick, 10)
	if s.Bookmark != nil {
		name += "_" + strings.ReplaceAll(string(s.Bookmark.Type), " ", "_")
	}
	return name + ".json"
}

// SaveSnapshot writes snapshot as indented JSON under dir and returns the
// file path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, snapshot.Filename())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := errors.Join(enc.Encode(snapshot), f.Close()); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads and validates a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap := new(Snapshot)
	if err := json.NewDecoder(f).Decode(snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
