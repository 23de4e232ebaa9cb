package ui

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID names a toggleable world overlay.
type OverlayID string

const (
	OverlayGrid           OverlayID = "grid"
	OverlayWorldBounds    OverlayID = "world_bounds"
	OverlayNeighborRadius OverlayID = "neighbor_radius"
	OverlayNeighbors      OverlayID = "neighbors"
	OverlayVelocity       OverlayID = "velocity"
	OverlayPointerRadius  OverlayID = "pointer_radius"
	OverlayPerf           OverlayID = "perf"
)

// OverlayCategory groups overlays in the controls panel. The value is the
// panel heading.
type OverlayCategory string

const (
	CategorySpace     OverlayCategory = "Space"
	CategorySelection OverlayCategory = "Selection"
	CategoryDebug     OverlayCategory = "Debug"
)

// OverlayDescriptor describes one overlay and its toggle key.
type OverlayDescriptor struct {
	ID          OverlayID
	Name        string
	Description string
	Key         int32  // 0 = no key
	KeyLabel    string // shown in the controls panel
	Category    OverlayCategory
}

// defaultOverlays is listed in panel order. Every overlay starts off.
var defaultOverlays = []OverlayDescriptor{
	{OverlayGrid, "Spatial Grid", "Spatial hash cell boundaries", rl.KeyG, "G", CategorySpace},
	{OverlayWorldBounds, "World Bounds", "Outline of the world extent", rl.KeyB, "B", CategorySpace},
	{OverlayNeighborRadius, "Radii", "Neighbor and separation radii of the selected agent", rl.KeyR, "R", CategorySelection},
	{OverlayNeighbors, "Neighbors", "Links from the selected agent to its neighbors", rl.KeyN, "N", CategorySelection},
	{OverlayVelocity, "Velocity", "Velocity vector of every agent", rl.KeyV, "V", CategoryDebug},
	{OverlayPointerRadius, "Pointer Radius", "Pointer avoidance radius around the cursor", rl.KeyP, "P", CategoryDebug},
	{OverlayPerf, "Performance", "Tick phase timings", rl.KeyF3, "F3", CategoryDebug},
}

// OverlayRegistry tracks which overlays are on.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry returns a registry of the default overlays, all off.
func NewOverlayRegistry() *OverlayRegistry {
	return &OverlayRegistry{
		descriptors: slices.Clone(defaultOverlays),
		enabled:     make(map[OverlayID]bool, len(defaultOverlays)),
	}
}

// Toggle flips an overlay and returns its new state. Unknown ids stay off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if !slices.ContainsFunc(r.descriptors, func(d OverlayDescriptor) bool { return d.ID == id }) {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled reports whether an overlay is on.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns every overlay in panel order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns the overlays of one category in panel order.
func (r *OverlayRegistry) ByCategory(category OverlayCategory) []OverlayDescriptor {
	var out []OverlayDescriptor
	for _, d := range r.descriptors {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *OverlayRegistry) Categories() []OverlayCategory {
	var cats []OverlayCategory
	for _, d := range r.descriptors {
		if !slices.Contains(cats, d.Category) {
			cats = append(cats, d.Category)
		}
	}
	return cats
}

// EnabledOverlays returns the ids of overlays that are on, in panel order.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var ids []OverlayID
	for _, d := range r.descriptors {
		if r.enabled[d.ID] {
			ids = append(ids, d.ID)
		}
	}
	return ids
}
