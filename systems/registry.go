package systems

import "github.com/Dong-David/the-last-echo/telemetry"

// SystemInfo describes a simulation phase for UI display.
type SystemInfo struct {
	ID          string // Perf phase name
	Name        string
	Description string
	Category    string
}

// SystemRegistry holds metadata about every phase of a tick, in step order.
// The UI and the perf tracker both key on SystemInfo.ID.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhasePlayer, Name: "Player", Description: "Movement, camera follow and shooting", Category: "control"})
	r.Register(SystemInfo{ID: telemetry.PhaseStreaming, Name: "Streaming", Description: "Creates and destroys terrain tiles", Category: "world"})
	r.Register(SystemInfo{ID: telemetry.PhaseFlowField, Name: "Flow Field", Description: "Relaxes path costs toward the player", Category: "navigation"})
	r.Register(SystemInfo{ID: telemetry.PhasePopulation, Name: "Population", Description: "Spawns and culls agents", Category: "world"})
	r.Register(SystemInfo{ID: telemetry.PhaseSteering, Name: "Steering", Description: "Blends flow, wobble and separation", Category: "navigation"})
	r.Register(SystemInfo{ID: telemetry.PhaseEffects, Name: "Effects", Description: "Expires temporary effects", Category: "world"})
	r.Register(SystemInfo{ID: telemetry.PhaseServices, Name: "Services", Description: "Advances animators and syncs bodies", Category: "world"})
	r.Register(SystemInfo{ID: telemetry.PhaseTelemetry, Name: "Telemetry", Description: "Window stats and output", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
