package primitives

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidConfig matches every error returned by MachineConfig.Validate.
var ErrInvalidConfig = errors.New("invalid machine config")

// MachineConfig defines a complete machine: its ID, initial state and the
// states keyed by ID.
type MachineConfig struct {
	Version string                  `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string                  `json:"id" yaml:"id"`
	Initial string                  `json:"initial" yaml:"initial"`
	States  map[string]*StateConfig `json:"states" yaml:"states"`
}

// Normalize fills in state IDs left empty from their map keys. Hand-written
// documents usually only give the key.
func (m *MachineConfig) Normalize() {
	for key, state := range m.States {
		if state != nil && state.ID == "" {
			state.ID = key
		}
	}
}

// Validate validates the entire machine configuration:
// - Non-empty ID and Initial
// - Initial exists in States
// - Every state validates and is stored under its own ID
// - All transition targets exist in States
// - No orphaned states (all reachable from Initial)
func (m *MachineConfig) Validate() error {
	if err := m.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (m *MachineConfig) validate() error {
	if m.ID == "" {
		return errors.New("machine ID is required")
	}
	if m.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(m.States) == 0 {
		return errors.New("states map is required and cannot be empty")
	}
	if _, ok := m.States[m.Initial]; !ok {
		return fmt.Errorf("initial state %q not found in states", m.Initial)
	}

	for _, sid := range m.StateIDs() {
		state := m.States[sid]
		if state == nil {
			return fmt.Errorf("state %q is empty", sid)
		}
		if state.ID != sid {
			return fmt.Errorf("state %q is stored under key %q", state.ID, sid)
		}
		if err := state.Validate(); err != nil {
			return fmt.Errorf("state %q validation failed: %w", sid, err)
		}
		for event, trans := range state.On {
			if trans.Target == "" {
				continue
			}
			if _, exists := m.States[trans.Target]; !exists {
				return fmt.Errorf("invalid transition target %q (state %q, event %q)", trans.Target, sid, event)
			}
		}
	}

	// Check no orphaned states via reachability
	visited := make(map[string]bool)
	m.markReachable(m.Initial, visited)
	for _, sid := range m.StateIDs() {
		if !visited[sid] {
			return fmt.Errorf("orphaned state %q (not reachable from initial %q)", sid, m.Initial)
		}
	}

	return nil
}

// markReachable marks id and every state reachable from it through transition targets.
func (m *MachineConfig) markReachable(id string, visited map[string]bool) {
	if visited[id] {
		return
	}
	visited[id] = true

	state, ok := m.States[id]
	if !ok || state == nil {
		return
	}
	for _, trans := range state.On {
		if trans.Target != "" {
			m.markReachable(trans.Target, visited)
		}
	}
}

// StateIDs returns the state IDs in sorted order.
func (m *MachineConfig) StateIDs() []string {
	ids := make([]string, 0, len(m.States))
	for id := range m.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Events returns every event name handled by any state, sorted.
func (m *MachineConfig) Events() []string {
	seen := make(map[string]struct{})
	for _, state := range m.States {
		if state == nil {
			continue
		}
		for event := range state.On {
			seen[event] = struct{}{}
		}
	}
	events := make([]string, 0, len(seen))
	for event := range seen {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}
