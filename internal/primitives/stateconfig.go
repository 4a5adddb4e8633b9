package primitives

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// StateConfig defines one state: its entry and exit actions and the
// transition taken for each event it handles.
type StateConfig struct {
	ID    string                      `json:"id" yaml:"id"`
	Entry []string                    `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit  []string                    `json:"exit,omitempty" yaml:"exit,omitempty"`
	On    map[string]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID.
func NewStateConfig(id string) *StateConfig {
	return &StateConfig{ID: id}
}

// AddEntry adds an entry action.
func (s *StateConfig) AddEntry(action string) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// AddExit adds an exit action.
func (s *StateConfig) AddExit(action string) *StateConfig {
	s.Exit = append(s.Exit, action)
	return s
}

// Transition sets the transition for event, replacing any earlier one.
// Usage: .Transition("coin", "unlocked", "openDoor").
func (s *StateConfig) Transition(event, target string, effects ...string) *StateConfig {
	if s.On == nil {
		s.On = make(map[string]TransitionConfig)
	}
	s.On[event] = TransitionConfig{Target: target, Effects: effects}
	return s
}

// Validate checks the state ID, action names and transitions.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}
	if err := validateID(s.ID); err != nil {
		return err
	}
	for _, name := range append(append([]string(nil), s.Entry...), s.Exit...) {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("empty action name in state %s", s.ID)
		}
	}
	for event, trans := range s.On {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("empty event name in On map for state %s", s.ID)
		}
		if err := trans.Validate(); err != nil {
			return fmt.Errorf("event %q of state %s: %w", event, s.ID, err)
		}
	}
	return nil
}

// ActionNames returns the entry, exit and effect names of the state, in that
// order, effects sorted by event.
func (s *StateConfig) ActionNames() []string {
	names := append(append([]string(nil), s.Entry...), s.Exit...)
	events := make([]string, 0, len(s.On))
	for event := range s.On {
		events = append(events, event)
	}
	sort.Strings(events)
	for _, event := range events {
		names = append(names, s.On[event].Effects...)
	}
	return names
}
