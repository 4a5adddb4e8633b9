package primitives

import (
	"errors"
	"fmt"
)

// TransitionConfig defines what happens when an event arrives in a state.
// An empty Target keeps the current state; Effects still run.
type TransitionConfig struct {
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Effects []string `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// Stays reports whether the transition keeps the current state.
func (t TransitionConfig) Stays() bool {
	return t.Target == ""
}

// Validate checks the target and effect names.
func (t TransitionConfig) Validate() error {
	if t.Target != "" {
		if err := validateID(t.Target); err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}
	for i, name := range t.Effects {
		if name == "" {
			return fmt.Errorf("effect %d has an empty name", i)
		}
	}
	return nil
}

// validateID accepts alphanumeric identifiers with underscores and hyphens.
func validateID(id string) error {
	if id == "" {
		return errors.New("empty identifier")
	}
	for i, r := range id {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return fmt.Errorf("identifier %q: invalid character '%c' at index %d", id, r, i)
		}
	}
	return nil
}
