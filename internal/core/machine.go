// Package core compiles declarative machine definitions into fsmx machines and
// defines the pluggable components that surround them.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/internal/primitives"
)

// ErrUnknownAction is returned when a definition names an action the
// ActionRunner does not know.
var ErrUnknownAction = errors.New("unknown action")

// Machine is a machine compiled from a MachineConfig.
type Machine = fsmx.Machine[primitives.State, primitives.Event]

// ActionRunner runs the named entry, exit and effect actions of a compiled
// machine. state is the state being entered or left, or the state the
// transition started from for effects. event is the zero Event for the initial
// entry.
type ActionRunner interface {
	Run(ctx context.Context, action string, state primitives.State, event primitives.Event) error
}

// ActionResolver is implemented by runners that can tell ahead of time whether
// an action exists. Compile uses it to reject definitions naming missing
// actions.
type ActionResolver interface {
	Has(action string) bool
}

// ActionRunnerFunc adapts a function to ActionRunner.
type ActionRunnerFunc func(ctx context.Context, action string, state primitives.State, event primitives.Event) error

// Run calls f.
func (f ActionRunnerFunc) Run(ctx context.Context, action string, state primitives.State, event primitives.Event) error {
	return f(ctx, action, state, event)
}

// MachineMetadata describes one notification of a running machine.
type MachineMetadata struct {
	MachineID  string    `json:"machineID" yaml:"machineID"`
	Transition string    `json:"transition" yaml:"transition"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewMetadata stamps a notification from one state kind to another. from is
// empty for the notification delivered on subscribe.
func NewMetadata(machineID, from, to string) MachineMetadata {
	if from == "" {
		from = "<subscribe>"
	}
	return MachineMetadata{
		MachineID:  machineID,
		Transition: from + " -> " + to,
		Timestamp:  time.Now().UTC(),
	}
}

// Visualizer renders a machine definition.
type Visualizer interface {
	ExportDOT(config *primitives.MachineConfig, current string) string
	ExportJSON(config *primitives.MachineConfig) ([]byte, error)
}
