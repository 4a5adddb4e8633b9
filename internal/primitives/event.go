package primitives

// Event is a generic event value for machines compiled from a MachineConfig.
//
// Once created, Events should not be mutated. Data is carried along for
// actions to read; dispatch only looks at Type.
type Event struct {
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewEvent creates an Event. data may be nil.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		Type: eventType,
		Data: data,
	}
}

// Kind implements fsmx.Tagged.
func (e Event) Kind() string {
	return e.Type
}

// State is the generic state value of a compiled machine. Type is the state ID
// from the definition.
type State struct {
	Type string         `json:"type" yaml:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewState creates a State with no data.
func NewState(id string) State {
	return State{Type: id}
}

// Kind implements fsmx.Tagged.
func (s State) Kind() string {
	return s.Type
}
