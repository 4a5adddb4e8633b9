package primitives

// MachineBuilder builds a MachineConfig fluently.
//
//	cfg, err := NewMachineBuilder("turnstile", "locked").
//		State("locked").Transition("coin", "unlocked", "openDoor").
//		State("unlocked").Transition("push", "locked").
//		Build()
type MachineBuilder struct {
	config *MachineConfig
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{
			ID:      id,
			Initial: initial,
			States:  make(map[string]*StateConfig),
		},
	}
}

// Version pins the config version instead of letting ComputeVersion derive one.
func (b *MachineBuilder) Version(v string) *MachineBuilder {
	b.config.Version = v
	return b
}

// State starts or resumes the state with id.
func (b *MachineBuilder) State(id string) *StateBuilder {
	s, ok := b.config.States[id]
	if !ok {
		s = NewStateConfig(id)
		b.config.States[id] = s
	}
	return &StateBuilder{state: s, mb: b}
}

// Build validates and returns the config.
func (b *MachineBuilder) Build() (*MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	return b.config, nil
}

// MustBuild is Build that panics on an invalid config.
func (b *MachineBuilder) MustBuild() *MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// StateBuilder for fluent transitions.
type StateBuilder struct {
	state *StateConfig
	mb    *MachineBuilder
}

// Transition adds transition. An empty target stays in the state.
func (sb *StateBuilder) Transition(event, target string, effects ...string) *StateBuilder {
	sb.state.Transition(event, target, effects...)
	return sb
}

// Entry adds entry actions.
func (sb *StateBuilder) Entry(actions ...string) *StateBuilder {
	for _, a := range actions {
		sb.state.AddEntry(a)
	}
	return sb
}

// Exit adds exit actions.
func (sb *StateBuilder) Exit(actions ...string) *StateBuilder {
	for _, a := range actions {
		sb.state.AddExit(a)
	}
	return sb
}

// State moves on to another state.
func (sb *StateBuilder) State(id string) *StateBuilder {
	return sb.mb.State(id)
}

// Build finalizes the machine.
func (sb *StateBuilder) Build() (*MachineConfig, error) {
	return sb.mb.Build()
}

// MustBuild finalizes the machine, panicking on an invalid config.
func (sb *StateBuilder) MustBuild() *MachineConfig {
	return sb.mb.MustBuild()
}
