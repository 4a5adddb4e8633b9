package fsmx

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("fsmx: invalid configuration")
	// ErrScope matches every *ScopeError.
	ErrScope = errors.New("fsmx: entry point used outside its scope")
)

// ConfigurationError reports a machine definition that cannot be built.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("fsmx: invalid configuration: %s", e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ScopeError reports a configuration entry point called from the wrong place,
// including a captured entry point called after construction finished.
type ScopeError struct {
	EntryPoint string
	Required   string
	// Actual is the scope on top of the stack at call time, empty if none.
	Actual string
}

func (e *ScopeError) Error() string {
	actual := e.Actual
	if actual == "" {
		actual = "none"
	}
	return fmt.Sprintf("fsmx: %s must be called inside %q scope (current scope: %s)", e.EntryPoint, e.Required, actual)
}

func (e *ScopeError) Is(target error) bool {
	return target == ErrScope
}
