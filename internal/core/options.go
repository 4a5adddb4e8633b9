package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/comalice/fsmx"
)

// ErrorHandler receives action failures. Actions run inside callbacks and
// side effects, which cannot return errors to the dispatcher.
type ErrorHandler func(action string, err error)

// Option configures Compile via functional options pattern.
type Option func(*compiler)

// WithMachineOptions passes options through to fsmx.New.
func WithMachineOptions(opts ...fsmx.Option) Option {
	return func(c *compiler) {
		c.machineOpts = append(c.machineOpts, opts...)
	}
}

// WithErrorHandler replaces the default handler, which logs action failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *compiler) {
		if h != nil {
			c.onError = h
		}
	}
}

// WithLogger sets the logger used by the default error handler.
func WithLogger(logger *zap.Logger) Option {
	return func(c *compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContext sets the context handed to every action. Defaults to
// context.Background.
func WithContext(ctx context.Context) Option {
	return func(c *compiler) {
		c.ctx = ctx
	}
}
