package guard

import "github.com/okian/placar/pkg/logger"

// Option applies a configuration option to the Guard.
type Option func(*Guard)

// WithConfirm sets the confirmation port.
func WithConfirm(c Confirmer) Option {
	return func(g *Guard) {
		if c != nil {
			g.confirmer = c
		}
	}
}

// WithNotifier sets the port rejection messages are shown on.
func WithNotifier(n Notifier) Option {
	return func(g *Guard) {
		if n != nil {
			g.notifier = n
		}
	}
}

// WithLogger sets a custom logger for the guard.
func WithLogger(l logger.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}
