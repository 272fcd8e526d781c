package migrator

import (
	"log/slog"
)

// Option is a function that allows configuring the Migrator.
type Option func(*Migrator)

// WithLogger sets the logger used by the Migrator.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		m.logger = logger.With("component", "migrator")
	}
}

// DefaultOptions returns the default Migrator options.
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
	}
}
