package ptb

import "log/slog"

// FinalizeOption configures the Finalize() operation.
type FinalizeOption func(*finalizeConfig)

// finalizeConfig holds configuration for the Finalize() method.
type finalizeConfig struct {
	maxCommands int
	logger      *slog.Logger
}

// defaultFinalizeConfig returns the default finalize configuration.
func defaultFinalizeConfig() *finalizeConfig {
	return &finalizeConfig{
		maxCommands: MaxCommands,
		logger:      slog.Default(),
	}
}

// WithMaxCommands overrides the command-count ceiling checked at finalize
// time. Default is MaxCommands.
func WithMaxCommands(max int) FinalizeOption {
	return func(c *finalizeConfig) {
		c.maxCommands = max
	}
}

// WithLogger sets the logger used for finalize-time observations, such as
// inputs no command references. Default is slog.Default().
func WithLogger(logger *slog.Logger) FinalizeOption {
	return func(c *finalizeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
