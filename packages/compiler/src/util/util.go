package util

import (
	"context"
	"log/slog"
	"regexp"
)

var nonWordRegexp = regexp.MustCompile(`\W`)

// SanitizeIdentifier sanitizes an identifier name by replacing non-word characters with underscores
func SanitizeIdentifier(name string) string {
	return nonWordRegexp.ReplaceAllString(name, "_")
}

// Console represents a console interface
type Console interface {
	Log(message string)
	Warn(message string)
	Error(message string)
}

// SlogConsole adapts a *slog.Logger to the Console interface
type SlogConsole struct {
	logger *slog.Logger
}

// NewSlogConsole creates a new SlogConsole. A nil logger means slog.Default().
func NewSlogConsole(logger *slog.Logger) *SlogConsole {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogConsole{logger: logger}
}

// Log writes a debug-level record
func (c *SlogConsole) Log(message string) {
	c.logger.Log(context.Background(), slog.LevelDebug, message)
}

// Warn writes a warning-level record
func (c *SlogConsole) Warn(message string) {
	c.logger.Warn(message)
}

// Error writes an error-level record
func (c *SlogConsole) Error(message string) {
	c.logger.Error(message)
}

// NopConsole discards everything
type NopConsole struct{}

// Log implements Console
func (NopConsole) Log(string) {}

// Warn implements Console
func (NopConsole) Warn(string) {}

// Error implements Console
func (NopConsole) Error(string) {}
