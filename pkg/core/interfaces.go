package core

import "log"

// Logger interface for simulation logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// DefaultLogger implements Logger through the standard log package
type DefaultLogger struct{}

// Printf writes a formatted line to the standard logger
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() Logger {
	return &DefaultLogger{}
}

// NopLogger discards everything
type NopLogger struct{}

// Printf does nothing
func (NopLogger) Printf(string, ...interface{}) {}
