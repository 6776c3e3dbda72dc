package server

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RunID     string    `json:"runId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	runID       string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific run
func NewWebLogger(runID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		runID:       runID,
		consoleChan: consoleChan,
	}
}

// messageLevel picks the console level from the message prefix
func messageLevel(message string) string {
	switch {
	case strings.HasPrefix(message, "Warning:"):
		return "warning"
	case strings.HasPrefix(message, "Error:"):
		return "error"
	}
	return "info"
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to the server log
	log.Print(message)

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			RunID:     wl.runID,
			Message:   message,
			Timestamp: time.Now(),
			Level:     messageLevel(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}
