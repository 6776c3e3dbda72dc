package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-acoustic-raytracer/pkg/analysis"
	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
	"github.com/df07/go-acoustic-raytracer/pkg/sink"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "event", "progress", "stats", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// StatsUpdate is the final summary of a run
type StatsUpdate struct {
	simulation.RunStats
	ElapsedMs      int64                             `json:"elapsedMs"`
	PrimitiveCount int                               `json:"primitiveCount"`
	Decay          map[string]analysis.DecayEstimate `json:"decay"` // Per room label
}

// handleSimulate runs a simulation and streams its progress via SSE
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})

	// Start single SSE writer goroutine
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	defer func() {
		close(consoleChan)
		<-consoleDone
	}()

	run, err := s.setupSimulation(r.URL.Query(), webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	collector := analysis.NewCollector(analysis.DefaultBinWidth)
	var eventSink integrator.EventSink = collector
	if run.Request.Events {
		eventSink = sink.MultiSink{collector, sink.FuncSink(func(e integrator.RayEvent) error {
			return s.sendJSON(ctx, sseEventChan, "event", e)
		})}
	}

	run.Simulator.SetProgressCallback(func(p simulation.Progress) {
		s.sendJSON(ctx, sseEventChan, "progress", p)
	})

	startTime := time.Now()
	stats, err := run.Simulator.Run(ctx, run.Pairs, eventSink)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Simulation failed: %v", err))
		return
	}

	update := StatsUpdate{
		RunStats:       stats,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		PrimitiveCount: run.Scene.GetPrimitiveCount(),
		Decay:          collector.Estimates(),
	}
	if err := s.sendJSON(ctx, sseEventChan, "stats", update); err != nil {
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Simulation completed"}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a run
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger("run-"+uuid.New().String(), consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				// Client disconnected, drain without writing
				continue
			default:
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				continue
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Keep draining so senders never block; they also watch ctx
			for range sseEventChan {
			}
			return
		}
	}
}

// streamConsoleMessages forwards console messages to the SSE channel
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// sendJSON marshals v and queues it as an SSE event, giving up if the client is gone
func (s *Server) sendJSON(ctx context.Context, sseEventChan chan SSEEvent, eventType string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return err
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
