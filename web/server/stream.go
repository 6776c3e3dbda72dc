package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-acoustic-raytracer/pkg/analysis"
	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
	"github.com/df07/go-acoustic-raytracer/pkg/sink"
)

// streamBatchSize is the number of ray events per websocket frame
const streamBatchSize = 256

// handleStream upgrades to a websocket and streams one simulation run as JSON
// frames: batched events (when events=true), progress, stats, then complete
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client only ever closes; any read error ends the run
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ws := sink.NewWebSocketSink(conn, streamBatchSize)
	logger := core.NewDefaultLogger()

	run, err := s.setupSimulation(r.URL.Query(), logger)
	if err != nil {
		ws.Send(sink.MessageError, err.Error())
		return
	}

	collector := analysis.NewCollector(analysis.DefaultBinWidth)
	var eventSink integrator.EventSink = collector
	if run.Request.Events {
		eventSink = sink.MultiSink{collector, ws}
	}

	var progressErr error
	run.Simulator.SetProgressCallback(func(p simulation.Progress) {
		if progressErr == nil {
			progressErr = ws.Send(sink.MessageProgress, p)
		}
	})

	startTime := time.Now()
	stats, err := run.Simulator.Run(ctx, run.Pairs, eventSink)
	if err == nil {
		err = progressErr
	}
	if err != nil {
		ws.Send(sink.MessageError, fmt.Sprintf("Simulation failed: %v", err))
		return
	}

	update := StatsUpdate{
		RunStats:       stats,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		PrimitiveCount: run.Scene.GetPrimitiveCount(),
		Decay:          collector.Estimates(),
	}
	if err := ws.Send(sink.MessageStats, update); err != nil {
		log.Printf("WebSocket send failed: %v", err)
		return
	}
	ws.Send(sink.MessageComplete, "Simulation completed")
}
