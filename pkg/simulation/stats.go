package simulation

import (
	"fmt"
	"time"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// RunStats contains statistics about a simulation run
type RunStats struct {
	RunID        string         `json:"runId"`
	PairsTotal   int            `json:"pairsTotal"`
	PairsSkipped int            `json:"pairsSkipped"` // Unclassified pairs
	RaysTraced   int            `json:"raysTraced"`
	Events       int            `json:"events"`
	Terminations map[string]int `json:"terminations"` // Paths per termination reason
	RoomEvents   map[string]int `json:"roomEvents"`   // Events per room label
	Workers      int            `json:"workers"`
	Duration     time.Duration  `json:"duration"`
}

func newRunStats(runID string, pairs int) RunStats {
	return RunStats{
		RunID:        runID,
		PairsTotal:   pairs,
		Terminations: make(map[string]int),
		RoomEvents:   make(map[string]int),
	}
}

// add folds one task result into the totals
func (s *RunStats) add(result TaskResult) {
	s.RaysTraced += result.Rays
	s.Events += len(result.Events)
	for reason, count := range result.Terminations {
		if count > 0 {
			s.Terminations[integrator.Termination(reason).String()] += count
		}
	}
	for _, e := range result.Events {
		s.RoomEvents[e.RoomLabel]++
	}
}

// Termination returns how many paths ended for the given reason
func (s RunStats) Termination(reason integrator.Termination) int {
	return s.Terminations[reason.String()]
}

// RaysPerSecond returns the tracing throughput
func (s RunStats) RaysPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.RaysTraced) / s.Duration.Seconds()
}

// Progress is reported after each task is handed to the sink
type Progress struct {
	TasksDone  int `json:"tasksDone"`
	TasksTotal int `json:"tasksTotal"`
	RaysDone   int `json:"raysDone"`
	RaysTotal  int `json:"raysTotal"`
	Events     int `json:"events"`
}

// Fraction returns completion in [0, 1]
func (p Progress) Fraction() float64 {
	if p.RaysTotal == 0 {
		return 1
	}
	return float64(p.RaysDone) / float64(p.RaysTotal)
}

func formatVec(v core.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
