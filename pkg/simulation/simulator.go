package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// catalogValidator is implemented by catalogs that can check themselves
type catalogValidator interface {
	Validate() error
}

// Simulator drives the acoustic integrator over a list of source/receiver pairs
type Simulator struct {
	scene      integrator.SceneIntersector
	catalog    integrator.MaterialCatalog
	config     TraceConfig
	logger     core.Logger
	onProgress func(Progress)
}

// NewSimulator creates a simulator for one scene
func NewSimulator(scene integrator.SceneIntersector, catalog integrator.MaterialCatalog, config TraceConfig, logger core.Logger) *Simulator {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Simulator{
		scene:   scene,
		catalog: catalog,
		config:  config,
		logger:  logger,
	}
}

// SetProgressCallback registers fn to be called after each task is recorded.
// It runs on the collecting goroutine and must not block for long.
func (s *Simulator) SetProgressCallback(fn func(Progress)) {
	s.onProgress = fn
}

// Config returns the simulator configuration
func (s *Simulator) Config() TraceConfig {
	return s.config
}

// Run traces NumberOfRays paths for every classified pair and records the
// events in pair, ray, bounce order. Unclassified pairs are skipped. Errors
// from the sink abort the run and are returned together with partial stats.
func (s *Simulator) Run(ctx context.Context, pairs []SourceReceiverPair, sink integrator.EventSink) (RunStats, error) {
	if err := s.validate(pairs, sink); err != nil {
		return RunStats{}, err
	}

	stats := newRunStats(uuid.New().String(), len(pairs))
	tasks := s.buildTasks(pairs, &stats)

	integ := integrator.NewAcousticIntegrator(s.config.IntegratorConfig(), s.scene, s.catalog)
	pool := NewWorkerPool(integ, s.config.NumWorkers, s.config.Seed)
	stats.Workers = pool.NumWorkers()

	progress := Progress{TasksTotal: len(tasks)}
	for _, task := range tasks {
		progress.RaysTotal += task.NumRays
	}

	s.logger.Printf("Run %s: tracing %d rays for %d of %d pairs (policy=%s, model=%s, workers=%d)\n",
		stats.RunID, progress.RaysTotal, len(pairs)-stats.PairsSkipped, len(pairs),
		s.config.AbsorptionPolicy, s.config.EnergyModel, stats.Workers)

	start := time.Now()
	err := pool.Run(ctx, tasks, func(result TaskResult) error {
		for _, event := range result.Events {
			if err := sink.Record(event); err != nil {
				return fmt.Errorf("recording event for pair %d ray %d: %w", event.PairIndex, event.RayIndex, err)
			}
		}
		stats.add(result)

		progress.TasksDone++
		progress.RaysDone += result.Rays
		progress.Events = stats.Events
		if s.onProgress != nil {
			s.onProgress(progress)
		}
		return nil
	})
	stats.Duration = time.Since(start)

	if err != nil {
		s.logger.Printf("Run %s: stopped after %d rays: %v\n", stats.RunID, stats.RaysTraced, err)
		return stats, err
	}

	s.logger.Printf("Run %s: %d events from %d rays in %v (%.0f rays/s)\n",
		stats.RunID, stats.Events, stats.RaysTraced, stats.Duration.Round(time.Millisecond), stats.RaysPerSecond())
	return stats, nil
}

func (s *Simulator) validate(pairs []SourceReceiverPair, sink integrator.EventSink) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.scene == nil {
		return configError("scene", "no scene intersector")
	}
	if s.catalog == nil {
		return configError("materials", "no material catalog")
	}
	if v, ok := s.catalog.(catalogValidator); ok {
		if err := v.Validate(); err != nil {
			return &ConfigurationError{Field: "materials", Reason: "catalog is inconsistent", Err: err}
		}
	}
	if sink == nil {
		return configError("sink", "no event sink")
	}
	for i, p := range pairs {
		if !p.Source.IsFinite() || !p.Receiver.IsFinite() {
			return configError("pairs", "pair %d has a non-finite position", i)
		}
	}
	return nil
}

// buildTasks classifies pairs and splits the rays of each traced pair into batches
func (s *Simulator) buildTasks(pairs []SourceReceiverPair, stats *RunStats) []PathTask {
	batch := s.config.BatchSize
	if batch <= 0 {
		batch = s.config.NumberOfRays
	}

	var tasks []PathTask
	for i, pair := range pairs {
		label := ""
		if s.config.ClassifyRooms {
			var ok bool
			label, ok = ClassifyRoom(pair.Source, pair.Receiver, s.config.Thresholds())
			if !ok {
				stats.PairsSkipped++
				s.logger.Printf("Warning: skipping pair %d (%s): unclassified room\n", i, pair.describe())
				continue
			}
		}

		for first := 0; first < s.config.NumberOfRays; first += batch {
			n := batch
			if first+n > s.config.NumberOfRays {
				n = s.config.NumberOfRays - first
			}
			tasks = append(tasks, PathTask{
				TaskID:    len(tasks),
				PairIndex: i,
				FirstRay:  first,
				NumRays:   n,
				Pair:      pair,
				RoomLabel: label,
			})
		}
	}
	return tasks
}
