package simulation

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// PathTask is a batch of rays for one source/receiver pair
type PathTask struct {
	TaskID    int // For deterministic ordering
	PairIndex int
	FirstRay  int
	NumRays   int
	Pair      SourceReceiverPair
	RoomLabel string
}

// TaskResult contains the events of one task in per-ray order
type TaskResult struct {
	TaskID       int
	PairIndex    int
	Rays         int
	Events       []integrator.RayEvent
	Terminations [integrator.NumTerminations]int
}

// WorkerPool traces tasks in parallel and hands results back in task order
type WorkerPool struct {
	integrator integrator.Integrator
	numWorkers int
	seed       int64
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(integ integrator.Integrator, numWorkers int, seed int64) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		integrator: integ,
		numWorkers: numWorkers,
		seed:       seed,
	}
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// Run traces every task and calls emit once per task, in TaskID order.
// Task IDs must be 0..len(tasks)-1. The first error from emit or ctx stops all workers.
func (wp *WorkerPool) Run(ctx context.Context, tasks []PathTask, emit func(TaskResult) error) error {
	g, gctx := errgroup.WithContext(ctx)

	taskQueue := make(chan PathTask, wp.numWorkers)
	resultQueue := make(chan TaskResult, wp.numWorkers)

	g.Go(func() error {
		defer close(taskQueue)
		for _, task := range tasks {
			select {
			case taskQueue <- task:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		workers.Add(1)
		w := newWorker(i, wp.integrator, wp.seed)
		g.Go(func() error {
			defer workers.Done()
			return w.run(gctx, taskQueue, resultQueue)
		})
	}
	go func() {
		workers.Wait()
		close(resultQueue)
	}()

	// Results arrive in any order; hold them until their turn
	g.Go(func() error {
		pending := make(map[int]TaskResult)
		next := 0
		for result := range resultQueue {
			pending[result.TaskID] = result
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := emit(ready); err != nil {
					return err
				}
				next++
			}
		}
		return nil
	})

	return g.Wait()
}

// worker owns one random generator, reseeded for every ray so results do
// not depend on which worker traced which task
type worker struct {
	id         int
	integrator integrator.Integrator
	seed       int64
	random     *rand.Rand
	sampler    core.Sampler
}

func newWorker(id int, integ integrator.Integrator, seed int64) *worker {
	random := rand.New(rand.NewSource(seed))
	return &worker{
		id:         id,
		integrator: integ,
		seed:       seed,
		random:     random,
		sampler:    core.NewRandomSampler(random),
	}
}

func (w *worker) run(ctx context.Context, tasks <-chan PathTask, results chan<- TaskResult) error {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := w.process(task)
		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (w *worker) process(task PathTask) TaskResult {
	result := TaskResult{
		TaskID:    task.TaskID,
		PairIndex: task.PairIndex,
		Rays:      task.NumRays,
	}

	for ray := task.FirstRay; ray < task.FirstRay+task.NumRays; ray++ {
		w.random.Seed(core.DeriveSeed(w.seed, task.PairIndex, ray))

		req := integrator.PathRequest{
			Origin:    task.Pair.Source,
			Receiver:  task.Pair.Receiver,
			RoomLabel: task.RoomLabel,
			PairIndex: task.PairIndex,
			RayIndex:  ray,
		}
		var reason integrator.Termination
		result.Events, reason = w.integrator.TracePath(req, w.sampler, result.Events)
		result.Terminations[reason]++
	}

	return result
}
