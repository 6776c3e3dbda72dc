package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// mockIntegrator emits one event per path, carrying the first random draw
type mockIntegrator struct {
	traceFn func(req integrator.PathRequest, sampler core.Sampler) integrator.Termination
}

func (m mockIntegrator) TracePath(req integrator.PathRequest, sampler core.Sampler, events []integrator.RayEvent) ([]integrator.RayEvent, integrator.Termination) {
	events = append(events, integrator.RayEvent{
		PairIndex: req.PairIndex,
		RayIndex:  req.RayIndex,
		Energy:    sampler.Get1D(),
		RoomLabel: req.RoomLabel,
	})
	reason := integrator.Escaped
	if m.traceFn != nil {
		reason = m.traceFn(req, sampler)
	}
	return events, reason
}

func makeTasks(pairs, rays, batch int) []PathTask {
	var tasks []PathTask
	for p := 0; p < pairs; p++ {
		for first := 0; first < rays; first += batch {
			n := batch
			if first+n > rays {
				n = rays - first
			}
			tasks = append(tasks, PathTask{TaskID: len(tasks), PairIndex: p, FirstRay: first, NumRays: n})
		}
	}
	return tasks
}

func collect(t *testing.T, pool *WorkerPool, tasks []PathTask) []integrator.RayEvent {
	t.Helper()
	var events []integrator.RayEvent
	err := pool.Run(context.Background(), tasks, func(r TaskResult) error {
		events = append(events, r.Events...)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return events
}

func TestWorkerPool_OrderedResults(t *testing.T) {
	// Later rays finish first so results arrive out of order
	slow := mockIntegrator{traceFn: func(req integrator.PathRequest, _ core.Sampler) integrator.Termination {
		time.Sleep(time.Duration(20-req.RayIndex%20) * 50 * time.Microsecond)
		return integrator.Escaped
	}}
	pool := NewWorkerPool(slow, 8, 42)
	tasks := makeTasks(3, 40, 3)

	var seen []int
	err := pool.Run(context.Background(), tasks, func(r TaskResult) error {
		seen = append(seen, r.TaskID)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(seen))
	}
	for i, id := range seen {
		if id != i {
			t.Fatalf("Result %d has task ID %d", i, id)
		}
	}
}

func TestWorkerPool_IndependentOfWorkerCountAndBatching(t *testing.T) {
	reference := collect(t, NewWorkerPool(mockIntegrator{}, 1, 42), makeTasks(4, 25, 25))

	tests := []struct {
		name    string
		workers int
		batch   int
	}{
		{"Many workers", 8, 25},
		{"Small batches", 3, 1},
		{"Uneven batches", 5, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, NewWorkerPool(mockIntegrator{}, tt.workers, 42), makeTasks(4, 25, tt.batch))
			if len(got) != len(reference) {
				t.Fatalf("Expected %d events, got %d", len(reference), len(got))
			}
			for i := range got {
				if got[i] != reference[i] {
					t.Fatalf("Event %d differs: %+v vs %+v", i, got[i], reference[i])
				}
			}
		})
	}

	other := collect(t, NewWorkerPool(mockIntegrator{}, 1, 43), makeTasks(4, 25, 25))
	if other[0].Energy == reference[0].Energy {
		t.Error("A different seed should change the random draws")
	}
}

func TestWorkerPool_EmitErrorStopsRun(t *testing.T) {
	pool := NewWorkerPool(mockIntegrator{}, 4, 1)
	sinkErr := errors.New("disk full")

	calls := 0
	err := pool.Run(context.Background(), makeTasks(10, 100, 5), func(TaskResult) error {
		calls++
		if calls == 3 {
			return sinkErr
		}
		return nil
	})
	if !errors.Is(err, sinkErr) {
		t.Fatalf("Expected sink error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected emit to stop after the failure, got %d calls", calls)
	}
}

func TestWorkerPool_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(mockIntegrator{}, 2, 1)

	err := pool.Run(ctx, makeTasks(50, 100, 10), func(r TaskResult) error {
		if r.TaskID == 1 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestWorkerPool_NoTasks(t *testing.T) {
	pool := NewWorkerPool(mockIntegrator{}, 0, 1)
	if pool.NumWorkers() <= 0 {
		t.Fatal("Zero workers should default to the CPU count")
	}
	if err := pool.Run(context.Background(), nil, func(TaskResult) error {
		t.Error("emit should not be called")
		return nil
	}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
