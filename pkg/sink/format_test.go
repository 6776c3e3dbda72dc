package sink

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

func sampleEvent() integrator.RayEvent {
	return integrator.RayEvent{
		RoomLabel:   "Empty Room",
		Source:      core.NewVec3(1, 1.5, -2),
		Receiver:    core.NewVec3(3.25, 1.5, 0),
		BounceIndex: 2,
		HitPoint:    core.NewVec3(-4, 0.5, 1.125),
		TravelTime:  0.0312345,
		Energy:      0.0104620,
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name     string
		decimals int
		expected string
	}{
		{"Four decimal energy", EnergyDecimals, "Empty Room, 1, 1.5, -2, 3.25, 1.5, 0, 2, -4, 0.5, 1.125, 0.0312, 0.0105"},
		{"Legacy two decimal energy", LegacyEnergyDecimals, "Empty Room, 1, 1.5, -2, 3.25, 1.5, 0, 2, -4, 0.5, 1.125, 0.0312, 0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEvent(sampleEvent(), tt.decimals); got != tt.expected {
				t.Errorf("Expected\n%q\ngot\n%q", tt.expected, got)
			}
		})
	}
}

func TestFormatEvent_FieldCount(t *testing.T) {
	e := sampleEvent()
	e.RoomLabel = ""
	fields := strings.Split(FormatEvent(e, EnergyDecimals), FieldSeparator)
	if len(fields) != len(Header) {
		t.Fatalf("Expected %d fields, got %d", len(Header), len(fields))
	}
	if fields[0] != "" {
		t.Errorf("Expected empty room label, got %q", fields[0])
	}
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSVSink(&buf, EnergyDecimals)

	if err := s.WriteHeader(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		e := sampleEvent()
		e.BounceIndex = i
		if err := s.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	if buf.Len() != 0 {
		t.Error("Output should stay buffered until Flush")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header plus 3 lines, got %d", len(lines))
	}
	if lines[0] != FormatHeader() {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[3], ", 2, -4, ") {
		t.Errorf("Expected bounce 2 on last line, got %q", lines[3])
	}
	if s.Lines() != 3 {
		t.Errorf("Expected 3 lines counted, got %d", s.Lines())
	}
}

func TestMemoryAndMultiSink(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	multi := MultiSink{a, b}
	for i := 0; i < 5; i++ {
		if err := multi.Record(sampleEvent()); err != nil {
			t.Fatal(err)
		}
	}
	if a.Len() != 5 || b.Len() != 5 {
		t.Errorf("Expected 5 events in each sink, got %d and %d", a.Len(), b.Len())
	}

	failing := errors.New("nope")
	c := NewMemorySink()
	multi = MultiSink{FuncSink(func(integrator.RayEvent) error { return failing }), c}
	if err := multi.Record(sampleEvent()); !errors.Is(err, failing) {
		t.Errorf("Expected failure, got %v", err)
	}
	if c.Len() != 0 {
		t.Error("Sinks after a failure should not be called")
	}
}

func TestAsyncSink_DeliversInOrder(t *testing.T) {
	mem := NewMemorySink()
	async := NewAsyncSink(mem, 4)

	for i := 0; i < 100; i++ {
		e := sampleEvent()
		e.RayIndex = i
		if err := async.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := async.Close(); err != nil {
		t.Fatal(err)
	}

	events := mem.Events()
	if len(events) != 100 {
		t.Fatalf("Expected 100 events, got %d", len(events))
	}
	for i, e := range events {
		if e.RayIndex != i {
			t.Fatalf("Event %d has ray index %d", i, e.RayIndex)
		}
	}
	if err := async.Record(sampleEvent()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}

func TestAsyncSink_ReportsFailure(t *testing.T) {
	failing := errors.New("disk full")
	var mu sync.Mutex
	calls := 0
	async := NewAsyncSink(FuncSink(func(integrator.RayEvent) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			return failing
		}
		return nil
	}), 1)

	for i := 0; i < 10; i++ {
		if err := async.Record(sampleEvent()); err != nil {
			if !errors.Is(err, failing) {
				t.Fatalf("Unexpected error %v", err)
			}
			break
		}
	}
	if err := async.Close(); !errors.Is(err, failing) {
		t.Errorf("Expected Close to report the failure, got %v", err)
	}
}
