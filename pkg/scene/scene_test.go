package scene

import (
	"context"
	"math"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
	"github.com/df07/go-acoustic-raytracer/pkg/sink"
)

func TestAcousticLab_RoomPairsCoverEveryLabel(t *testing.T) {
	s := NewAcousticLabScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if got := len(s.Pairs()); got != 16 {
		t.Errorf("Expected 16 source/receiver pairs, got %d", got)
	}

	expected := map[string]string{
		"empty-source":     simulation.EmptyRoom,
		"furnished-source": simulation.FurnishedRoom,
		"treated-source":   simulation.TreatedRoom,
		"large-source":     simulation.LargeUntreatedRoom,
	}

	pairs := s.RoomPairs()
	if len(pairs) != len(expected) {
		t.Fatalf("Expected %d same-room pairs, got %d", len(expected), len(pairs))
	}
	for _, p := range pairs {
		t.Run(p.SourceName, func(t *testing.T) {
			label, ok := simulation.ClassifyRoom(p.Source, p.Receiver, simulation.DefaultRoomThresholds())
			if !ok {
				t.Fatalf("Pair %s -> %s is unclassified", p.SourceName, p.ReceiverName)
			}
			if label != expected[p.SourceName] {
				t.Errorf("Expected %q, got %q", expected[p.SourceName], label)
			}
		})
	}
}

func TestAcousticLab_EverySurfaceHasMaterial(t *testing.T) {
	s := NewAcousticLabScene()
	if err := s.Catalog.Validate(); err != nil {
		t.Fatalf("Catalog validation failed: %v", err)
	}

	for _, shape := range s.Shapes {
		var ids []geometry.SurfaceID
		switch obj := shape.(type) {
		case *geometry.Box:
			for _, f := range obj.Faces() {
				ids = append(ids, f.(*geometry.Quad).SurfaceID)
			}
		case *geometry.Sphere:
			if !s.IsReceiver(obj.SurfaceID) {
				t.Errorf("Sphere %q is not registered as a receiver", obj.SurfaceID)
			}
			continue
		}
		for _, id := range ids {
			if _, ok := s.Lookup(id); !ok {
				t.Errorf("Surface %q has no material", id)
			}
		}
	}
}

func TestScene_Intersect(t *testing.T) {
	s := NewShoeboxScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	source := s.Sources[0].Position
	receiver := s.Receivers[0]

	tests := []struct {
		name        string
		direction   core.Vec3
		maxDistance float64
		hit         bool
		surface     geometry.SurfaceID
		distance    float64
	}{
		{"Right wall", core.NewVec3(1, 0, 0), 50, true, "shoebox/right", 7.5},
		{"Floor", core.NewVec3(0, -1, 0), 50, true, "shoebox/floor", 1.5},
		{"Ceiling", core.NewVec3(0, 1, 0), 50, true, "shoebox/ceiling", 2.5},
		{"Receiver", receiver.Center.Subtract(source).Normalize(), 50, true, receiver.ID, math.Sqrt(29) - receiver.Radius},
		{"Wall beyond ray length", core.NewVec3(1, 0, 0), 5, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := s.Intersect(core.NewRay(source, tt.direction), tt.maxDistance)
			if ok != tt.hit {
				t.Fatalf("Expected hit=%v, got %v", tt.hit, ok)
			}
			if !ok {
				return
			}
			if hit.SurfaceID != tt.surface {
				t.Errorf("Expected surface %q, got %q", tt.surface, hit.SurfaceID)
			}
			if math.Abs(hit.T-tt.distance) > 1e-9 {
				t.Errorf("Expected distance %f, got %f", tt.distance, hit.T)
			}
			if hit.Normal.Dot(tt.direction) > 0 {
				t.Errorf("Normal %v should face against the ray", hit.Normal)
			}
		})
	}
}

func TestScene_IntersectBeforePreprocess(t *testing.T) {
	s := NewShoeboxScene()
	if _, ok := s.Intersect(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0)), 50); ok {
		t.Error("Expected no hit before the BVH is built")
	}
}

func TestScene_PreprocessEmpty(t *testing.T) {
	if err := NewScene("nothing").Preprocess(); err == nil {
		t.Error("Expected error for a scene without geometry")
	}
}

func TestScene_LookupFallsBackToRoom(t *testing.T) {
	s := NewShoeboxScene()

	tests := []struct {
		id       geometry.SurfaceID
		expected string
		found    bool
	}{
		{"shoebox/floor", "wood", true},
		{"shoebox/left", "painted-concrete", true},
		{"shoebox", "painted-concrete", true},
		{"elsewhere/floor", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			m, ok := s.Lookup(tt.id)
			if ok != tt.found {
				t.Fatalf("Expected found=%v, got %v", tt.found, ok)
			}
			if ok && m.Name != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, m.Name)
			}
		})
	}
}

func TestScene_RoomAt(t *testing.T) {
	s := NewAcousticLabScene()

	tests := []struct {
		point    core.Vec3
		expected string
		found    bool
	}{
		{core.NewVec3(0, 1, 0), "empty", true},
		{core.NewVec3(15, 1, 0), "furnished", true},
		{core.NewVec3(7.5, 1, -10), "treated", true},
		{core.NewVec3(7.5, 5, 12), "large", true},
		{core.NewVec3(100, 0, 0), "", false},
	}
	for _, tt := range tests {
		name, ok := s.RoomAt(tt.point)
		if ok != tt.found || name != tt.expected {
			t.Errorf("RoomAt(%v) = %q, %v; want %q, %v", tt.point, name, ok, tt.expected, tt.found)
		}
	}
}

func TestShoebox_Simulation(t *testing.T) {
	s := NewShoeboxScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	config := s.Trace
	config.NumberOfRays = 40
	config.NumWorkers = 2

	events := sink.NewMemorySink()
	sim := simulation.NewSimulator(s, s, config, nil)
	stats, err := sim.Run(context.Background(), s.Pairs(), events)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.RaysTraced != 40 {
		t.Errorf("Expected 40 rays traced, got %d", stats.RaysTraced)
	}
	if events.Len() == 0 {
		t.Fatal("Expected events from a closed reflective room")
	}
	for _, e := range events.Events() {
		if e.RoomLabel != simulation.EmptyRoom {
			t.Fatalf("Expected every event labelled %q, got %q", simulation.EmptyRoom, e.RoomLabel)
		}
		if e.SurfaceID == "" {
			t.Fatal("Expected surface ID on every event")
		}
		if e.Energy > config.InitialEnergy || e.Energy <= 0 {
			t.Fatalf("Event energy %f outside (0, %f]", e.Energy, config.InitialEnergy)
		}
	}
}
