package simulation

import (
	"math"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

func TestClassifyRoom(t *testing.T) {
	th := DefaultRoomThresholds()

	tests := []struct {
		name     string
		source   core.Vec3
		receiver core.Vec3
		label    string
		ok       bool
	}{
		{"Empty room", core.NewVec3(4, 0, 0), core.NewVec3(4, 0, 0), EmptyRoom, true},
		{"Furnished room", core.NewVec3(11, 0, 0), core.NewVec3(11, 0, 0), FurnishedRoom, true},
		{"Negative z inside the empty zone stays empty", core.NewVec3(0, 0, -6), core.NewVec3(0, 0, -6), EmptyRoom, true},
		{"Treated room", core.NewVec3(7, 0, -6), core.NewVec3(7, 0, -6), TreatedRoom, true},
		{"Large untreated room", core.NewVec3(7, 0, 3), core.NewVec3(7, 0, 3), LargeUntreatedRoom, true},
		{"Far corner unclassified", core.NewVec3(20, 0, 20), core.NewVec3(20, 0, 20), "", false},

		// Boundaries: comparisons are strict
		{"x=5 is not empty", core.NewVec3(5, 0, 0), core.NewVec3(5, 0, 1), LargeUntreatedRoom, true},
		{"x=10 is not furnished", core.NewVec3(10, 0, 0), core.NewVec3(10, 0, 0), "", false},
		{"x just above 10 is furnished", core.NewVec3(10.001, 0, 0), core.NewVec3(10.001, 0, 0), FurnishedRoom, true},
		{"z=-5 is not treated", core.NewVec3(7, 0, -5), core.NewVec3(7, 0, -5), "", false},
		{"receiver z=0 is not large untreated", core.NewVec3(7, 0, 0), core.NewVec3(7, 0, 0), "", false},
		{"source x=10 is not large untreated", core.NewVec3(10, 0, 1), core.NewVec3(7, 0, 1), "", false},

		// Priority order
		{"Empty beats treated", core.NewVec3(0, 0, -20), core.NewVec3(1, 0, -20), EmptyRoom, true},
		{"Furnished beats treated", core.NewVec3(15, 0, -20), core.NewVec3(15, 0, -20), FurnishedRoom, true},
		{"Treated room far back", core.NewVec3(7, 0, -8), core.NewVec3(7, 0, -8), TreatedRoom, true},
		{"Mixed empty and furnished", core.NewVec3(0, 0, 0), core.NewVec3(15, 0, 0), "", false},
		{"Mixed sides with receiver in front", core.NewVec3(0, 0, 0), core.NewVec3(15, 0, 2), LargeUntreatedRoom, true},

		{"NaN falls through", core.NewVec3(math.NaN(), 0, 0), core.NewVec3(math.NaN(), 0, 0), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := ClassifyRoom(tt.source, tt.receiver, th)
			if label != tt.label || ok != tt.ok {
				t.Errorf("Expected (%q, %v), got (%q, %v)", tt.label, tt.ok, label, ok)
			}
			// Same inputs always give the same answer
			if again, _ := ClassifyRoom(tt.source, tt.receiver, th); again != label {
				t.Errorf("Classification not deterministic: %q then %q", label, again)
			}
		})
	}
}

func TestClassifyRoom_CustomThresholds(t *testing.T) {
	th := RoomThresholds{Furnished: 15, Treated: 10}

	if label, _ := ClassifyRoom(core.NewVec3(12, 0, 1), core.NewVec3(12, 0, 1), th); label != "" {
		t.Errorf("x=12 should not be furnished with threshold 15, got %q", label)
	}
	if label, _ := ClassifyRoom(core.NewVec3(16, 0, 0), core.NewVec3(16, 0, 0), th); label != FurnishedRoom {
		t.Errorf("Expected furnished, got %q", label)
	}
	if label, _ := ClassifyRoom(core.NewVec3(7, 0, -8), core.NewVec3(7, 0, -8), th); label != "" {
		t.Errorf("z=-8 should not be treated with threshold 10, got %q", label)
	}
}
