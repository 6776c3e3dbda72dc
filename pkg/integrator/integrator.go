package integrator

import (
	"fmt"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

// SceneIntersector answers nearest-hit queries. Implementations must be safe
// for concurrent use by multiple workers.
type SceneIntersector interface {
	// Intersect returns the nearest hit along ray within maxDistance
	Intersect(ray core.Ray, maxDistance float64) (geometry.HitRecord, bool)
	// IsReceiver reports whether the surface belongs to a receiver
	IsReceiver(id geometry.SurfaceID) bool
}

// MaterialCatalog resolves the acoustic material of a surface
type MaterialCatalog interface {
	Lookup(id geometry.SurfaceID) (material.Material, bool)
}

// EventSink receives finished ray events in a deterministic order
type EventSink interface {
	Record(event RayEvent) error
}

// Integrator traces a single acoustic path
type Integrator interface {
	// TracePath appends the events of one path to events and reports why the path ended
	TracePath(req PathRequest, sampler core.Sampler, events []RayEvent) ([]RayEvent, Termination)
}

// RayEvent is one recorded bounce of a path
type RayEvent struct {
	RoomLabel   string             `json:"roomLabel"`
	Source      core.Vec3          `json:"source"`
	Receiver    core.Vec3          `json:"receiver"`
	BounceIndex int                `json:"bounce"`
	HitPoint    core.Vec3          `json:"hitPoint"`
	TravelTime  float64            `json:"travelTime"` // seconds
	Energy      float64            `json:"energy"`
	PairIndex   int                `json:"pair"`
	RayIndex    int                `json:"ray"`
	SurfaceID   geometry.SurfaceID `json:"surface"`
}

// Termination says why a path stopped
type Termination int

const (
	// Escaped means the ray left the scene without hitting anything
	Escaped Termination = iota
	// ReachedReceiver means the ray hit a receiver and was recorded
	ReachedReceiver
	// MissingMaterial means the hit surface had no material assigned
	MissingMaterial
	// BelowEnergyFloor means the ray became inaudible
	BelowEnergyFloor
	// Absorbed means a non-reflective surface did not scatter the ray
	Absorbed
	// MaxReflections means the bounce budget ran out
	MaxReflections
)

// NumTerminations is the number of distinct termination reasons
const NumTerminations = int(MaxReflections) + 1

var terminationNames = [NumTerminations]string{
	"escaped",
	"receiver",
	"missing-material",
	"energy-floor",
	"absorbed",
	"max-reflections",
}

func (t Termination) String() string {
	if t < 0 || int(t) >= NumTerminations {
		return fmt.Sprintf("Termination(%d)", int(t))
	}
	return terminationNames[t]
}
