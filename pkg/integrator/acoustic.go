package integrator

import (
	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

// Config holds the per-path parameters of the acoustic integrator
type Config struct {
	RayLength      float64 // Maximum distance searched for the next hit
	MaxReflections int     // Bounce budget per path
	SpeedOfSound   float64 // Metres per second
	InitialEnergy  float64
	EnergyFloor    float64 // Paths whose energy drops below this are discarded
	Absorption     material.AbsorptionPolicy
	Energy         material.EnergyModel
}

// PathRequest identifies one path to trace
type PathRequest struct {
	Origin    core.Vec3
	Receiver  core.Vec3
	RoomLabel string
	PairIndex int
	RayIndex  int
	Direction core.Vec3 // Initial direction; zero means draw one uniformly
}

// pathState is the mutable state of a single path
type pathState struct {
	ray           core.Ray
	totalDistance float64
	energy        float64
}

// AcousticIntegrator implements stochastic acoustic ray tracing
type AcousticIntegrator struct {
	config  Config
	scene   SceneIntersector
	catalog MaterialCatalog
}

// NewAcousticIntegrator creates a new acoustic integrator
func NewAcousticIntegrator(config Config, scene SceneIntersector, catalog MaterialCatalog) *AcousticIntegrator {
	return &AcousticIntegrator{
		config:  config,
		scene:   scene,
		catalog: catalog,
	}
}

// Config returns the integrator's configuration
func (ai *AcousticIntegrator) Config() Config {
	return ai.config
}

// TracePath emits a ray from req.Origin in a uniformly random direction (or
// req.Direction when set) and
// follows it until it escapes, reaches a receiver, is absorbed or runs out of bounces.
//
// Random draws per bounce happen in a fixed order (octave band if the policy
// needs one, scatter test, scatter direction) so a seeded sampler reproduces a path exactly.
func (ai *AcousticIntegrator) TracePath(req PathRequest, sampler core.Sampler, events []RayEvent) ([]RayEvent, Termination) {
	cfg := ai.config
	direction := req.Direction.Normalize()
	if direction == (core.Vec3{}) {
		direction = core.RandomUnitVector(sampler)
	}
	state := pathState{
		ray:    core.NewRay(req.Origin, direction),
		energy: cfg.InitialEnergy,
	}

	for bounce := 0; bounce < cfg.MaxReflections; bounce++ {
		hit, isHit := ai.scene.Intersect(state.ray, cfg.RayLength)
		if !isHit {
			return events, Escaped
		}

		state.totalDistance += state.ray.Origin.Distance(hit.Point)
		travelTime := state.totalDistance / cfg.SpeedOfSound

		// Receivers record the energy that arrived, before any absorption
		if ai.scene.IsReceiver(hit.SurfaceID) {
			events = append(events, ai.newEvent(req, bounce, hit.Point, travelTime, state.energy, hit.SurfaceID))
			return events, ReachedReceiver
		}

		mat, found := ai.catalog.Lookup(hit.SurfaceID)
		if !found {
			return events, MissingMaterial
		}

		absorption := cfg.Absorption.Absorption(mat, bounce, sampler)
		state.energy *= cfg.Energy.Scale(absorption, bounce)
		if state.energy < cfg.EnergyFloor {
			return events, BelowEnergyFloor
		}

		events = append(events, ai.newEvent(req, bounce, hit.Point, travelTime, state.energy, hit.SurfaceID))

		switch {
		case sampler.Get1D() < mat.Scattering:
			direction = core.RandomUnitVector(sampler)
		case mat.Reflective:
			direction = state.ray.Direction.Reflect(hit.Normal)
		default:
			return events, Absorbed
		}

		state.ray = core.NewRay(hit.Point, direction)
	}

	return events, MaxReflections
}

func (ai *AcousticIntegrator) newEvent(req PathRequest, bounce int, point core.Vec3, travelTime, energy float64, id geometry.SurfaceID) RayEvent {
	return RayEvent{
		RoomLabel:   req.RoomLabel,
		Source:      req.Origin,
		Receiver:    req.Receiver,
		BounceIndex: bounce,
		HitPoint:    point,
		TravelTime:  travelTime,
		Energy:      energy,
		PairIndex:   req.PairIndex,
		RayIndex:    req.RayIndex,
		SurfaceID:   id,
	}
}
