package scene

import (
	"fmt"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
)

// SelfIntersectionEpsilon is the minimum hit distance, so a ray leaving a
// surface does not immediately hit the surface it left
const SelfIntersectionEpsilon = 0.001

// DefaultReceiverRadius is used when a receiver is added without a radius
const DefaultReceiverRadius = 0.5

// Source is a named emitter position
type Source struct {
	Name     string    `json:"name"`
	Position core.Vec3 `json:"position"`
}

// Receiver is a named listening sphere. Rays that hit it end their path.
type Receiver struct {
	Name   string             `json:"name"`
	Center core.Vec3          `json:"center"`
	Radius float64            `json:"radius"`
	ID     geometry.SurfaceID `json:"id"`
}

// Scene contains all the elements needed for a simulation
type Scene struct {
	Name      string
	Shapes    []geometry.Shape // Reflecting geometry and receiver spheres
	Sources   []Source
	Receivers []Receiver
	Catalog   *material.Catalog      // Surface to material bindings
	Trace     simulation.TraceConfig // Scene-level defaults for a run
	BVH       *geometry.BVH          // Acceleration structure for ray-object intersection

	rooms       []room
	receiverIDs map[geometry.SurfaceID]struct{}
}

type room struct {
	name  string
	shell *geometry.Box
}

// NewScene creates an empty scene backed by the built-in material library
func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		Shapes:      make([]geometry.Shape, 0),
		Catalog:     material.NewCatalogWithLibrary(),
		Trace:       simulation.DefaultTraceConfig(),
		receiverIDs: make(map[geometry.SurfaceID]struct{}),
	}
}

// AddRoom adds a closed room shell. Its faces are identified as
// "<name>/floor", "<name>/ceiling" and so on, and the whole room is bound to
// materialName. Individual faces can be re-assigned through the catalog.
func (s *Scene) AddRoom(name string, center, halfSize core.Vec3, materialName string) *geometry.Box {
	shell := geometry.NewRoomBox(center, halfSize, name)
	s.Shapes = append(s.Shapes, shell)
	s.rooms = append(s.rooms, room{name: name, shell: shell})
	s.Catalog.Assign(geometry.SurfaceID(name), materialName)
	return shell
}

// RoomAt returns the name of the first room whose shell contains p
func (s *Scene) RoomAt(p core.Vec3) (string, bool) {
	for _, r := range s.rooms {
		if r.shell.Contains(p) {
			return r.name, true
		}
	}
	return "", false
}

// AddObstacle adds a solid box (furniture, panels, pillars)
func (s *Scene) AddObstacle(id geometry.SurfaceID, center, halfSize, rotation core.Vec3, materialName string) *geometry.Box {
	box := geometry.NewBox(center, halfSize, rotation, id)
	s.Shapes = append(s.Shapes, box)
	s.Catalog.Assign(id, materialName)
	return box
}

// AddShape adds an arbitrary shape bound to a material
func (s *Scene) AddShape(shape geometry.Shape, id geometry.SurfaceID, materialName string) {
	s.Shapes = append(s.Shapes, shape)
	s.Catalog.Assign(id, materialName)
}

// AddSource adds a named source position
func (s *Scene) AddSource(name string, position core.Vec3) {
	s.Sources = append(s.Sources, Source{Name: name, Position: position})
}

// AddReceiver adds a receiver sphere with surface ID "receiver/<name>"
func (s *Scene) AddReceiver(name string, center core.Vec3, radius float64) Receiver {
	if radius <= 0 {
		radius = DefaultReceiverRadius
	}
	if s.receiverIDs == nil {
		s.receiverIDs = make(map[geometry.SurfaceID]struct{})
	}
	id := geometry.SurfaceID("receiver/" + name)
	r := Receiver{Name: name, Center: center, Radius: radius, ID: id}
	s.Receivers = append(s.Receivers, r)
	s.Shapes = append(s.Shapes, geometry.NewSphere(center, radius, id))
	s.receiverIDs[id] = struct{}{}
	return r
}

// Preprocess prepares the scene for tracing by building the BVH
func (s *Scene) Preprocess() error {
	if len(s.Shapes) == 0 {
		return fmt.Errorf("scene %q has no geometry", s.Name)
	}
	s.BVH = geometry.NewBVH(s.Shapes)
	return nil
}

// Intersect returns the nearest hit along the ray within maxDistance.
// It is read-only once Preprocess has run and safe for concurrent use.
func (s *Scene) Intersect(ray core.Ray, maxDistance float64) (geometry.HitRecord, bool) {
	if s.BVH == nil {
		return geometry.HitRecord{}, false
	}
	hit, ok := s.BVH.Hit(ray, SelfIntersectionEpsilon, maxDistance)
	if !ok {
		return geometry.HitRecord{}, false
	}
	return *hit, true
}

// IsReceiver reports whether the surface belongs to a receiver sphere
func (s *Scene) IsReceiver(id geometry.SurfaceID) bool {
	_, ok := s.receiverIDs[id]
	return ok
}

// Lookup resolves a surface's material through the scene catalog
func (s *Scene) Lookup(id geometry.SurfaceID) (material.Material, bool) {
	if s.Catalog == nil {
		return material.Material{}, false
	}
	return s.Catalog.Lookup(id)
}

// Pairs returns every source combined with every receiver, sources outermost
func (s *Scene) Pairs() []simulation.SourceReceiverPair {
	pairs := make([]simulation.SourceReceiverPair, 0, len(s.Sources)*len(s.Receivers))
	for _, src := range s.Sources {
		for _, rcv := range s.Receivers {
			pairs = append(pairs, simulation.SourceReceiverPair{
				Source:       src.Position,
				Receiver:     rcv.Center,
				SourceName:   src.Name,
				ReceiverName: rcv.Name,
			})
		}
	}
	return pairs
}

// RoomPairs returns the subset of Pairs whose source and receiver lie inside
// the same room. Pairs spanning two closed rooms can never connect.
func (s *Scene) RoomPairs() []simulation.SourceReceiverPair {
	var out []simulation.SourceReceiverPair
	for _, p := range s.Pairs() {
		a, okA := s.RoomAt(p.Source)
		b, okB := s.RoomAt(p.Receiver)
		if okA && okB && a == b {
			out = append(out, p)
		}
	}
	return out
}

// GetPrimitiveCount returns the number of quads, triangles and spheres in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, shape := range s.Shapes {
		switch obj := shape.(type) {
		case *geometry.Box:
			count += len(obj.Faces())
		default:
			count++
		}
	}
	return count
}
