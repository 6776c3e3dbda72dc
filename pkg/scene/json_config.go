package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/loaders"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

// Config is the JSON description of a scene file
type Config struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Group       string            `json:"group,omitempty"`
	Materials   []MaterialCfg     `json:"materials,omitempty"`
	Rooms       []RoomCfg         `json:"rooms"`
	Obstacles   []ObstacleCfg     `json:"obstacles,omitempty"`
	Triangles   []TriangleCfg     `json:"triangles,omitempty"`
	Meshes      []MeshCfg         `json:"meshes,omitempty"`
	Sources     []SourceCfg       `json:"sources"`
	Receivers   []ReceiverCfg     `json:"receivers"`
	Assignments map[string]string `json:"assignments,omitempty"` // Surface ID => material name
	// Trace holds any TraceConfig fields to override; absent fields keep their defaults
	Trace json.RawMessage `json:"trace,omitempty"`

	dir string // Mesh files are resolved against this directory
}

// MaterialCfg defines a material with 3 (low/mid/high) or 6 (octave) coefficients
type MaterialCfg struct {
	Name       string    `json:"name"`
	Absorption []float64 `json:"absorption"`
	Scattering float64   `json:"scattering"`
	Reflective *bool     `json:"reflective,omitempty"` // defaults to true
}

// RoomCfg is a closed room shell
type RoomCfg struct {
	Name     string            `json:"name"`
	Center   core.Vec3         `json:"center"`
	HalfSize core.Vec3         `json:"halfSize"`
	Material string            `json:"material"`
	Faces    map[string]string `json:"faces,omitempty"` // Face name => material override
}

// Rotation in degrees for JSON (friendlier than radians).
type RotDeg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Radians converts the rotation to the radian vector used by geometry.NewBox
func (r RotDeg) Radians() core.Vec3 {
	const k = math.Pi / 180
	return core.NewVec3(r.X*k, r.Y*k, r.Z*k)
}

// ObstacleCfg is a solid, optionally rotated box inside a room
type ObstacleCfg struct {
	Name     string    `json:"name"`
	Center   core.Vec3 `json:"center"`
	HalfSize core.Vec3 `json:"halfSize"`
	RotDeg   RotDeg    `json:"rotDeg"`
	Material string    `json:"material"`
}

// TriangleCfg is a single triangle, for sloped ceilings and odd walls
type TriangleCfg struct {
	Name     string    `json:"name"`
	V0       core.Vec3 `json:"v0"`
	V1       core.Vec3 `json:"v1"`
	V2       core.Vec3 `json:"v2"`
	Material string    `json:"material"`
}

// SourceCfg is a named source position
type SourceCfg struct {
	Name     string    `json:"name"`
	Position core.Vec3 `json:"position"`
}

// ReceiverCfg is a named receiver sphere
type ReceiverCfg struct {
	Name   string    `json:"name"`
	Center core.Vec3 `json:"center"`
	Radius float64   `json:"radius,omitempty"`
}

// Build validates and constructs the material
func (mc MaterialCfg) Build() (material.Material, error) {
	reflective := true
	if mc.Reflective != nil {
		reflective = *mc.Reflective
	}

	var m material.Material
	switch len(mc.Absorption) {
	case 3:
		m = material.NewThreeBandMaterial(mc.Name, mc.Absorption[0], mc.Absorption[1], mc.Absorption[2], mc.Scattering, reflective)
	case 6:
		var coeffs [6]float64
		copy(coeffs[:], mc.Absorption)
		m = material.NewOctaveMaterial(mc.Name, coeffs, mc.Scattering, reflective)
	default:
		return material.Material{}, fmt.Errorf("material %q: need 3 or 6 absorption coefficients, got %d", mc.Name, len(mc.Absorption))
	}
	if err := m.Validate(); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

// Build adds the room shell and its face overrides to the scene
func (rc RoomCfg) Build(s *Scene) error {
	if rc.Name == "" {
		return fmt.Errorf("room has no name")
	}
	if rc.HalfSize.X <= 0 || rc.HalfSize.Y <= 0 || rc.HalfSize.Z <= 0 {
		return fmt.Errorf("room %q: halfSize must be > 0 on all axes, got %+v", rc.Name, rc.HalfSize)
	}
	mat := rc.Material
	if mat == "" {
		mat = material.DefaultMaterial().Name
	}
	s.AddRoom(rc.Name, rc.Center, rc.HalfSize, mat)

	known := make(map[string]bool, 6)
	for f := geometry.FaceFront; f <= geometry.FaceFloor; f++ {
		known[f.String()] = true
	}
	for face, name := range rc.Faces {
		if !known[face] {
			return fmt.Errorf("room %q: unknown face %q", rc.Name, face)
		}
		s.Catalog.Assign(geometry.SurfaceID(rc.Name+"/"+face), name)
	}
	return nil
}

// Build adds the obstacle box to the scene
func (oc ObstacleCfg) Build(s *Scene) error {
	if oc.Name == "" {
		return fmt.Errorf("obstacle has no name")
	}
	if oc.HalfSize.X <= 0 || oc.HalfSize.Y <= 0 || oc.HalfSize.Z <= 0 {
		return fmt.Errorf("obstacle %q: halfSize must be > 0 on all axes, got %+v", oc.Name, oc.HalfSize)
	}
	s.AddObstacle(geometry.SurfaceID(oc.Name), oc.Center, oc.HalfSize, oc.RotDeg.Radians(), oc.Material)
	return nil
}

// Build adds the triangle to the scene
func (tc TriangleCfg) Build(s *Scene) error {
	if tc.Name == "" {
		return fmt.Errorf("triangle has no name")
	}
	tri := geometry.NewTriangle(tc.V0, tc.V1, tc.V2, geometry.SurfaceID(tc.Name))
	if tri.Normal().LengthSquared() == 0 {
		return fmt.Errorf("triangle %q is degenerate", tc.Name)
	}
	s.AddShape(tri, geometry.SurfaceID(tc.Name), tc.Material)
	return nil
}

// MeshCfg imports the triangles of a PLY file. Every triangle shares the mesh
// name as its surface ID.
type MeshCfg struct {
	Name     string    `json:"name"`
	File     string    `json:"file"` // Relative to the scene file
	Material string    `json:"material"`
	Offset   core.Vec3 `json:"offset"`
	Scale    float64   `json:"scale,omitempty"` // 0 means 1
}

// Build loads the mesh and adds its non-degenerate triangles to the scene
func (mc MeshCfg) Build(s *Scene, dir string) error {
	if mc.Name == "" {
		return fmt.Errorf("mesh has no name")
	}
	if mc.File == "" {
		return fmt.Errorf("mesh %q has no file", mc.Name)
	}
	scale := mc.Scale
	if scale == 0 {
		scale = 1
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("mesh %q: scale must be positive, got %v", mc.Name, mc.Scale)
	}

	path := mc.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := loaders.LoadPLY(path)
	if err != nil {
		return fmt.Errorf("mesh %q: %w", mc.Name, err)
	}

	id := geometry.SurfaceID(mc.Name)
	transform := func(v core.Vec3) core.Vec3 { return v.Multiply(scale).Add(mc.Offset) }
	added := 0
	for i := 0; i < data.TriangleCount(); i++ {
		v0, v1, v2 := data.Triangle(i)
		tri := geometry.NewTriangle(transform(v0), transform(v1), transform(v2), id)
		if tri.Normal().LengthSquared() == 0 {
			continue
		}
		s.Shapes = append(s.Shapes, tri)
		added++
	}
	if added == 0 {
		return fmt.Errorf("mesh %q has no usable triangles", mc.Name)
	}
	mat := mc.Material
	if mat == "" {
		mat = material.DefaultMaterial().Name
	}
	s.Catalog.Assign(id, mat)
	return nil
}

// Build constructs the scene described by the config. The returned scene
// has not been preprocessed.
func (c *Config) Build() (*Scene, error) {
	if len(c.Rooms) == 0 && len(c.Obstacles) == 0 && len(c.Triangles) == 0 && len(c.Meshes) == 0 {
		return nil, fmt.Errorf("scene %q has no geometry", c.Name)
	}
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("scene %q has no sources", c.Name)
	}
	if len(c.Receivers) == 0 {
		return nil, fmt.Errorf("scene %q has no receivers", c.Name)
	}

	s := NewScene(c.Name)
	for _, mc := range c.Materials {
		m, err := mc.Build()
		if err != nil {
			return nil, err
		}
		s.Catalog.Define(m)
	}
	for _, rc := range c.Rooms {
		if err := rc.Build(s); err != nil {
			return nil, err
		}
	}
	for _, oc := range c.Obstacles {
		if err := oc.Build(s); err != nil {
			return nil, err
		}
	}
	for _, tc := range c.Triangles {
		if err := tc.Build(s); err != nil {
			return nil, err
		}
	}
	for _, mc := range c.Meshes {
		if err := mc.Build(s, c.dir); err != nil {
			return nil, err
		}
	}
	for id, name := range c.Assignments {
		s.Catalog.Assign(geometry.SurfaceID(id), name)
	}
	for _, src := range c.Sources {
		if !src.Position.IsFinite() {
			return nil, fmt.Errorf("source %q has a non-finite position", src.Name)
		}
		s.AddSource(src.Name, src.Position)
	}
	for _, rcv := range c.Receivers {
		if !rcv.Center.IsFinite() {
			return nil, fmt.Errorf("receiver %q has a non-finite center", rcv.Name)
		}
		s.AddReceiver(rcv.Name, rcv.Center, rcv.Radius)
	}

	if len(c.Trace) > 0 {
		if err := json.Unmarshal(c.Trace, &s.Trace); err != nil {
			return nil, fmt.Errorf("scene %q: invalid trace overrides: %w", c.Name, err)
		}
	}
	if err := s.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", c.Name, err)
	}
	return s, nil
}

// ParseConfig decodes a scene description
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSceneFile reads, builds and preprocesses a JSON scene file
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = sceneNameFromPath(path)
	}
	cfg.dir = filepath.Dir(path)
	s, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if err := s.Preprocess(); err != nil {
		return nil, err
	}
	return s, nil
}
