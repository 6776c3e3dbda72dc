package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
	"github.com/df07/go-acoustic-raytracer/pkg/scene"
)

const coordinateLimit = 1e6

// InspectResponse represents the JSON response for a single inspected path
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	SurfaceID    string                 `json:"surfaceId"`
	Receiver     bool                   `json:"receiver"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Material     map[string]interface{} `json:"material,omitempty"`
	Geometry     map[string]interface{} `json:"geometry,omitempty"`
	Path         []integrator.RayEvent  `json:"path"`
	Termination  string                 `json:"termination"`
}

// extractMaterialInfo describes an acoustic material
func extractMaterialInfo(mat material.Material) map[string]interface{} {
	properties := map[string]interface{}{
		"name":       mat.Name,
		"absorption": mat.Absorption,
		"scattering": mat.Scattering,
		"reflective": mat.Reflective,
	}
	if mat.IsOctave() {
		properties["bands"] = material.OctaveCenters
	} else {
		properties["bands"] = []string{"low", "mid", "high"}
	}
	return properties
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
		return "sphere", properties

	case *geometry.Quad:
		properties["corner"] = [3]float64{geom.Corner.X, geom.Corner.Y, geom.Corner.Z}
		properties["u"] = [3]float64{geom.U.X, geom.U.Y, geom.U.Z}
		properties["v"] = [3]float64{geom.V.X, geom.V.Y, geom.V.Z}
		properties["area"] = geom.Area()
		return "quad", properties

	case *geometry.Box:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["halfSize"] = [3]float64{geom.Size.X, geom.Size.Y, geom.Size.Z}
		properties["rotation"] = [3]float64{geom.Rotation.X, geom.Rotation.Y, geom.Rotation.Z}
		return "box", properties

	case *geometry.Triangle:
		properties["v0"] = [3]float64{geom.V0.X, geom.V0.Y, geom.V0.Z}
		properties["v1"] = [3]float64{geom.V1.X, geom.V1.Y, geom.V1.Z}
		properties["v2"] = [3]float64{geom.V2.X, geom.V2.Y, geom.V2.Z}
		return "triangle", properties

	default:
		return "unknown", properties
	}
}

// findShape returns the top-level shape responsible for a hit.
// The BVH only returns the hit record, so every shape is tested again.
func findShape(sceneObj *scene.Scene, ray core.Ray, hit geometry.HitRecord) geometry.Shape {
	for _, shape := range sceneObj.Shapes {
		if shapeHit, ok := shape.Hit(ray, scene.SelfIntersectionEpsilon, hit.T+scene.SelfIntersectionEpsilon); ok {
			if shapeHit.T == hit.T && shapeHit.SurfaceID == hit.SurfaceID {
				return shape
			}
		}
	}
	return nil
}

// parseVecParam parses a vector from three query parameters such as dx, dy and dz
func parseVecParam(values url.Values, prefix string, defaultValue core.Vec3) (core.Vec3, error) {
	x, err := parseFloatParam(values, prefix+"x", defaultValue.X, -coordinateLimit, coordinateLimit)
	if err != nil {
		return core.Vec3{}, err
	}
	y, err := parseFloatParam(values, prefix+"y", defaultValue.Y, -coordinateLimit, coordinateLimit)
	if err != nil {
		return core.Vec3{}, err
	}
	z, err := parseFloatParam(values, prefix+"z", defaultValue.Z, -coordinateLimit, coordinateLimit)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(x, y, z), nil
}

// handleInspect traces one path from an origin (default: the first source)
// in a given direction and reports the first hit and the full event path
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	sceneName := values.Get("scene")
	if sceneName == "" {
		sceneName = DefaultScene
	}
	sceneObj, err := scene.Load(sceneName, s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var defaultOrigin core.Vec3
	if len(sceneObj.Sources) > 0 {
		defaultOrigin = sceneObj.Sources[0].Position
	}
	origin, err := parseVecParam(values, "o", defaultOrigin)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	direction, err := parseVecParam(values, "d", core.Vec3{})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if direction.Length() == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Direction must be non-zero"})
		return
	}
	direction = direction.Normalize()

	seed := sceneObj.Trace.Seed
	if v := values.Get("seed"); v != "" {
		if seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid seed"})
			return
		}
	}

	config := sceneObj.Trace
	config.MaxReflections, err = parseIntParam(values, "maxReflections", config.MaxReflections, maxReflectionsLimit.min, maxReflectionsLimit.max)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	response := InspectResponse{Path: []integrator.RayEvent{}}

	ray := core.NewRay(origin, direction)
	hit, isHit := sceneObj.Intersect(ray, math.Inf(1))
	if isHit {
		response.Hit = true
		response.SurfaceID = string(hit.SurfaceID)
		response.Receiver = sceneObj.IsReceiver(hit.SurfaceID)
		response.Point = [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z}
		response.Normal = [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z}
		response.Distance = hit.T
		response.FrontFace = hit.FrontFace
		if mat, ok := sceneObj.Lookup(hit.SurfaceID); ok {
			response.Material = extractMaterialInfo(mat)
		}
		response.GeometryType, response.Geometry = extractGeometryInfo(findShape(sceneObj, ray, hit))
	}

	integ := integrator.NewAcousticIntegrator(config.IntegratorConfig(), sceneObj, sceneObj)
	req := integrator.PathRequest{Origin: origin, Direction: direction}
	path, reason := integ.TracePath(req, core.NewSeededSampler(seed), nil)
	if path != nil {
		response.Path = path
	}
	response.Termination = reason.String()

	writeJSON(w, http.StatusOK, response)
}
