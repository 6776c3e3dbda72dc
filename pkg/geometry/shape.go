package geometry

import "github.com/df07/go-acoustic-raytracer/pkg/core"

// SurfaceID identifies a surface in the scene. It is opaque to the tracer:
// the scene uses it to flag receivers and the catalog uses it to find materials.
type SurfaceID string

// HitRecord contains information about a ray-surface intersection
type HitRecord struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Unit normal, facing against the incoming ray
	T         float64   // Distance along the (unit) ray direction
	FrontFace bool      // Whether ray hit the outward-facing side
	SurfaceID SurfaceID // Surface that was hit
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *HitRecord) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape interface for objects that can be hit by rays
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool)
	BoundingBox() core.AABB
}
