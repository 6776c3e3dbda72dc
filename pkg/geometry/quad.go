package geometry

import (
	"math"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// Quad represents a rectangular surface defined by a corner and two edge vectors
type Quad struct {
	Corner    core.Vec3 // One corner of the quad
	U         core.Vec3 // First edge vector
	V         core.Vec3 // Second edge vector
	Normal    core.Vec3 // Normal vector (U × V, normalized)
	SurfaceID SurfaceID
	d         float64   // Plane equation constant: n · p = d
	w         core.Vec3 // Cached n / (n · (u × v)) for planar coordinates
	bbox      core.AABB
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, id SurfaceID) *Quad {
	cross := u.Cross(v)
	normal := cross.Normalize()

	q := &Quad{
		Corner:    corner,
		U:         u,
		V:         v,
		Normal:    normal,
		SurfaceID: id,
		d:         normal.Dot(corner),
		w:         normal.Multiply(1.0 / normal.Dot(cross)),
	}

	// Flat quads get a thin slab so the BVH never sees a zero-width box
	q.bbox = core.NewAABBFromPoints(corner, corner.Add(u), corner.Add(v), corner.Add(u).Add(v)).Expand(1e-4)
	return q
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Ray parallel to the quad plane
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	t := (q.d - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hitPoint := ray.At(t)
	planar := hitPoint.Subtract(q.Corner)

	alpha := q.w.Dot(planar.Cross(q.V))
	beta := q.w.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return nil, false
	}

	hit := &HitRecord{
		T:         t,
		Point:     hitPoint,
		SurfaceID: q.SurfaceID,
	}
	hit.SetFaceNormal(ray, q.Normal)
	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this quad
func (q *Quad) BoundingBox() core.AABB {
	return q.bbox
}

// Area returns the surface area of the quad
func (q *Quad) Area() float64 {
	return q.U.Cross(q.V).Length()
}
