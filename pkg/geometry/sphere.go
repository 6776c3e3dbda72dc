package geometry

import (
	"math"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// Sphere represents a sphere shape. Receivers are modelled as small spheres.
type Sphere struct {
	Center    core.Vec3
	Radius    float64
	SurfaceID SurfaceID
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, id SurfaceID) *Sphere {
	return &Sphere{
		Center:    center,
		Radius:    radius,
		SurfaceID: id,
	}
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	oc := ray.Origin.Subtract(s.Center)

	// at² + 2ht + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}
	sqrtD := math.Sqrt(discriminant)

	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return nil, false
		}
	}

	hit := &HitRecord{
		T:         root,
		Point:     ray.At(root),
		SurfaceID: s.SurfaceID,
	}
	outwardNormal := hit.Point.Subtract(s.Center).Multiply(1.0 / s.Radius)
	hit.SetFaceNormal(ray, outwardNormal)

	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}
