package geometry

import "github.com/df07/go-acoustic-raytracer/pkg/core"

// BoxFace names one of the six faces of a box
type BoxFace int

const (
	FaceFront   BoxFace = iota // Z+
	FaceBack                   // Z-
	FaceRight                  // X+
	FaceLeft                   // X-
	FaceCeiling                // Y+
	FaceFloor                  // Y-
)

var boxFaceNames = [6]string{"front", "back", "right", "left", "ceiling", "floor"}

// String returns the face name used in surface IDs
func (f BoxFace) String() string {
	if f < 0 || int(f) >= len(boxFaceNames) {
		return "unknown"
	}
	return boxFaceNames[f]
}

// Box represents a rectangular box made up of 6 quads with optional rotation.
// Rays can hit it from outside (furniture) or from inside (room shells).
type Box struct {
	Center   core.Vec3 // Center point of the box
	Size     core.Vec3 // Half-extents along each axis
	Rotation core.Vec3 // Rotation angles in radians (X, Y, Z)
	faces    [6]*Quad  // The 6 quad faces
	bbox     core.AABB // Cached bounding box
}

// NewBox creates a box whose faces all share one surface ID.
// Size represents half-extents (so a size of (1,1,1) creates a 2x2x2 box).
func NewBox(center, size, rotation core.Vec3, id SurfaceID) *Box {
	var ids [6]SurfaceID
	for i := range ids {
		ids[i] = id
	}
	return NewBoxWithFaces(center, size, rotation, ids)
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3, id SurfaceID) *Box {
	return NewBox(center, size, core.Vec3{}, id)
}

// NewRoomBox creates an axis-aligned room shell whose faces are identified
// as "<prefix>/floor", "<prefix>/ceiling", "<prefix>/left" and so on
func NewRoomBox(center, size core.Vec3, prefix string) *Box {
	return NewBoxWithFaces(center, size, core.Vec3{}, RoomFaceIDs(prefix))
}

// RoomFaceIDs returns the per-face surface IDs used by NewRoomBox
func RoomFaceIDs(prefix string) [6]SurfaceID {
	var ids [6]SurfaceID
	for i := range ids {
		ids[i] = SurfaceID(prefix + "/" + BoxFace(i).String())
	}
	return ids
}

// NewBoxWithFaces creates a box with an explicit surface ID per face, indexed by BoxFace
func NewBoxWithFaces(center, size, rotation core.Vec3, ids [6]SurfaceID) *Box {
	box := &Box{
		Center:   center,
		Size:     size,
		Rotation: rotation,
	}
	box.generateFaces(ids)
	return box
}

// generateFaces creates the 6 quad faces of the box
func (b *Box) generateFaces(ids [6]SurfaceID) {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	for i := range corners {
		scaled := core.NewVec3(corners[i].X*b.Size.X, corners[i].Y*b.Size.Y, corners[i].Z*b.Size.Z)
		corners[i] = scaled.Rotate(b.Rotation).Add(b.Center)
	}

	// Each face: corner plus two edges, wound so U × V points outward
	faceCorners := [6][3]int{
		FaceFront:   {4, 5, 7},
		FaceBack:    {1, 0, 2},
		FaceRight:   {5, 1, 6},
		FaceLeft:    {0, 4, 3},
		FaceCeiling: {3, 7, 2},
		FaceFloor:   {4, 0, 5},
	}
	for face, c := range faceCorners {
		b.faces[face] = NewQuad(
			corners[c[0]],
			corners[c[1]].Subtract(corners[c[0]]),
			corners[c[2]].Subtract(corners[c[0]]),
			ids[face],
		)
	}

	b.bbox = core.NewAABBFromPoints(corners[:]...)
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	var closestHit *HitRecord
	closestT := tMax

	for _, face := range b.faces {
		if hit, isHit := face.Hit(ray, tMin, closestT); isHit {
			closestT = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

// Face returns the quad for one face
func (b *Box) Face(face BoxFace) *Quad {
	return b.faces[face]
}

// Faces returns the six faces as individual shapes so a BVH can split them
func (b *Box) Faces() []Shape {
	shapes := make([]Shape, 0, len(b.faces))
	for _, f := range b.faces {
		shapes = append(shapes, f)
	}
	return shapes
}

// Contains reports whether p lies inside an axis-aligned box
func (b *Box) Contains(p core.Vec3) bool {
	return b.bbox.Contains(p)
}
