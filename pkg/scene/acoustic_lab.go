package scene

import (
	"math"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/geometry"
)

// NewAcousticLabScene creates four closed rooms laid out so that each
// room's own source/receiver pair falls in a different classification zone:
// an empty concrete room around the origin, a furnished room beyond x=10, an
// absorber-treated room below z=-5 and a tall untreated hall at positive z.
func NewAcousticLabScene() *Scene {
	s := NewScene("Acoustic Lab")

	// Empty room: bare concrete, x in [-4, 4]
	s.AddRoom("empty", core.NewVec3(0, 1.5, 0), core.NewVec3(4, 1.5, 4), "concrete")
	s.AddSource("empty-source", core.NewVec3(-2, 1.5, -1))
	s.AddReceiver("empty-mic", core.NewVec3(2, 1.5, 1.5), DefaultReceiverRadius)

	// Furnished room: x in [11, 21]
	s.AddRoom("furnished", core.NewVec3(16, 1.5, 0), core.NewVec3(5, 1.5, 4), "drywall")
	s.Catalog.Assign("furnished/floor", "carpet")
	s.AddObstacle("furnished/sofa", core.NewVec3(16, 0.4, 3), core.NewVec3(1.5, 0.4, 0.5), core.Vec3{}, "upholstered")
	s.AddObstacle("furnished/table", core.NewVec3(16, 0.375, 0), core.NewVec3(0.8, 0.375, 0.5), core.Vec3{}, "wood")
	s.AddObstacle("furnished/bookshelf", core.NewVec3(20.7, 1, -2), core.NewVec3(0.25, 1, 1), core.Vec3{}, "wood")
	s.AddObstacle("furnished/armchair", core.NewVec3(13, 0.45, 2.5), core.NewVec3(0.45, 0.45, 0.45),
		core.NewVec3(0, math.Pi/6, 0), "upholstered")
	s.AddSource("furnished-source", core.NewVec3(13, 1.5, -1))
	s.AddReceiver("furnished-mic", core.NewVec3(19, 1.5, 1.5), DefaultReceiverRadius)

	// Treated room: x in [5.1, 9.9], z in [-14, -6]
	s.AddRoom("treated", core.NewVec3(7.5, 1.5, -10), core.NewVec3(2.4, 1.5, 4), "drywall")
	s.Catalog.Assign("treated/floor", "carpet")
	s.Catalog.Assign("treated/ceiling", "acoustic-panel")
	panels := []struct {
		id       geometry.SurfaceID
		center   core.Vec3
		halfSize core.Vec3
	}{
		{"treated/panel-left", core.NewVec3(5.2, 1.5, -10), core.NewVec3(0.05, 0.6, 1.5)},
		{"treated/panel-right", core.NewVec3(9.8, 1.5, -10), core.NewVec3(0.05, 0.6, 1.5)},
		{"treated/panel-back", core.NewVec3(7.5, 1.5, -13.9), core.NewVec3(1, 0.6, 0.05)},
		{"treated/cloud", core.NewVec3(7.5, 2.8, -10), core.NewVec3(1.2, 0.05, 1.5)},
	}
	for _, p := range panels {
		s.AddObstacle(p.id, p.center, p.halfSize, core.Vec3{}, "acoustic-panel")
	}
	s.AddSource("treated-source", core.NewVec3(6.5, 1.5, -7.5))
	s.AddReceiver("treated-mic", core.NewVec3(8.5, 1.5, -12), DefaultReceiverRadius)

	// Large untreated hall: x in [1.5, 13.5], z in [6, 18], 6m high
	s.AddRoom("large", core.NewVec3(7.5, 3, 12), core.NewVec3(6, 3, 6), "concrete")
	s.AddObstacle("large/pillar", core.NewVec3(7.5, 3, 12), core.NewVec3(0.4, 2.9, 0.4),
		core.NewVec3(0, math.Pi/4, 0), "painted-concrete")
	s.AddSource("large-source", core.NewVec3(4, 1.5, 9))
	s.AddReceiver("large-mic", core.NewVec3(11, 1.5, 15), DefaultReceiverRadius)

	return s
}
