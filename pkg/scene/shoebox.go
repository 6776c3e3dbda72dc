package scene

import (
	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
)

// NewShoeboxScene creates a single 10 x 4 x 7 m painted concrete room with
// one source and one receiver, traced per octave with a long bounce budget
func NewShoeboxScene() *Scene {
	s := NewScene("Shoebox")

	s.AddRoom("shoebox", core.NewVec3(0, 2, 0), core.NewVec3(5, 2, 3.5), "painted-concrete")
	s.Catalog.Assign("shoebox/floor", "wood")

	s.AddSource("source", core.NewVec3(-2.5, 1.5, -1))
	s.AddReceiver("mic", core.NewVec3(2.5, 1.5, 1), DefaultReceiverRadius)

	s.Trace.NumberOfRays = 200
	s.Trace.MaxReflections = 30
	s.Trace.AbsorptionPolicy = material.SixOctaveRandom

	return s
}
