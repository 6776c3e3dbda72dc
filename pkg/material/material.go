package material

import (
	"fmt"
)

// Band indices for three-band materials
const (
	BandLow  = 0
	BandMid  = 1
	BandHigh = 2
)

// OctaveCenters are the standard octave band centre frequencies in Hz
var OctaveCenters = [6]float64{125, 250, 500, 1000, 2000, 4000}

// Material describes how a surface absorbs and redirects sound.
// Absorption holds either three bands (low, mid, high) or six octave bands
// (125 Hz to 4000 Hz).
type Material struct {
	Name       string
	Absorption []float64
	Scattering float64 // Probability of a diffuse bounce
	Reflective bool    // Whether non-scattered rays reflect specularly
}

// NewThreeBandMaterial creates a material with low, mid and high band coefficients
func NewThreeBandMaterial(name string, low, mid, high, scattering float64, reflective bool) Material {
	return Material{
		Name:       name,
		Absorption: []float64{low, mid, high},
		Scattering: scattering,
		Reflective: reflective,
	}
}

// NewOctaveMaterial creates a material with one coefficient per octave band
func NewOctaveMaterial(name string, coefficients [6]float64, scattering float64, reflective bool) Material {
	absorption := make([]float64, len(coefficients))
	copy(absorption, coefficients[:])
	return Material{
		Name:       name,
		Absorption: absorption,
		Scattering: scattering,
		Reflective: reflective,
	}
}

// DefaultMaterial is applied to surfaces that only ask for "some" material
func DefaultMaterial() Material {
	return NewThreeBandMaterial("default", 0.1, 0.3, 0.5, 0.1, true)
}

// IsOctave reports whether the material carries six octave bands
func (m Material) IsOctave() bool {
	return len(m.Absorption) == len(OctaveCenters)
}

// Validate checks band count and coefficient ranges
func (m Material) Validate() error {
	if n := len(m.Absorption); n != 3 && n != len(OctaveCenters) {
		return fmt.Errorf("material %q: expected 3 or 6 absorption bands, got %d", m.Name, n)
	}
	for i, a := range m.Absorption {
		if !(a >= 0 && a <= 1) {
			return fmt.Errorf("material %q: absorption[%d]=%v outside [0,1]", m.Name, i, a)
		}
	}
	if !(m.Scattering >= 0 && m.Scattering <= 1) {
		return fmt.Errorf("material %q: scattering=%v outside [0,1]", m.Name, m.Scattering)
	}
	return nil
}

// MidFrequencyAbsorption returns the mid band. Octave materials average 500 Hz and 1 kHz.
func (m Material) MidFrequencyAbsorption() float64 {
	return m.ThreeBand(BandMid)
}

// ThreeBand returns the low, mid or high coefficient. Octave materials
// average each pair of octaves (125/250, 500/1000, 2000/4000).
func (m Material) ThreeBand(band int) float64 {
	if band < BandLow {
		band = BandLow
	}
	if band > BandHigh {
		band = BandHigh
	}
	if m.IsOctave() {
		return 0.5 * (m.Absorption[2*band] + m.Absorption[2*band+1])
	}
	return m.Absorption[band]
}

// OctaveAbsorption returns the coefficient for the octave band containing freq.
// Three-band materials map 125/250 Hz to low, 500/1000 Hz to mid and 2000/4000 Hz to high.
func (m Material) OctaveAbsorption(freq float64) float64 {
	index := OctaveBandIndex(freq)
	if m.IsOctave() {
		return m.Absorption[index]
	}
	return m.ThreeBand(index / 2)
}

// OctaveBandIndex maps a frequency to the highest octave centre at or below it.
// Frequencies under 125 Hz fall into the first band.
func OctaveBandIndex(freq float64) int {
	index := 0
	for i, center := range OctaveCenters {
		if freq >= center {
			index = i
		}
	}
	return index
}
