package material

import (
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// AbsorptionPolicy selects which absorption coefficient applies at a bounce
type AbsorptionPolicy int

const (
	// SingleBand always uses the mid-frequency coefficient
	SingleBand AbsorptionPolicy = iota
	// ThreeBandByBounce uses low for early bounces, mid, then high for late ones
	ThreeBandByBounce
	// SixOctaveRandom draws one octave centre uniformly per bounce
	SixOctaveRandom
)

// Bounce limits for ThreeBandByBounce
const (
	lowBandBounces = 5
	midBandBounces = 15
)

var policyNames = map[AbsorptionPolicy]string{
	SingleBand:        "single",
	ThreeBandByBounce: "three-band",
	SixOctaveRandom:   "six-octave",
}

func (p AbsorptionPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("AbsorptionPolicy(%d)", int(p))
}

// ParseAbsorptionPolicy converts a policy name back to its value
func ParseAbsorptionPolicy(s string) (AbsorptionPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return SingleBand, fmt.Errorf("unknown absorption policy %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p AbsorptionPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *AbsorptionPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseAbsorptionPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Absorption returns the coefficient to apply to m at the given bounce.
// Only SixOctaveRandom draws from the sampler.
func (p AbsorptionPolicy) Absorption(m Material, bounce int, sampler core.Sampler) float64 {
	switch p {
	case ThreeBandByBounce:
		switch {
		case bounce < lowBandBounces:
			return m.ThreeBand(BandLow)
		case bounce < midBandBounces:
			return m.ThreeBand(BandMid)
		default:
			return m.ThreeBand(BandHigh)
		}
	case SixOctaveRandom:
		return m.OctaveAbsorption(RandomOctave(sampler))
	default:
		return m.MidFrequencyAbsorption()
	}
}

// RandomOctave draws one of the six octave centre frequencies uniformly
func RandomOctave(sampler core.Sampler) float64 {
	i := int(sampler.Get1D() * float64(len(OctaveCenters)))
	if i >= len(OctaveCenters) {
		i = len(OctaveCenters) - 1
	}
	return OctaveCenters[i]
}

// EnergyModel converts an absorption coefficient into an energy scale factor
type EnergyModel int

const (
	// Exponential decays harder with both absorption and bounce count
	Exponential EnergyModel = iota
	// Linear keeps the unabsorbed fraction, 1 - a
	Linear
)

// Exponential decay constants
const (
	minDecayRate   = 1.0
	maxDecayRate   = 4.0
	decayPerBounce = 0.8
)

func (m EnergyModel) String() string {
	switch m {
	case Exponential:
		return "exponential"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("EnergyModel(%d)", int(m))
}

// ParseEnergyModel converts a model name back to its value
func ParseEnergyModel(s string) (EnergyModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exponential", "exp":
		return Exponential, nil
	case "linear":
		return Linear, nil
	}
	return Exponential, fmt.Errorf("unknown energy model %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (m EnergyModel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *EnergyModel) UnmarshalText(text []byte) error {
	parsed, err := ParseEnergyModel(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scale returns the factor energy is multiplied by for absorption a at a 0-based bounce
func (m EnergyModel) Scale(a float64, bounce int) float64 {
	if m == Linear {
		return 1 - a
	}
	return math.Exp(-core.Lerp(minDecayRate, maxDecayRate, a) * float64(bounce+1) * decayPerBounce)
}
