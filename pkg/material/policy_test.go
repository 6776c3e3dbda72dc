package material

import (
	"math"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
)

// fixedSampler returns values from a list, repeating the last one
type fixedSampler struct {
	values []float64
	next   int
}

func (f *fixedSampler) Get1D() float64 {
	v := f.values[f.next]
	if f.next < len(f.values)-1 {
		f.next++
	}
	return v
}

func (f *fixedSampler) Get2D() core.Vec2 {
	return core.NewVec2(f.Get1D(), f.Get1D())
}

func TestEnergyModel_ExponentialReference(t *testing.T) {
	// a=0.3, b=2: lerp(1,4,0.3)=1.9, scale = exp(-1.9*3*0.8)
	expected := math.Exp(-1.9 * 3 * 0.8)
	got := Exponential.Scale(0.3, 2)
	if math.Abs(got-expected) > 1e-6 {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	if math.Abs(got-0.010462059) > 1e-6 {
		t.Errorf("Expected ~0.010462, got %v", got)
	}
}

func TestEnergyModel_Scale(t *testing.T) {
	tests := []struct {
		name     string
		model    EnergyModel
		a        float64
		bounce   int
		expected float64
	}{
		{"Exponential zero absorption first bounce", Exponential, 0, 0, math.Exp(-0.8)},
		{"Exponential full absorption first bounce", Exponential, 1, 0, math.Exp(-3.2)},
		{"Exponential grows with bounce", Exponential, 0.5, 4, math.Exp(-2.5 * 5 * 0.8)},
		{"Linear keeps unabsorbed part", Linear, 0.3, 7, 0.7},
		{"Linear zero absorption", Linear, 0, 3, 1},
		{"Linear full absorption", Linear, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.model.Scale(tt.a, tt.bounce); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestEnergyModel_NeverIncreases(t *testing.T) {
	for _, model := range []EnergyModel{Exponential, Linear} {
		for a := 0.0; a <= 1.0; a += 0.05 {
			for b := 0; b < 30; b++ {
				if s := model.Scale(a, b); s < 0 || s > 1 {
					t.Fatalf("%s scale(%v, %d) = %v outside [0,1]", model, a, b, s)
				}
			}
		}
	}
}

func TestAbsorptionPolicy_ThreeBandByBounce(t *testing.T) {
	m := NewThreeBandMaterial("m", 0.1, 0.3, 0.5, 0, true)

	tests := []struct {
		bounce   int
		expected float64
	}{
		{0, 0.1}, {4, 0.1}, {5, 0.3}, {14, 0.3}, {15, 0.5}, {100, 0.5},
	}
	for _, tt := range tests {
		if got := ThreeBandByBounce.Absorption(m, tt.bounce, nil); got != tt.expected {
			t.Errorf("bounce %d: expected %v, got %v", tt.bounce, tt.expected, got)
		}
	}
}

func TestAbsorptionPolicy_SingleBandIgnoresBounce(t *testing.T) {
	m := NewThreeBandMaterial("m", 0.1, 0.3, 0.5, 0, true)
	for _, b := range []int{0, 5, 50} {
		if got := SingleBand.Absorption(m, b, nil); got != 0.3 {
			t.Errorf("bounce %d: expected mid absorption 0.3, got %v", b, got)
		}
	}
}

func TestAbsorptionPolicy_SixOctaveRandom(t *testing.T) {
	m := NewOctaveMaterial("m", [6]float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06}, 0, true)

	tests := []struct {
		draw     float64
		expected float64
	}{
		{0.0, 0.01},
		{0.17, 0.02},
		{0.4, 0.03},
		{0.55, 0.04},
		{0.7, 0.05},
		{0.999999, 0.06},
	}
	for _, tt := range tests {
		sampler := &fixedSampler{values: []float64{tt.draw}}
		if got := SixOctaveRandom.Absorption(m, 0, sampler); got != tt.expected {
			t.Errorf("draw %v: expected %v, got %v", tt.draw, tt.expected, got)
		}
	}
}

func TestRandomOctave_Uniform(t *testing.T) {
	sampler := core.NewSeededSampler(42)
	counts := make(map[float64]int)
	const n = 60000
	for i := 0; i < n; i++ {
		counts[RandomOctave(sampler)]++
	}
	for _, f := range OctaveCenters {
		if frac := float64(counts[f]) / n; math.Abs(frac-1.0/6) > 0.01 {
			t.Errorf("Octave %v drawn with frequency %.3f", f, frac)
		}
	}
}

func TestParsePolicyAndModel(t *testing.T) {
	for _, p := range []AbsorptionPolicy{SingleBand, ThreeBandByBounce, SixOctaveRandom} {
		var parsed AbsorptionPolicy
		if err := parsed.UnmarshalText([]byte(p.String())); err != nil || parsed != p {
			t.Errorf("Round trip of %s gave %s, %v", p, parsed, err)
		}
	}
	if _, err := ParseAbsorptionPolicy("quadraphonic"); err == nil {
		t.Error("Expected error for unknown policy")
	}

	for _, m := range []EnergyModel{Exponential, Linear} {
		var parsed EnergyModel
		if err := parsed.UnmarshalText([]byte(m.String())); err != nil || parsed != m {
			t.Errorf("Round trip of %s gave %s, %v", m, parsed, err)
		}
	}
	if _, err := ParseEnergyModel("sabine"); err == nil {
		t.Error("Expected error for unknown model")
	}
}
