package analysis

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// exponentialEchogram decays by 60 dB every rt seconds
func exponentialEchogram(rt, binWidth float64, bins int) *Echogram {
	e := NewEchogram(binWidth)
	rate := math.Log(1e6) / rt
	for i := 0; i < bins; i++ {
		t := float64(i) * binWidth
		e.Add(t+binWidth/2, math.Exp(-rate*t))
	}
	return e
}

func TestEDC_BackwardIntegration(t *testing.T) {
	edc := EDC([]float64{4, 3, 2, 1})
	expected := []float64{6, 3, 1, 0}
	for i := range expected {
		if math.Abs(edc[i]-expected[i]) > 1e-12 {
			t.Errorf("edc[%d] = %v, want %v", i, edc[i], expected[i])
		}
	}
	for i := 1; i < len(edc); i++ {
		if edc[i] > edc[i-1] {
			t.Errorf("EDC must be non-increasing at %d", i)
		}
	}
}

func TestEchogram_AddAndNormalize(t *testing.T) {
	e := NewEchogram(0.01)
	e.Add(0.005, 1)
	e.Add(0.025, 4)
	e.Add(0.029, 1)
	e.Add(-1, 100)
	e.Add(math.NaN(), 100)
	e.Add(0.01, math.Inf(1))

	if len(e.Bins) != 3 {
		t.Fatalf("Expected 3 bins, got %d", len(e.Bins))
	}
	if e.Total() != 6 {
		t.Errorf("Expected total 6, got %v", e.Total())
	}
	n := e.Normalized()
	if n[2] != 1 || n[0] != 0.2 || n[1] != 0 {
		t.Errorf("Unexpected normalized bins %v", n)
	}
	if e.Bins[2] != 5 {
		t.Error("Normalized must not modify the echogram")
	}
}

func TestEchogram_AddOutOfRangeTimes(t *testing.T) {
	tests := []struct {
		name string
		t    float64
	}{
		{"huge finite time", 4.0 / 1e-300},
		{"infinite time", math.Inf(1)},
		{"just past last bin", MaxBins * 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEchogram(0.001)
			e.Add(tt.t, 0.5)
			if len(e.Bins) != 0 {
				t.Errorf("Expected no bins, got %d", len(e.Bins))
			}
		})
	}

	e := NewEchogram(0.001)
	e.Add((MaxBins-1)*0.001+0.0005, 0.5)
	if len(e.Bins) != MaxBins {
		t.Errorf("Expected %d bins for the last valid time, got %d", MaxBins, len(e.Bins))
	}
}

func TestCollector_HugeTravelTime(t *testing.T) {
	c := NewCollector(DefaultBinWidth)
	if err := c.Record(integrator.RayEvent{TravelTime: 4.0 / 1e-300, Energy: 0.5}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if e, ok := c.Echogram(""); ok && len(e.Bins) != 0 {
		t.Errorf("Expected empty echogram, got %d bins", len(e.Bins))
	}
}

func TestEstimateDecay_ExponentialRoom(t *testing.T) {
	tests := []struct {
		name string
		rt   float64
	}{
		{"Dry room", 0.3},
		{"Live room", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := exponentialEchogram(tt.rt, 0.001, int(tt.rt*2000))
			est := EstimateDecay(e)

			for name, fit := range map[string]DecayFit{"EDT": est.EDT, "T20": est.T20, "T30": est.T30} {
				if !fit.OK {
					t.Fatalf("%s fit failed: %+v", name, fit)
				}
				if math.Abs(fit.Seconds-tt.rt)/tt.rt > 0.02 {
					t.Errorf("%s = %.4f, want %.4f", name, fit.Seconds, tt.rt)
				}
			}
		})
	}
}

func TestEstimateDecay_NotEnoughRange(t *testing.T) {
	// One burst of energy has no measurable decay
	e := NewEchogram(0.001)
	e.Add(0.01, 1)
	est := EstimateDecay(e)
	if est.T20.OK || est.T30.OK {
		t.Errorf("Expected no estimate from a single arrival, got %+v", est)
	}

	if est := EstimateDecay(NewEchogram(0.001)); est.EDT.OK {
		t.Error("Empty echogram should not produce an estimate")
	}
}

func TestWriteEDC(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDC(&buf, []float64{6, 3.5, 0}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "6\n3.5\n0\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestCollector_GroupsByRoom(t *testing.T) {
	c := NewCollector(0.01)
	events := []integrator.RayEvent{
		{RoomLabel: "Empty Room", TravelTime: 0.001, Energy: 0.5},
		{RoomLabel: "Empty Room", TravelTime: 0.015, Energy: 0.25},
		{RoomLabel: "Treated Room", TravelTime: 0.002, Energy: 0.1},
	}
	for _, e := range events {
		if err := c.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	if rooms := c.Rooms(); strings.Join(rooms, ",") != "Empty Room,Treated Room" {
		t.Errorf("Unexpected rooms %v", rooms)
	}
	empty, ok := c.Echogram("Empty Room")
	if !ok || len(empty.Bins) != 2 || empty.Total() != 0.75 {
		t.Errorf("Unexpected empty room echogram %+v", empty)
	}
	if _, ok := c.Echogram("Furnished Room"); ok {
		t.Error("Unknown room should not have an echogram")
	}
	if len(c.Estimates()) != 2 {
		t.Errorf("Expected estimates for 2 rooms, got %d", len(c.Estimates()))
	}
}

func TestReceiverCollector_Filters(t *testing.T) {
	c := NewReceiverCollector(0.01, func(e integrator.RayEvent) bool { return e.SurfaceID == "mic" })
	c.Record(integrator.RayEvent{RoomLabel: "A", TravelTime: 0.01, Energy: 1, SurfaceID: "wall"})
	c.Record(integrator.RayEvent{RoomLabel: "A", TravelTime: 0.01, Energy: 2, SurfaceID: "mic"})

	e, ok := c.Echogram("A")
	if !ok || e.Total() != 2 {
		t.Errorf("Expected only receiver energy, got %+v", e)
	}
}
