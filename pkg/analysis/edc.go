// Package analysis turns recorded ray events into energy decay curves and
// reverberation time estimates.
package analysis

import (
	"bufio"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxBins caps echogram length; later arrivals are dropped
const MaxBins = 1 << 20

// Echogram is a histogram of arriving energy over travel time
type Echogram struct {
	BinWidth float64   // Seconds per bin
	Bins     []float64 // Energy per bin
}

// NewEchogram creates an empty echogram
func NewEchogram(binWidth float64) *Echogram {
	return &Echogram{BinWidth: binWidth}
}

// Add deposits energy at travel time t. Negative times, non-finite values and
// arrivals past MaxBins are ignored.
func (e *Echogram) Add(t, energy float64) {
	if !(t >= 0) || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}
	q := t / e.BinWidth
	if !(q < MaxBins) {
		return
	}
	bin := int(q)
	for len(e.Bins) <= bin {
		e.Bins = append(e.Bins, 0)
	}
	e.Bins[bin] += energy
}

// Total returns the summed energy
func (e *Echogram) Total() float64 {
	return floats.Sum(e.Bins)
}

// Normalized returns the bins divided by the peak bin
func (e *Echogram) Normalized() []float64 {
	out := make([]float64, len(e.Bins))
	copy(out, e.Bins)
	if len(out) == 0 {
		return out
	}
	if peak := floats.Max(out); peak > 0 {
		floats.Scale(1/peak, out)
	}
	return out
}

// EDC returns the Schroeder backward integral: edc[i] is the energy still
// to arrive after bin i.
func EDC(bins []float64) []float64 {
	edc := make([]float64, len(bins))
	remaining := floats.Sum(bins)
	for i, b := range bins {
		remaining -= b
		if remaining < 0 {
			remaining = 0
		}
		edc[i] = remaining
	}
	return edc
}

// DecayCurve returns the EDC in decibels relative to total, paired with the
// time at the end of each bin. The curve starts at (0 s, 0 dB) and stops at
// the first bin with no energy left.
func DecayCurve(bins []float64, binWidth float64) (times, levels []float64) {
	total := floats.Sum(bins)
	if total <= 0 {
		return nil, nil
	}
	times = append(times, 0)
	levels = append(levels, 0)
	for i, v := range EDC(bins) {
		if v <= 0 {
			break
		}
		times = append(times, float64(i+1)*binWidth)
		levels = append(levels, 10*math.Log10(v/total))
	}
	return times, levels
}

// DecayFit is a reverberation time extrapolated from a straight-line fit
type DecayFit struct {
	Seconds float64 `json:"seconds"` // Time to decay by 60 dB
	Slope   float64 `json:"slope"`   // dB per second
	Points  int     `json:"points"`
	OK      bool    `json:"ok"`
}

// DecayEstimate holds the standard reverberation measures
type DecayEstimate struct {
	EDT DecayFit `json:"edt"` // 0 to -10 dB
	T20 DecayFit `json:"t20"` // -5 to -25 dB
	T30 DecayFit `json:"t30"` // -5 to -35 dB
}

// EstimateDecay fits EDT, T20 and T30 to the echogram's decay curve
func EstimateDecay(e *Echogram) DecayEstimate {
	times, levels := DecayCurve(e.Bins, e.BinWidth)
	return DecayEstimate{
		EDT: fitDecay(times, levels, 0, -10),
		T20: fitDecay(times, levels, -5, -25),
		T30: fitDecay(times, levels, -5, -35),
	}
}

// fitDecay regresses level on time over the points between upper and lower dB
func fitDecay(times, levels []float64, upper, lower float64) DecayFit {
	var xs, ys []float64
	reachedLower := false
	for i, level := range levels {
		if level > upper {
			continue
		}
		if level < lower {
			reachedLower = true
			break
		}
		xs = append(xs, times[i])
		ys = append(ys, level)
	}

	fit := DecayFit{Points: len(xs)}
	if len(xs) < 2 || !reachedLower {
		return fit
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	fit.Slope = slope
	if slope < 0 {
		fit.Seconds = -60 / slope
		fit.OK = true
	}
	return fit
}

// WriteEDC writes one curve value per line
func WriteEDC(w io.Writer, edc []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range edc {
		bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
