package analysis

import (
	"sort"
	"sync"

	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// DefaultBinWidth is one millisecond
const DefaultBinWidth = 0.001

// Collector is an event sink that builds one echogram per room label
type Collector struct {
	mu       sync.Mutex
	binWidth float64
	rooms    map[string]*Echogram
}

// NewCollector creates a collector that bins every recorded event
func NewCollector(binWidth float64) *Collector {
	if binWidth <= 0 {
		binWidth = DefaultBinWidth
	}
	return &Collector{
		binWidth: binWidth,
		rooms:    make(map[string]*Echogram),
	}
}

// NewReceiverCollector creates a collector that only bins events that hit a receiver
func NewReceiverCollector(binWidth float64, isReceiver func(integrator.RayEvent) bool) *ReceiverCollector {
	return &ReceiverCollector{Collector: NewCollector(binWidth), isReceiver: isReceiver}
}

// Record adds the event energy at its travel time
func (c *Collector) Record(e integrator.RayEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	echogram, ok := c.rooms[e.RoomLabel]
	if !ok {
		echogram = NewEchogram(c.binWidth)
		c.rooms[e.RoomLabel] = echogram
	}
	echogram.Add(e.TravelTime, e.Energy)
	return nil
}

// Rooms returns the room labels seen so far, sorted
func (c *Collector) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	labels := make([]string, 0, len(c.rooms))
	for label := range c.rooms {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Echogram returns a copy of the echogram for one room
func (c *Collector) Echogram(label string) (*Echogram, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.rooms[label]
	if !ok {
		return nil, false
	}
	bins := make([]float64, len(e.Bins))
	copy(bins, e.Bins)
	return &Echogram{BinWidth: e.BinWidth, Bins: bins}, true
}

// Estimates returns the decay estimate for every room
func (c *Collector) Estimates() map[string]DecayEstimate {
	out := make(map[string]DecayEstimate)
	for _, label := range c.Rooms() {
		e, _ := c.Echogram(label)
		out[label] = EstimateDecay(e)
	}
	return out
}

// ReceiverCollector bins only the events accepted by its predicate
type ReceiverCollector struct {
	*Collector
	isReceiver func(integrator.RayEvent) bool
}

// Record forwards receiver events to the embedded collector
func (r *ReceiverCollector) Record(e integrator.RayEvent) error {
	if r.isReceiver != nil && !r.isReceiver(e) {
		return nil
	}
	return r.Collector.Record(e)
}
