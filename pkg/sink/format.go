package sink

import (
	"strconv"
	"strings"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
)

// Energy precision of the record schema
const (
	EnergyDecimals       = 4 // exponential model records
	LegacyEnergyDecimals = 2 // linear model records
)

// FieldSeparator joins the fields of one record
const FieldSeparator = ", "

// Header names the record fields in order
var Header = []string{
	"roomLabel",
	"source.x", "source.y", "source.z",
	"receiver.x", "receiver.y", "receiver.z",
	"bounceIndex",
	"hit.x", "hit.y", "hit.z",
	"travelTime", "energy",
}

// FormatEvent renders one event as a record line without the trailing newline.
// Travel time has four decimals; energy has energyDecimals.
func FormatEvent(e integrator.RayEvent, energyDecimals int) string {
	fields := make([]string, 0, len(Header))
	fields = append(fields, e.RoomLabel)
	fields = appendVec(fields, e.Source)
	fields = appendVec(fields, e.Receiver)
	fields = append(fields, strconv.Itoa(e.BounceIndex))
	fields = appendVec(fields, e.HitPoint)
	fields = append(fields,
		strconv.FormatFloat(e.TravelTime, 'f', 4, 64),
		strconv.FormatFloat(e.Energy, 'f', energyDecimals, 64),
	)
	return strings.Join(fields, FieldSeparator)
}

func appendVec(fields []string, v core.Vec3) []string {
	return append(fields, formatComponent(v.X), formatComponent(v.Y), formatComponent(v.Z))
}

// formatComponent prints positions the shortest way that round-trips
func formatComponent(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatHeader returns the header line
func FormatHeader() string {
	return strings.Join(Header, FieldSeparator)
}
