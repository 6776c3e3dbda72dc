package simulation

import "github.com/df07/go-acoustic-raytracer/pkg/core"

// Room labels attached to recorded events
const (
	EmptyRoom          = "Empty Room"
	FurnishedRoom      = "Furnished Room"
	TreatedRoom        = "Treated Room"
	LargeUntreatedRoom = "Large Untreated Room"
)

// RoomThresholds are the zone boundaries used by ClassifyRoom
type RoomThresholds struct {
	Furnished float64 // Both x beyond this => furnished
	Treated   float64 // Both z below minus this => treated
}

// DefaultRoomThresholds returns the standard zone boundaries
func DefaultRoomThresholds() RoomThresholds {
	return RoomThresholds{Furnished: 10, Treated: 5}
}

// ClassifyRoom labels a source/receiver pair by position. The rules are
// checked in order and the first match wins; ok is false for pairs that
// fall outside every zone. NaN coordinates compare false and fall through.
func ClassifyRoom(source, receiver core.Vec3, th RoomThresholds) (label string, ok bool) {
	switch {
	case source.X < 5 && receiver.X < 5:
		return EmptyRoom, true
	case source.X > th.Furnished && receiver.X > th.Furnished:
		return FurnishedRoom, true
	case source.Z < -th.Treated && receiver.Z < -th.Treated:
		return TreatedRoom, true
	case source.X < 10 && receiver.Z > 0:
		return LargeUntreatedRoom, true
	}
	return "", false
}

// SourceReceiverPair is the unit of work for one batch of rays
type SourceReceiverPair struct {
	Source       core.Vec3 `json:"source"`
	Receiver     core.Vec3 `json:"receiver"`
	SourceName   string    `json:"sourceName,omitempty"`
	ReceiverName string    `json:"receiverName,omitempty"`
}

// NewSourceReceiverPair creates an unnamed pair
func NewSourceReceiverPair(source, receiver core.Vec3) SourceReceiverPair {
	return SourceReceiverPair{Source: source, Receiver: receiver}
}

func (p SourceReceiverPair) describe() string {
	if p.SourceName != "" || p.ReceiverName != "" {
		return p.SourceName + " -> " + p.ReceiverName
	}
	return "source " + formatVec(p.Source) + " -> receiver " + formatVec(p.Receiver)
}
