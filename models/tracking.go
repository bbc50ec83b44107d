package models

import "time"

// PositionSample is one reading from a trip's location source. Samples are
// ephemeral: a room keeps only the most recent one.
type PositionSample struct {
	BookingID  string    `json:"bookingId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Heading    float64   `json:"heading"` // degrees, 0-359
	Speed      float64   `json:"speed"`   // meters per second
	CapturedAt time.Time `json:"timestamp"`
}

// Telemetry channel message kinds.
const (
	MsgJoinTracking    = "join_tracking"
	MsgSendLocation    = "send_location"
	MsgReceiveLocation = "receive_location"
)

// TrackingMessage is the envelope for every frame on the telemetry channel.
type TrackingMessage struct {
	Event     string  `json:"event"`
	BookingID string  `json:"bookingId,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// LocationUpdate is the fan-out payload delivered to room subscribers.
type LocationUpdate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
