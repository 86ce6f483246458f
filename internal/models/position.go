package models

import (
	"time"
)

// Position is a normalized fix reported by a tracker.
// Speed is in knots, Course in degrees, Altitude in meters.
type Position struct {
	DeviceID     string    `json:"device_id"`
	Time         time.Time `json:"time"`
	Valid        bool      `json:"valid"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Speed        float64   `json:"speed"`
	Course       float64   `json:"course"`
	Altitude     float64   `json:"altitude"`
	ExtendedInfo string    `json:"extended_info"`
}

// NewPosition creates a position bound to a resolved device.
func NewPosition(deviceID string) *Position {
	return &Position{DeviceID: deviceID}
}
