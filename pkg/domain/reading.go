package domain

import "time"

// Reading is a single energy measurement for a device. The service returns
// readings ordered by timestamp ascending.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Power     float64   `json:"power"`   // watts
	Voltage   float64   `json:"voltage"` // volts
	Current   float64   `json:"current"` // amps
}
