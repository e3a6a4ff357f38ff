package domain

// Device is a monitored device as known to the Energy MS service. The client
// holds read-through copies only; the service is the source of truth.
type Device struct {
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Location string `json:"location"`
}
