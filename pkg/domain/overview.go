package domain

// LastReading is the most recent measurement embedded in a device usage row.
type LastReading struct {
	Power float64 `json:"power"`
}

// DeviceUsage is one device's aggregate row in the total-usage overview.
type DeviceUsage struct {
	DeviceID       string      `json:"deviceId"`
	DeviceName     string      `json:"deviceName"`
	DeviceLocation string      `json:"deviceLocation"`
	LastReading    LastReading `json:"lastReading"`
	TotalPower     float64     `json:"totalPower"`
	ReadingCount   int         `json:"readingCount"`
}

// UsageOverview is the per-user usage rollup from the energy-data endpoint.
type UsageOverview struct {
	TotalDevices int           `json:"totalDevices"`
	Devices      []DeviceUsage `json:"devices"`
}

// ActiveDevices counts devices whose latest reading shows nonzero draw.
// A device with a stale last reading still counts; there is no staleness
// window.
func (o UsageOverview) ActiveDevices() int {
	n := 0
	for _, d := range o.Devices {
		if d.LastReading.Power > 0 {
			n++
		}
	}
	return n
}
