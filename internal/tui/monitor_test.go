package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/voltdeck/voltdeck/pkg/domain"
)

func loadedMonitorModel() monitorModel {
	m := newMonitorModel(nil)
	m.devices = []domain.Device{
		{DeviceID: "d1", Name: "Fridge", Location: "Kitchen"},
		{DeviceID: "d2", Name: "Heater", Location: "Garage"},
	}
	return m
}

func TestMonitorStaleReadingsDiscarded(t *testing.T) {
	m := loadedMonitorModel()
	oldSeq := m.guard.Begin()

	// Switching devices starts a new generation.
	m, _ = m.Update(keyMsg("l"))
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}

	// The old device's response arrives late and must not land.
	m, _ = m.Update(readingsMsg{seq: oldSeq, deviceID: "d1", readings: []domain.Reading{{Power: 100}}})
	if len(m.readings) != 0 {
		t.Error("stale readings overwrote current state")
	}
}

func TestMonitorCurrentReadingsLand(t *testing.T) {
	m := loadedMonitorModel()
	seq := m.guard.Begin()
	m, _ = m.Update(readingsMsg{seq: seq, deviceID: "d1", readings: []domain.Reading{
		{Timestamp: time.Now(), Power: 120, Voltage: 230, Current: 0.52},
	}})
	if len(m.readings) != 1 {
		t.Fatal("readings not stored")
	}
	out := m.View()
	if !strings.Contains(out, "120.0 W") {
		t.Errorf("latest power missing from view: %q", out)
	}
}

func TestMonitorSelectBounds(t *testing.T) {
	m := loadedMonitorModel()
	m, cmd := m.Update(keyMsg("h"))
	if m.selected != 0 || cmd != nil {
		t.Error("h below first device should be a no-op")
	}
	m, _ = m.Update(keyMsg("l"))
	m, cmd = m.Update(keyMsg("l"))
	if m.selected != 1 || cmd != nil {
		t.Error("l past last device should be a no-op")
	}
}

func TestMonitorSwitchClearsReadings(t *testing.T) {
	m := loadedMonitorModel()
	seq := m.guard.Begin()
	m, _ = m.Update(readingsMsg{seq: seq, deviceID: "d1", readings: []domain.Reading{{Power: 50}}})

	m, cmd := m.Update(keyMsg("l"))
	if len(m.readings) != 0 {
		t.Error("old device's readings still shown after switch")
	}
	if cmd == nil {
		t.Error("no fetch issued for the new device")
	}
}

func TestMonitorNoDevices(t *testing.T) {
	m := newMonitorModel(nil)
	if !strings.Contains(m.View(), "no devices to monitor") {
		t.Error("empty state not rendered")
	}
}

func TestMonitorOrphanedTickChainStops(t *testing.T) {
	m := loadedMonitorModel()
	oldChain := m.ticks.Begin()
	m.ticks.Begin()

	_, cmd := m.Update(monitorTickMsg{seq: oldChain})
	if cmd != nil {
		t.Error("orphaned tick chain re-armed")
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline(nil); got != "" {
		t.Errorf("sparkline(nil) = %q", got)
	}
	got := sparkline([]float64{0, 50, 100})
	want := "▁▄█"
	if got != want {
		t.Errorf("sparkline = %q, want %q", got, want)
	}
	// Flat zero series stays on the lowest bar
	if got := sparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("sparkline zeros = %q", got)
	}
}
