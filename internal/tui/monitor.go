package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltdeck/voltdeck/internal/poll"
	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

// monitorPollInterval is how often readings refresh for the watched device.
const monitorPollInterval = 30 * time.Second

// maxRecentReadings caps the reading rows shown below the sparkline.
const maxRecentReadings = 10

// monitorTickMsg fires on each poll interval. seq identifies the tick
// chain; re-entering the tab orphans any pending tick from the last visit.
type monitorTickMsg struct{ seq uint64 }

func monitorTickCmd(seq uint64) tea.Cmd {
	return tea.Tick(monitorPollInterval, func(time.Time) tea.Msg {
		return monitorTickMsg{seq: seq}
	})
}

// monitorDevicesMsg carries the device list for the selector.
type monitorDevicesMsg struct {
	devices []domain.Device
	err     error
}

// readingsMsg carries one device's reading series. seq stamps the fetch
// generation so a slow response for a previously selected device cannot
// overwrite the current one.
type readingsMsg struct {
	seq      uint64
	deviceID string
	readings []domain.Reading
	err      error
}

// monitorModel is the live readings tab: pick a device, watch its power
// draw refresh every half minute.
type monitorModel struct {
	client   *client.Client
	guard    *poll.Guard
	ticks    *poll.Guard
	devices  []domain.Device
	selected int
	readings []domain.Reading
	loading  bool
	errMsg   string
	width    int
	height   int
}

func newMonitorModel(c *client.Client) monitorModel {
	return monitorModel{client: c, guard: &poll.Guard{}, ticks: &poll.Guard{}}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.loadDevices(), monitorTickCmd(m.ticks.Begin()))
}

func (m monitorModel) loadDevices() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		devices, err := c.ListDevices(context.Background())
		return monitorDevicesMsg{devices: devices, err: err}
	}
}

func (m monitorModel) fetchReadings(seq uint64, deviceID string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		readings, err := c.DeviceReadings(context.Background(), deviceID)
		return readingsMsg{seq: seq, deviceID: deviceID, readings: readings, err: err}
	}
}

func (m monitorModel) selectedDevice() *domain.Device {
	if len(m.devices) == 0 || m.selected >= len(m.devices) {
		return nil
	}
	return &m.devices[m.selected]
}

func (m monitorModel) Update(msg tea.Msg) (monitorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case monitorDevicesMsg:
		if msg.err != nil {
			m.errMsg = client.ErrorMessage(msg.err, "failed to load devices")
			return m, nil
		}
		m.errMsg = ""
		m.devices = msg.devices
		if m.selected >= len(m.devices) {
			m.selected = 0
		}
		if d := m.selectedDevice(); d != nil {
			m.loading = true
			return m, m.fetchReadings(m.guard.Begin(), d.DeviceID)
		}
		return m, nil

	case monitorTickMsg:
		if !m.ticks.Current(msg.seq) {
			return m, nil
		}
		cmds := []tea.Cmd{monitorTickCmd(msg.seq)}
		if d := m.selectedDevice(); d != nil {
			cmds = append(cmds, m.fetchReadings(m.guard.Begin(), d.DeviceID))
		}
		return m, tea.Batch(cmds...)

	case readingsMsg:
		if !m.guard.Current(msg.seq) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = client.ErrorMessage(msg.err, "failed to load readings")
			return m, nil
		}
		m.errMsg = ""
		m.readings = msg.readings
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "h", "left":
			return m.selectDevice(m.selected - 1)
		case "l", "right":
			return m.selectDevice(m.selected + 1)
		case "r":
			if d := m.selectedDevice(); d != nil {
				return m, m.fetchReadings(m.guard.Begin(), d.DeviceID)
			}
		}
	}
	return m, nil
}

// selectDevice switches the watched device and starts a fresh fetch
// generation, so any in-flight response for the old device is dropped.
func (m monitorModel) selectDevice(idx int) (monitorModel, tea.Cmd) {
	if idx < 0 || idx >= len(m.devices) || idx == m.selected {
		return m, nil
	}
	m.selected = idx
	m.readings = nil
	m.loading = true
	return m, m.fetchReadings(m.guard.Begin(), m.devices[idx].DeviceID)
}

func (m monitorModel) helpKeys() string {
	return helpEntry("h/l", "device") + "  " + helpEntry("r", "refresh")
}

func (m monitorModel) View() string {
	var sb strings.Builder

	sb.WriteString("\n " + sectionHeaderStyle.Render("── MONITOR ──") + "\n")

	if m.errMsg != "" {
		sb.WriteString("   " + errorStyle.Render(m.errMsg) + "\n")
	}

	if len(m.devices) == 0 {
		sb.WriteString("   " + dimStyle.Render("no devices to monitor") + "\n")
		return sb.String()
	}

	// Device selector strip
	var strip []string
	for i, d := range m.devices {
		label := truncStr(d.Name, 16)
		if i == m.selected {
			strip = append(strip, accentStyle.Render("["+label+"]"))
		} else {
			strip = append(strip, dimStyle.Render(" "+label+" "))
		}
	}
	sb.WriteString("   " + strings.Join(strip, " ") + "\n")

	if d := m.selectedDevice(); d != nil && d.Location != "" {
		sb.WriteString("   " + metaStyle.Render(d.Location) + "\n")
	}

	if m.loading && len(m.readings) == 0 {
		sb.WriteString("\n   " + dimStyle.Render("loading readings...") + "\n")
		return sb.String()
	}
	if len(m.readings) == 0 {
		sb.WriteString("\n   " + dimStyle.Render("no readings yet") + "\n")
		return sb.String()
	}

	// Latest reading, big line
	latest := m.readings[len(m.readings)-1]
	fmt.Fprintf(&sb, "\n   %s   %s   %s   %s\n",
		powerStyle.Bold(true).Render(formatWatts(latest.Power)),
		voltageStyle.Render(fmt.Sprintf("%.1f V", latest.Voltage)),
		currentStyle.Render(fmt.Sprintf("%.2f A", latest.Current)),
		metaStyle.Render(formatTime(latest.Timestamp)))

	// Power sparkline across the series
	powers := make([]float64, len(m.readings))
	for i, r := range m.readings {
		powers[i] = r.Power
	}
	if len(powers) > m.width-6 && m.width > 6 {
		powers = powers[len(powers)-(m.width-6):]
	}
	sb.WriteString("   " + sparkStyle.Render(sparkline(powers)) + "\n")

	// Recent readings, newest first
	sb.WriteString("\n " + sectionHeaderStyle.Render("── RECENT ──") + "\n")
	shown := m.readings
	if len(shown) > maxRecentReadings {
		shown = shown[len(shown)-maxRecentReadings:]
	}
	for i := len(shown) - 1; i >= 0; i-- {
		r := shown[i]
		fmt.Fprintf(&sb, "   %s  %s  %s  %s\n",
			metaStyle.Render(r.Timestamp.Local().Format("15:04:05")),
			powerStyle.Render(fmt.Sprintf("%8s", formatWatts(r.Power))),
			voltageStyle.Render(fmt.Sprintf("%6.1f V", r.Voltage)),
			currentStyle.Render(fmt.Sprintf("%5.2f A", r.Current)))
	}

	return sb.String()
}
