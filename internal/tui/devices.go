package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

// devState is the state machine for device CRUD interactions.
type devState int

const (
	devNormal   devState = iota
	devAdding            // adding new device (name + location fields)
	devEditing           // editing selected device
	devDeleting          // delete confirmation
)

// -- messages --

type devicesLoadedMsg struct {
	devices []domain.Device
	err     error
}

type deviceSavedMsg struct{ err error }

type deviceDeletedMsg struct {
	id  string
	err error
}

type deviceCopyMsg struct{ err error }

// devicesModel is the device management tab. The server is the source of
// truth: every successful write is followed by a refetch rather than a
// local mutation.
type devicesModel struct {
	client    *client.Client
	devices   []domain.Device
	cursor    int
	state     devState
	name      string
	location  string
	focus     int // 0=name, 1=location
	statusMsg string
	errMsg    string
	width     int
	height    int
}

func newDevicesModel(c *client.Client) devicesModel {
	return devicesModel{client: c}
}

func (m devicesModel) Init() tea.Cmd {
	return m.load()
}

func (m devicesModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		devices, err := c.ListDevices(context.Background())
		return devicesLoadedMsg{devices: devices, err: err}
	}
}

func (m devicesModel) Update(msg tea.Msg) (devicesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesLoadedMsg:
		if msg.err != nil {
			m.errMsg = client.ErrorMessage(msg.err, "failed to load devices")
			return m, nil
		}
		m.errMsg = ""
		m.devices = msg.devices
		if m.cursor >= len(m.devices) {
			m.cursor = 0
		}
		return m, nil

	case deviceSavedMsg:
		if msg.err != nil {
			m.statusMsg = client.ErrorMessage(msg.err, "save failed")
			m.state = devNormal
			return m, nil
		}
		m.statusMsg = "saved"
		m.state = devNormal
		m.name = ""
		m.location = ""
		m.focus = 0
		return m, m.load()

	case deviceDeletedMsg:
		if msg.err != nil {
			m.statusMsg = client.ErrorMessage(msg.err, "delete failed")
			m.state = devNormal
			return m, nil
		}
		m.statusMsg = "device removed"
		m.state = devNormal
		return m, m.load()

	case deviceCopyMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.statusMsg = "copied!"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		return m.handleKey(msg)
	}
	return m, nil
}

func (m devicesModel) handleKey(msg tea.KeyMsg) (devicesModel, tea.Cmd) {
	switch m.state {
	case devAdding, devEditing:
		return m.handleKeyForm(msg)
	case devDeleting:
		return m.handleKeyDeleting(msg)
	}

	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "a":
		m.state = devAdding
		m.name = ""
		m.location = ""
		m.focus = 0

	case "e":
		if len(m.devices) > 0 && m.cursor < len(m.devices) {
			m.state = devEditing
			m.name = m.devices[m.cursor].Name
			m.location = m.devices[m.cursor].Location
			m.focus = 0
		}

	case "d":
		if len(m.devices) > 0 && m.cursor < len(m.devices) {
			m.state = devDeleting
		}

	case "c":
		if len(m.devices) > 0 && m.cursor < len(m.devices) {
			id := m.devices[m.cursor].DeviceID
			return m, func() tea.Msg {
				return deviceCopyMsg{err: clipboard.WriteAll(id)}
			}
		}

	case "r":
		return m, m.load()
	}
	return m, nil
}

func (m devicesModel) handleKeyForm(msg tea.KeyMsg) (devicesModel, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.focus = 1 - m.focus
	case "enter":
		name := strings.TrimSpace(m.name)
		location := strings.TrimSpace(m.location)
		if name == "" {
			m.statusMsg = "name required"
			return m, nil
		}
		c := m.client
		req := client.DeviceRequest{Name: name, Location: location}
		if m.state == devEditing && m.cursor < len(m.devices) {
			id := m.devices[m.cursor].DeviceID
			return m, func() tea.Msg {
				return deviceSavedMsg{err: c.UpdateDevice(context.Background(), id, req)}
			}
		}
		return m, func() tea.Msg {
			return deviceSavedMsg{err: c.CreateDevice(context.Background(), req)}
		}
	case "esc":
		m.state = devNormal
		m.name = ""
		m.location = ""
		m.focus = 0
	default:
		if m.focus == 0 {
			m.name = editRune(m.name, msg.String())
		} else {
			m.location = editRune(m.location, msg.String())
		}
	}
	return m, nil
}

func (m devicesModel) handleKeyDeleting(msg tea.KeyMsg) (devicesModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if len(m.devices) > 0 && m.cursor < len(m.devices) {
			id := m.devices[m.cursor].DeviceID
			c := m.client
			return m, func() tea.Msg {
				return deviceDeletedMsg{id: id, err: c.DeleteDevice(context.Background(), id)}
			}
		}
		m.state = devNormal
	case "n", "N", "esc":
		m.state = devNormal
	}
	return m, nil
}

// helpKeys returns context-sensitive help text based on the current state.
func (m devicesModel) helpKeys() string {
	switch m.state {
	case devAdding, devEditing:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "save") + "  " + helpEntry("esc", "cancel")
	case devDeleting:
		return helpEntry("y", "confirm") + "  " + helpEntry("n", "cancel")
	default:
		return helpEntry("j/k", "nav") + "  " + helpEntry("a", "add") + "  " + helpEntry("e", "edit") + "  " + helpEntry("d", "remove") + "  " + helpEntry("c", "copy id") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
	}
}

func (m devicesModel) View() string {
	var sb strings.Builder

	sb.WriteString("\n " + sectionHeaderStyle.Render(fmt.Sprintf("── DEVICES %d ──", len(m.devices))) + "\n")

	if m.errMsg != "" {
		sb.WriteString("   " + errorStyle.Render(m.errMsg) + "\n")
	}

	if m.state == devAdding || m.state == devEditing {
		sb.WriteString(m.renderForm())
		return sb.String()
	}

	if len(m.devices) == 0 {
		sb.WriteString("   " + dimStyle.Render("no devices yet · press a to add one") + "\n")
		return sb.String()
	}

	for i, d := range m.devices {
		isActive := i == m.cursor

		cursor := "  "
		if isActive {
			cursor = accentStyle.Render("▸") + " "
		}

		nameStr := normalStyle.Render(truncStr(d.Name, 24))
		if isActive {
			nameStr = selectedStyle.Render(truncStr(d.Name, 24))
		}

		// Delete confirmation on selected row
		if isActive && m.state == devDeleting {
			fmt.Fprintf(&sb, " %s%s  %s\n", cursor, nameStr, metaStyle.Render(d.Location))
			sb.WriteString("   " + errorStyle.Render("delete this device? ") +
				accentStyle.Render("y") + dimStyle.Render("/") + dimStyle.Render("n") + "\n")
			continue
		}

		fmt.Fprintf(&sb, " %s%s  %s  %s\n", cursor, nameStr,
			metaStyle.Render(truncStr(d.Location, 20)),
			dimStyle.Render(d.DeviceID))
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + okStyle.Render(m.statusMsg) + "\n")
	}
	return sb.String()
}

func (m devicesModel) renderForm() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(renderFormField("name", m.name, m.focus == 0, false) + "\n")
	sb.WriteString(renderFormField("location", m.location, m.focus == 1, false) + "\n")
	if m.statusMsg != "" {
		sb.WriteString("   " + errorStyle.Render(m.statusMsg) + "\n")
	}
	sb.WriteString("   " + dimStyle.Render("tab next · enter save · esc cancel") + "\n")
	return sb.String()
}
