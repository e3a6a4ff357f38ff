package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voltdeck/voltdeck/internal/browser"
	"github.com/voltdeck/voltdeck/internal/session"
	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewDashboard
	viewDevices
	viewMonitor
	viewProfile
)

// SessionMsg announces a session change. The session store's subscriber
// sends it into the program; nil means logged out.
type SessionMsg struct {
	Session *domain.Session
}

// App is the root Bubbletea model. It owns routing: without a session only
// the login view receives messages, and a session change reroutes
// immediately.
type App struct {
	client     *client.Client
	store      *session.Store
	login      loginModel
	dashboard  dashboardModel
	devices    devicesModel
	monitor    monitorModel
	profile    profileModel
	view       view
	helpOpen   bool
	helpCursor int
	width      int
	height     int
	frame      int // logo shimmer animation frame
}

// NewApp creates the TUI application. The initial view follows the store:
// dashboard when a session was restored, login otherwise.
func NewApp(c *client.Client, store *session.Store) App {
	a := App{
		client:    c,
		store:     store,
		login:     newLoginModel(store),
		dashboard: newDashboardModel(c),
		devices:   newDevicesModel(c),
		monitor:   newMonitorModel(c),
		profile:   newProfileModel(c, store),
	}
	if store.Active() {
		a.view = viewDashboard
	}
	return a
}

func (a App) Init() tea.Cmd {
	if a.view == viewDashboard {
		return tea.Batch(a.dashboard.Init(), shimmerTickCmd())
	}
	return shimmerTickCmd()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.login, _ = a.login.Update(bodyMsg)
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		a.devices, _ = a.devices.Update(bodyMsg)
		a.monitor, _ = a.monitor.Update(bodyMsg)
		a.profile, _ = a.profile.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case SessionMsg:
		if msg.Session == nil {
			a.view = viewLogin
			a.login = newLoginModel(a.store)
			return a, nil
		}
		if a.view == viewLogin {
			a.view = viewDashboard
			a.dashboard = newDashboardModel(a.client)
			return a, a.dashboard.Init()
		}
		return a, nil

	case tea.KeyMsg:
		// Help overlay captures all keys when open
		if a.helpOpen {
			switch msg.String() {
			case "?", "esc":
				a.helpOpen = false
			case "q", "ctrl+c":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(helpItems)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				item := helpItems[a.helpCursor]
				if item.url != "" {
					browser.Open(item.url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Logged out: only the login view sees keys
		if a.view == viewLogin {
			var cmd tea.Cmd
			a.login, cmd = a.login.Update(msg)
			return a, cmd
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "?":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "q":
				return a, tea.Quit
			case "1":
				if a.view != viewDashboard {
					a.view = viewDashboard
					return a, a.dashboard.Init()
				}
				return a, nil
			case "2":
				if a.view != viewDevices {
					a.view = viewDevices
					return a, a.devices.Init()
				}
				return a, nil
			case "3":
				if a.view != viewMonitor {
					a.view = viewMonitor
					return a, a.monitor.Init()
				}
				return a, nil
			case "4":
				if a.view != viewProfile {
					a.view = viewProfile
					return a, a.profile.Init()
				}
				return a, nil
			}
		}
	}

	// Route everything else to the active view only. Ticks and fetch
	// results for an inactive view are dropped here, which is what stops
	// its polling; re-entering the view re-arms it via Init.
	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewDevices:
		a.devices, cmd = a.devices.Update(msg)
	case viewMonitor:
		a.monitor, cmd = a.monitor.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin:
		return true
	case viewDevices:
		return a.devices.state != devNormal
	case viewProfile:
		return a.profile.editing()
	}
	return false
}

func (a App) View() string {
	// Header: centered shimmer logo
	logo := renderShimmerLogo(a.frame)

	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	// Identity line below logo
	identityLine := ""
	if sess := a.store.Current(); sess != nil {
		identityLine = metaStyle.Render(sess.User.Username + " · " + sess.User.Email)
	}
	if identityLine != "" {
		idWidth := lipgloss.Width(identityLine)
		idPad := (a.width - idWidth) / 2
		if idPad < 0 {
			idPad = 0
		}
		header += "\n" + strings.Repeat(" ", idPad) + identityLine
	} else {
		header += "\n"
	}

	var tabBar, body, help string
	if a.view == viewLogin {
		body = a.login.View()
		help = " " + a.login.helpKeys()
	} else {
		tabBar = a.renderTabs()
		switch a.view {
		case viewDashboard:
			body = a.dashboard.View()
			help = " " + helpEntry("1-4", "tabs") + "  " + a.dashboard.helpKeys() + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		case viewDevices:
			body = a.devices.View()
			help = " " + helpEntry("1-4", "tabs") + "  " + a.devices.helpKeys()
		case viewMonitor:
			body = a.monitor.View()
			help = " " + helpEntry("1-4", "tabs") + "  " + a.monitor.helpKeys() + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
		case viewProfile:
			body = a.profile.View()
			help = " " + helpEntry("1-4", "tabs") + "  " + a.profile.helpKeys()
		}
	}

	if a.helpOpen {
		body = helpView(a.helpCursor)
		help = " " + helpEntry("j/k", "nav") + "  " + helpEntry("enter", "open") + "  " + helpEntry("esc", "close")
	}

	// Chrome budget: header(2) + tabs(1) + help(1) = 4 lines + body
	body = strings.TrimRight(truncateToHeight(body, a.height-4), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar, body, help)
}

func (a App) renderTabs() string {
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Dashboard", viewDashboard},
		{"2", "Devices", viewDevices},
		{"3", "Monitor", viewMonitor},
		{"4", "Profile", viewProfile},
	}

	// 4 equal-width columns spread across the terminal
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		// Dashboard tab: unread notification badge
		if t.v == viewDashboard {
			if n := a.dashboard.unreadCount(); n > 0 {
				label += " " + unreadStyle.Render(fmt.Sprintf("●%d", n))
			}
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	return tabBar.String()
}
