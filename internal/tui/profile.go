package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltdeck/voltdeck/internal/poll"
	"github.com/voltdeck/voltdeck/internal/session"
	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

// profilePollInterval is how often usage and limits refresh on the profile.
const profilePollInterval = 60 * time.Second

// profState is the state machine for the profile tab's two forms.
type profState int

const (
	profNormal   profState = iota
	profLimits             // editing daily/monthly limits
	profPassword           // changing password
)

// -- messages --

// profTickMsg fires on each poll interval. seq identifies the tick chain;
// re-entering the tab orphans any pending tick from the last visit.
type profTickMsg struct{ seq uint64 }

func profTickCmd(seq uint64) tea.Cmd {
	return tea.Tick(profilePollInterval, func(time.Time) tea.Msg {
		return profTickMsg{seq: seq}
	})
}

type profUsageMsg struct {
	seq     uint64
	summary *domain.UsageSummary
	err     error
}

type limitsSavedMsg struct{ err error }

type passwordChangedMsg struct {
	resp *client.ChangePasswordResponse
	err  error
}

// profileModel is the account tab: identity, usage limits, password change,
// and logout.
type profileModel struct {
	client  *client.Client
	store   *session.Store
	guard   *poll.Guard
	ticks   *poll.Guard
	summary *domain.UsageSummary
	state   profState

	// limits form
	daily   string
	monthly string

	// password form
	current string
	newPass string
	confirm string

	focus      int
	submitting bool
	statusMsg  string
	statusOK   bool
	errMsg     string
	width      int
	height     int
}

func newProfileModel(c *client.Client, store *session.Store) profileModel {
	return profileModel{client: c, store: store, guard: &poll.Guard{}, ticks: &poll.Guard{}}
}

func (m profileModel) Init() tea.Cmd {
	return tea.Batch(m.fetchUsage(m.guard.Begin()), profTickCmd(m.ticks.Begin()))
}

func (m profileModel) fetchUsage(seq uint64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		summary, err := c.UsageAndLimits(context.Background())
		return profUsageMsg{seq: seq, summary: summary, err: err}
	}
}

// editing reports whether a form currently owns the keyboard.
func (m profileModel) editing() bool {
	return m.state != profNormal
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case profTickMsg:
		if !m.ticks.Current(msg.seq) {
			return m, nil
		}
		return m, tea.Batch(m.fetchUsage(m.guard.Begin()), profTickCmd(msg.seq))

	case profUsageMsg:
		if !m.guard.Current(msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			// Keep the last good summary visible under the banner.
			m.errMsg = client.ErrorMessage(msg.err, "failed to load usage")
			return m, nil
		}
		m.errMsg = ""
		m.summary = msg.summary
		return m, nil

	case limitsSavedMsg:
		m.submitting = false
		if msg.err != nil {
			m.statusMsg = client.ErrorMessage(msg.err, "failed to save limits")
			m.statusOK = false
			return m, nil
		}
		m.statusMsg = "limits saved"
		m.statusOK = true
		m.state = profNormal
		return m, m.fetchUsage(m.guard.Begin())

	case passwordChangedMsg:
		m.submitting = false
		m.current = ""
		m.newPass = ""
		m.confirm = ""
		if msg.err != nil || msg.resp == nil || !msg.resp.Success {
			m.statusMsg = "Current password is incorrect or server error occurred"
			if msg.err == nil && msg.resp != nil && msg.resp.Error != "" {
				m.statusMsg = msg.resp.Error
			}
			m.statusOK = false
			return m, nil
		}
		m.statusMsg = "Password updated successfully"
		m.statusOK = true
		m.state = profNormal
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch m.state {
		case profLimits:
			return m.handleKeyLimits(msg)
		case profPassword:
			return m.handleKeyPassword(msg)
		}
		m.statusMsg = ""
		switch msg.String() {
		case "l":
			m.state = profLimits
			m.focus = 0
			m.daily = limitFieldValue(m.summary, true)
			m.monthly = limitFieldValue(m.summary, false)
		case "p":
			m.state = profPassword
			m.focus = 0
			m.current = ""
			m.newPass = ""
			m.confirm = ""
		case "r":
			return m, m.fetchUsage(m.guard.Begin())
		case "ctrl+l":
			m.store.Logout()
		}
	}
	return m, nil
}

func (m profileModel) handleKeyLimits(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = 1 - m.focus
	case "esc":
		m.state = profNormal
	case "enter":
		daily, err1 := strconv.ParseFloat(strings.TrimSpace(m.daily), 64)
		monthly, err2 := strconv.ParseFloat(strings.TrimSpace(m.monthly), 64)
		if err1 != nil || err2 != nil || daily < 0 || monthly < 0 {
			m.statusMsg = "limits must be non-negative numbers"
			m.statusOK = false
			return m, nil
		}
		m.submitting = true
		m.statusMsg = ""
		c := m.client
		return m, func() tea.Msg {
			return limitsSavedMsg{err: c.SetLimits(context.Background(), client.LimitsRequest{Daily: daily, Monthly: monthly})}
		}
	default:
		if m.focus == 0 {
			m.daily = editRune(m.daily, msg.String())
		} else {
			m.monthly = editRune(m.monthly, msg.String())
		}
	}
	return m, nil
}

func (m profileModel) handleKeyPassword(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % 3
	case "shift+tab", "up":
		m.focus = (m.focus + 2) % 3
	case "esc":
		m.state = profNormal
		m.current = ""
		m.newPass = ""
		m.confirm = ""
	case "enter":
		if m.current == "" || m.newPass == "" {
			m.statusMsg = "all fields required"
			m.statusOK = false
			return m, nil
		}
		// Mismatch never reaches the server.
		if m.newPass != m.confirm {
			m.statusMsg = "New passwords do not match"
			m.statusOK = false
			return m, nil
		}
		m.submitting = true
		m.statusMsg = ""
		c := m.client
		current, newPass := m.current, m.newPass
		return m, func() tea.Msg {
			resp, err := c.ChangePassword(context.Background(), current, newPass)
			return passwordChangedMsg{resp: resp, err: err}
		}
	default:
		switch m.focus {
		case 0:
			m.current = editRune(m.current, msg.String())
		case 1:
			m.newPass = editRune(m.newPass, msg.String())
		case 2:
			m.confirm = editRune(m.confirm, msg.String())
		}
	}
	return m, nil
}

func (m profileModel) helpKeys() string {
	switch m.state {
	case profLimits, profPassword:
		return helpEntry("tab", "next") + "  " + helpEntry("enter", "save") + "  " + helpEntry("esc", "cancel")
	default:
		return helpEntry("l", "limits") + "  " + helpEntry("p", "password") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("ctrl+l", "logout") + "  " + helpEntry("?", "help") + "  " + helpEntry("q", "quit")
	}
}

func (m profileModel) View() string {
	var sb strings.Builder

	sb.WriteString("\n " + sectionHeaderStyle.Render("── PROFILE ──") + "\n")
	if sess := m.store.Current(); sess != nil {
		sb.WriteString("   " + selectedStyle.Render(sess.User.Username) + "\n")
		sb.WriteString("   " + metaStyle.Render(sess.User.Email) + "\n")
	}

	sb.WriteString("\n " + sectionHeaderStyle.Render("── LIMITS ──") + "\n")
	if m.errMsg != "" {
		sb.WriteString("   " + errorStyle.Render(m.errMsg) + "\n")
	}
	if m.state == profLimits {
		sb.WriteString(renderFormField("daily (W)", m.daily, m.focus == 0, false) + "\n")
		sb.WriteString(renderFormField("monthly (W)", m.monthly, m.focus == 1, false) + "\n")
	} else if m.summary != nil {
		sb.WriteString("   " + renderUsageLine("today", m.summary.DailyUsage, limitOf(m.summary.Limits, true)) + "\n")
		sb.WriteString("   " + renderUsageLine("month", m.summary.MonthlyUsage, limitOf(m.summary.Limits, false)) + "\n")
		if m.summary.Limits == nil {
			sb.WriteString("   " + dimStyle.Render("no limits configured · press l to set them") + "\n")
		}
	} else if m.errMsg == "" {
		sb.WriteString("   " + dimStyle.Render("loading...") + "\n")
	}

	if m.state == profPassword {
		sb.WriteString("\n " + sectionHeaderStyle.Render("── CHANGE PASSWORD ──") + "\n")
		sb.WriteString(renderFormField("current", m.current, m.focus == 0, true) + "\n")
		sb.WriteString(renderFormField("new", m.newPass, m.focus == 1, true) + "\n")
		sb.WriteString(renderFormField("confirm", m.confirm, m.focus == 2, true) + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString(" " + dimStyle.Render("saving...") + "\n")
	case m.statusMsg != "" && m.statusOK:
		sb.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	case m.statusMsg != "":
		sb.WriteString(" " + errorStyle.Render(m.statusMsg) + "\n")
	}

	return sb.String()
}

// limitFieldValue pre-fills a limits form field from the current summary.
func limitFieldValue(s *domain.UsageSummary, daily bool) string {
	if s == nil || s.Limits == nil {
		return ""
	}
	if daily {
		return fmt.Sprintf("%g", s.Limits.Daily)
	}
	return fmt.Sprintf("%g", s.Limits.Monthly)
}
