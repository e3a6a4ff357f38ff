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

// dashboardPollInterval is how often the dashboard refreshes its data.
const dashboardPollInterval = 60 * time.Second

// maxDashboardNotifications caps the notification list on the dashboard.
const maxDashboardNotifications = 5

// dashTickMsg fires on each poll interval. seq identifies the tick chain;
// re-entering the tab starts a new chain and orphans any pending tick, so a
// quick tab roundtrip cannot leave two chains polling.
type dashTickMsg struct{ seq uint64 }

func dashTickCmd(seq uint64) tea.Cmd {
	return tea.Tick(dashboardPollInterval, func(time.Time) tea.Msg {
		return dashTickMsg{seq: seq}
	})
}

// dashDataMsg carries one refresh cycle's worth of dashboard data.
type dashDataMsg struct {
	seq           uint64
	overview      *domain.UsageOverview
	summary       *domain.UsageSummary
	notifications []domain.Notification
	err           error
}

// dashMarkedMsg carries the result of marking notifications read.
type dashMarkedMsg struct{ err error }

// dashboardModel is the overview tab: device totals, usage vs limits, and
// recent limit-breach notifications. It refetches everything each minute
// while visible.
type dashboardModel struct {
	client        *client.Client
	guard         *poll.Guard
	ticks         *poll.Guard
	overview      *domain.UsageOverview
	summary       *domain.UsageSummary
	notifications []domain.Notification
	loading       bool
	errMsg        string
	statusMsg     string
	width         int
	height        int
}

func newDashboardModel(c *client.Client) dashboardModel {
	return dashboardModel{client: c, guard: &poll.Guard{}, ticks: &poll.Guard{}, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.guard.Begin()), dashTickCmd(m.ticks.Begin()))
}

func (m dashboardModel) fetch(seq uint64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx := context.Background()
		overview, err := c.TotalUsage(ctx)
		if err != nil {
			return dashDataMsg{seq: seq, err: err}
		}
		summary, err := c.UsageAndLimits(ctx)
		if err != nil {
			return dashDataMsg{seq: seq, err: err}
		}
		notifications, err := c.Notifications(ctx)
		if err != nil {
			return dashDataMsg{seq: seq, err: err}
		}
		return dashDataMsg{seq: seq, overview: overview, summary: summary, notifications: notifications}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashTickMsg:
		if !m.ticks.Current(msg.seq) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(m.guard.Begin()), dashTickCmd(msg.seq))

	case dashDataMsg:
		if !m.guard.Current(msg.seq) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = client.ErrorMessage(msg.err, "failed to load dashboard")
			return m, nil
		}
		m.errMsg = ""
		m.overview = msg.overview
		m.summary = msg.summary
		m.notifications = msg.notifications
		return m, nil

	case dashMarkedMsg:
		if msg.err != nil {
			m.statusMsg = "mark read failed"
			return m, nil
		}
		m.statusMsg = "notifications marked read"
		return m, m.fetch(m.guard.Begin())

	case tea.KeyMsg:
		m.statusMsg = ""
		switch msg.String() {
		case "r":
			return m, m.fetch(m.guard.Begin())
		case "m":
			if m.unreadCount() == 0 {
				return m, nil
			}
			c := m.client
			return m, func() tea.Msg {
				return dashMarkedMsg{err: c.MarkNotificationsRead(context.Background())}
			}
		}
	}
	return m, nil
}

// unreadCount reports unread notifications for the tab badge.
func (m dashboardModel) unreadCount() int {
	n := 0
	for _, notif := range m.notifications {
		if !notif.Read {
			n++
		}
	}
	return n
}

func (m dashboardModel) helpKeys() string {
	return helpEntry("r", "refresh") + "  " + helpEntry("m", "mark read")
}

func (m dashboardModel) View() string {
	var sb strings.Builder

	if m.loading && m.overview == nil {
		sb.WriteString("\n " + dimStyle.Render("loading...") + "\n")
		return sb.String()
	}
	if m.errMsg != "" {
		sb.WriteString("\n " + errorStyle.Render(m.errMsg) + "\n")
	}

	if m.overview != nil {
		sb.WriteString("\n " + sectionHeaderStyle.Render("── OVERVIEW ──") + "\n")
		active := m.overview.ActiveDevices()
		fmt.Fprintf(&sb, "   %s %s   %s %s\n",
			metaStyle.Render("devices"), selectedStyle.Render(fmt.Sprintf("%d", m.overview.TotalDevices)),
			metaStyle.Render("active"), okStyle.Render(fmt.Sprintf("%d", active)))

		for _, d := range m.overview.Devices {
			dot := idleDotStyle.Render("●")
			if d.LastReading.Power > 0 {
				dot = activeDotStyle.Render("●")
			}
			fmt.Fprintf(&sb, "   %s %s  %s  %s total  %s · %s readings\n",
				dot,
				normalStyle.Render(truncStr(d.DeviceName, 20)),
				powerStyle.Render(formatWatts(d.LastReading.Power)),
				dimStyle.Render(formatWatts(d.TotalPower)),
				metaStyle.Render(truncStr(d.DeviceLocation, 16)),
				metaStyle.Render(formatCount(d.ReadingCount)))
		}
	}

	if m.summary != nil {
		sb.WriteString("\n " + sectionHeaderStyle.Render("── USAGE ──") + "\n")
		sb.WriteString("   " + renderUsageLine("today", m.summary.DailyUsage, limitOf(m.summary.Limits, true)) + "\n")
		sb.WriteString("   " + renderUsageLine("month", m.summary.MonthlyUsage, limitOf(m.summary.Limits, false)) + "\n")
		if m.summary.OverLimit() {
			sb.WriteString("   " + warnStyle.Render("⚠ usage over configured limit") + "\n")
		}
	}

	sb.WriteString("\n " + sectionHeaderStyle.Render("── NOTIFICATIONS ──") + "\n")
	if len(m.notifications) == 0 {
		sb.WriteString("   " + dimStyle.Render("no notifications") + "\n")
	}
	shown := m.notifications
	if len(shown) > maxDashboardNotifications {
		shown = shown[:maxDashboardNotifications]
	}
	for _, n := range shown {
		marker := "  "
		if !n.Read {
			marker = unreadStyle.Render("● ")
		}
		fmt.Fprintf(&sb, "   %s%s  %s\n",
			marker,
			normalStyle.Render(truncStr(n.Message, 56)),
			metaStyle.Render(formatTime(n.Timestamp)))
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + okStyle.Render(m.statusMsg) + "\n")
	}
	return sb.String()
}

// limitOf pulls one limit out of an optional Limits, zero when unset.
func limitOf(l *domain.Limits, daily bool) float64 {
	if l == nil {
		return 0
	}
	if daily {
		return l.Daily
	}
	return l.Monthly
}

// renderUsageLine renders "label usage / limit" with the usage colored by
// how close it is to the limit. No limit set renders usage alone.
func renderUsageLine(label string, usage, limit float64) string {
	usageStr := formatWatts(usage)
	if limit <= 0 {
		return metaStyle.Render(label) + " " + powerStyle.Render(usageStr) + " " + dimStyle.Render("(no limit)")
	}
	style := okStyle
	switch {
	case usage > limit:
		style = errorStyle
	case usage > limit*0.8:
		style = warnStyle
	}
	return metaStyle.Render(label) + " " + style.Render(usageStr) + dimStyle.Render(" / "+formatWatts(limit))
}
