package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the VOLTDECK logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "V O L T D E C K" as a flowing wave of blue
// light. Deep navy (#15304a) -> electric blue (#38bdf8). No hue drift.
func renderShimmerLogo(frame int) string {
	const text = "VOLTDECK"
	n := len(text)

	var out string

	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		// Flowing phase advancing through the text
		phase := t*0.1 - x*3.0

		// Gentle speed modulation
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		// Continuous RGB interpolation: deep navy -> electric blue
		// Deep:   (21, 48, 74)    #15304a
		// Bright: (56, 189, 248)  #38bdf8
		r := clampByte(21 + b*(56-21))
		g := clampByte(48 + b*(189-48))
		bl := clampByte(74 + b*(248-74))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Accent / action styles
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38bdf8"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	// Measurement styles
	powerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	voltageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22d3ee"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#38bdf8")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	// Live device indicator
	activeDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	idleDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858"))

	unreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b")).
			Bold(true)

	sparkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38bdf8"))
)

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpItem is a selectable link in the help overlay.
type helpItem struct {
	label string
	desc  string
	url   string
}

var helpItems = []helpItem{
	{"Documentation", "voltdeck.io/docs", "https://voltdeck.io/docs"},
	{"Report an issue", "voltdeck.io/issues", "https://voltdeck.io/issues"},
	{"Website", "voltdeck.io", "https://voltdeck.io"},
}

// helpView renders the interactive help overlay with a cursor.
func helpView(cursor int) string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#38bdf8")).
		Bold(true).
		Render("V O L T D E C K")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("terminal client for your energy monitoring service")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	cursorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38bdf8"))
	linkDescStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)

	commands := []struct{ cmd, desc string }{
		{"voltdeck", "Open the dashboard (interactive TUI)"},
		{"voltdeck logout", "Clear your session"},
		{"voltdeck --version", "Show version"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  %s\n\n", title, tagline)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Links (enter to open)"))
	for i, item := range helpItems {
		label := cmdStyle.Render(fmt.Sprintf("%-20s", item.label))
		prefix := "    "
		if i == cursor {
			label = cursorStyle.Render(fmt.Sprintf("%-20s", item.label))
			prefix = "  > "
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, label, linkDescStyle.Render(item.desc))
	}
	return b.String()
}
