package tui

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// formatTime renders a relative timestamp for notification and reading rows.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// formatWatts renders a power value, switching to kW above 1000 W.
func formatWatts(w float64) string {
	if w >= 1000 {
		return fmt.Sprintf("%.2f kW", w/1000)
	}
	return fmt.Sprintf("%.1f W", w)
}

// formatCount renders a reading count in compact form (1.2k, 3.4M).
func formatCount(n int) string {
	return humanize.SIWithDigits(float64(n), 1, "")
}

// sparkBars are the block characters for the power sparkline, low to high.
var sparkBars = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a row of block characters scaled to the
// maximum value in the slice. A flat zero series renders the lowest bar.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if max > 0 {
			idx = int(v / max * float64(len(sparkBars)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBars) {
			idx = len(sparkBars) - 1
		}
		out[i] = sparkBars[idx]
	}
	return string(out)
}
