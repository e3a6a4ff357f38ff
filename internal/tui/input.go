package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 200

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderFormField renders a labeled form line with a cursor when focused.
// Secret fields show bullets instead of the typed value.
func renderFormField(label, value string, focused, secret bool) string {
	shown := value
	if secret {
		shown = strings.Repeat("•", utf8.RuneCountInString(value))
	}
	labelPart := inputPromptStyle.Render(label + ":")
	if focused {
		return "   " + accentStyle.Render(">") + " " + labelPart + " " + shown + accentStyle.Render("_")
	}
	return "     " + labelPart + " " + dimStyle.Render(shown)
}
