package util

import "strings"

// StripEmphasis removes markdown bold/italic markers from generated text.
// The consuming UI renders plain text, so **title**, *title*, __title__ and
// _title_ all collapse to the bare content.
func StripEmphasis(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '*' || ch == '_' {
			continue
		}
		out = append(out, ch)
	}
	return strings.TrimSpace(string(out))
}

// Snippet trims whitespace and caps a string at maxRunes, appending an
// ellipsis when truncated.
func Snippet(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if maxRunes <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(r[:maxRunes])) + "..."
}
