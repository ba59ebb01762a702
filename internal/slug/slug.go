// Package slug turns free-form names such as git branches into short,
// tmux- and filesystem-safe identifier fragments.
package slug

import "strings"

// MaxLength is the longest slug Sanitize will return.
const MaxLength = 40

// Sanitize lowercases raw, maps every character outside [a-z0-9-] to '-',
// collapses runs of '-', trims leading and trailing '-' and truncates the
// result to MaxLength characters.
//
// Sanitize is total and idempotent. Degenerate input yields "", which callers
// must reject before using the result as an identifier.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	lastDash := true // suppresses leading dashes
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		// '/' and every other character become a single '-'.
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		// Truncation can expose a trailing dash again.
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}
