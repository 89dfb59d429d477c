package features

import (
	"strings"
	"unicode"
)

// fold lowercases text, strips punctuation and collapses whitespace runs to
// a single space.
func fold(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPunct(r):
			// dropped; don't reset prevSpace
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}
