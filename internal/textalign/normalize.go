// Package textalign turns raw reference and recognized text into comparable
// token sequences and classifies the differences between them word by word.
package textalign

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes raw text into a token sequence: lowercase, strip
// every character outside a-z and whitespace, collapse whitespace, split.
// Digits and punctuation vanish entirely, so a purely numeric "word"
// contributes no token. Empty or whitespace-only input yields an empty slice.
func Normalize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Fields(b.String())
}
