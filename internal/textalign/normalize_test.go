package textalign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "lowercase and punctuation stripped",
			input:    "The quick, brown fox!",
			expected: []string{"the", "quick", "brown", "fox"},
		},
		{
			name:     "digits vanish",
			input:    "chapter 12 begins",
			expected: []string{"chapter", "begins"},
		},
		{
			name:     "digits inside a word vanish",
			input:    "a1b2c",
			expected: []string{"abc"},
		},
		{
			name:     "purely numeric input yields nothing",
			input:    "123 456",
			expected: []string{},
		},
		{
			name:     "whitespace runs collapse",
			input:    "  she \t walked\n\nslowly  ",
			expected: []string{"she", "walked", "slowly"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
		{
			name:     "whitespace only",
			input:    " \t\n ",
			expected: []string{},
		},
		{
			name:     "unicode whitespace separates tokens",
			input:    "foo\u00a0bar\u2003baz",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "apostrophes and hyphens removed",
			input:    "don't over-think it",
			expected: []string{"dont", "overthink", "it"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
