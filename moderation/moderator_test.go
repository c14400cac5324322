package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The extra words are specific enough to avoid partial collisions
// (e.g. "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(replacementChar, "badger", "snake", "mushroom")
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name: "Leet speak and internal punctuation",
			// B (index 9) . 4 . d . g . € r (index 20) -> 10 characters
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
		},
		{
			name:     "Nothing to censor",
			input:    "Chat-Relay is amazing",
			expected: "Chat-Relay is amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input), "test=%s,", tt.name)
		})
	}
}

func TestModerator_Leaves_Larger_Words_Alone(t *testing.T) {
	req := require.New(t)

	// Given only the embedded list, which holds short words like "hell"
	mod, err := NewModerator(replacementChar)
	req.NoError(err)

	// Then list entries never fire inside a larger word
	req.Equal("hello bob", mod.Censor("hello bob"))
	req.Equal("that movie was crappy", mod.Censor("that movie was crappy"))
	req.Equal("a hellish commute", mod.Censor("a hellish commute"))

	// And standalone occurrences are still masked
	req.Equal("what the ****", mod.Censor("what the hell"))
	req.Equal("****!", mod.Censor("hell!"))
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)

	// Given pure noise patterns alongside a real word
	mod, err := NewModerator(replacementChar, "...", ",,,", "", "badger")
	req.NoError(err)

	// Then the sentence is censored
	req.Equal("The ****** is safe", mod.Censor("The badger is safe"))

	// And real noise stays uncensored
	req.Equal("Fine ...", mod.Censor("Fine ..."))
}
