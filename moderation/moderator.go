// Package moderation masks censored words in message content before it is
// persisted or fanned out. Matching runs on a normalized view of the text
// (lowercased, leet speak folded, punctuation ignored) while masking is
// applied to the original runes so spacing is preserved.
package moderation

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

//go:embed censored.txt
var censoredList []byte

type Moderator struct {
	matcher *goahocorasick.Machine
	mask    rune
}

// textMapping links positions in the normalized text back to the original runes.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the embedded censored
// word list. Extra words can be appended on top of the embedded ones.
func NewModerator(mask rune, extraWords ...string) (*Moderator, error) {
	words := append(loadEmbeddedWords(), extraWords...)

	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if norm := normalizeRunes([]rune(w)); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, mask: mask}, nil
}

// Censor replaces every censored span with the mask rune.
func (m *Moderator) Censor(original string) string {
	mapping := m.normalize(original)
	if len(mapping.normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1

		// A span only counts on word boundaries in the original text, so a
		// list entry never fires inside a larger word ("hell" in "hello").
		if origStart > 0 && !isNoise(origRunes[origStart-1]) {
			continue
		}
		if origEnd < len(origRunes) && !isNoise(origRunes[origEnd]) {
			continue
		}

		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.mask
		}
	}

	return string(origRunes)
}

func (m *Moderator) normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

func loadEmbeddedWords() []string {
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(censoredList))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune folds common leet speak characters back to their alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
