// Package text normalizes input text before it reaches the synthesis engine.
// The engine handles phonemization itself; the job here is to smooth out the
// typographic noise that pasted text carries, so spoken output does not
// stumble over dashes, smart punctuation, or spelled-out abbreviations.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

const whitespaceRegexPattern = `\s+`

// Typographic characters rewritten before synthesis.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
)

// Normalizer rewrites raw input into engine-friendly text. Patterns and
// replacers are compiled once at construction.
type Normalizer struct {
	whitespacePattern    *regexp.Regexp
	abbreviationReplacer *strings.Replacer
	punctuationReplacer  *strings.Replacer
}

// NewNormalizer creates a normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	abbreviations := []string{
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"etc.", "et cetera",
		"vs.", "versus",
	}

	punctuation := []string{
		emDash, ", ",
		enDash, "-",
		figureDash, "-",
		ellipsisChar, "...",
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	}

	return &Normalizer{
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviationReplacer: strings.NewReplacer(abbreviations...),
		punctuationReplacer:  strings.NewReplacer(punctuation...),
	}
}

// Normalize runs the full cleanup pipeline: abbreviation expansion,
// punctuation substitution, control-character removal, and whitespace
// collapse. Empty input passes through unchanged.
func (n *Normalizer) Normalize(input string) string {
	if input == "" {
		return input
	}

	normalized := n.abbreviationReplacer.Replace(input)
	normalized = n.punctuationReplacer.Replace(normalized)
	normalized = stripControlRunes(normalized)
	normalized = n.whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// stripControlRunes drops control characters, keeping standard whitespace so
// the collapse step can fold it.
func stripControlRunes(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}

		return r
	}, input)
}
