// Package textproc holds the text clean-up helpers applied before segmentation.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// dropped are control and private-use glyphs that PDF extraction leaves behind.
var dropped = map[rune]bool{
	'\r':     true,
	'\x1b':   true,
	'\x07':   true,
	'\x02':   true,
	'\uf0b7': true,
	'\uf020': true,
	'\u202f': true,
}

var charMap = map[rune]rune{
	'\x0c':   ' ',
	'\x0b':   ' ',
	'\u00a0': ' ',
	'\t':     ' ',
	'\u201c': '"',
	'\u201d': '"',
	'\u2018': '\'',
	'\u2019': '\'',
	'\u2013': '-',
}

var (
	cidPattern          = regexp.MustCompile(`\(cid:\d+\)`)
	doubledQuotePattern = regexp.MustCompile("''|``")
)

func normalizer(asciiOnly bool) transform.Transformer {
	steps := []transform.Transformer{
		runes.ReplaceIllFormed(),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r == utf8.RuneError || dropped[r]
		})),
		runes.Map(func(r rune) rune {
			if m, ok := charMap[r]; ok {
				return m
			}
			return r
		}),
	}
	if asciiOnly {
		steps = append(steps, runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII
		})))
	}
	return transform.Chain(steps...)
}

func normalize(text string, asciiOnly bool) string {
	out, _, err := transform.String(normalizer(asciiOnly), text)
	if err != nil {
		// The chained transformers never fail on string input.
		out = text
	}
	out = cidPattern.ReplaceAllString(out, "")
	return doubledQuotePattern.ReplaceAllString(out, `"`)
}

// NormalizeChars removes extraction artifacts, maps unusual whitespace to a space,
// straightens curly quotes and en dashes, and drops invalid UTF-8.
func NormalizeChars(text string) string {
	return normalize(text, false)
}

// NormalizeCharsASCII is NormalizeChars followed by removal of every non-ASCII character.
func NormalizeCharsASCII(text string) string {
	return normalize(text, true)
}

var (
	spaceRunPattern   = regexp.MustCompile(`[ \t]{2,}`)
	newlineRunPattern = regexp.MustCompile(`\n{3,}`)
)

// NormalizeWhitespaces trims text, collapses runs of spaces and tabs, and caps
// newline runs at two. Single and double newlines are kept because numbered-list
// detection relies on them.
func NormalizeWhitespaces(text string) string {
	text = strings.TrimSpace(text)
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return newlineRunPattern.ReplaceAllString(text, "\n\n")
}

var (
	newlinesPattern     = regexp.MustCompile(`[\r\n]+`)
	excessSpacesPattern = regexp.MustCompile(` {2,}`)
	bracketsPattern     = regexp.MustCompile(`( )?[(\[].*?[)\]]`)
	specialCharsPattern = regexp.MustCompile(`[^a-zA-Z0-9.,!?/:;"'\s]`)
	possessionPattern   = regexp.MustCompile(`(\w)'s\b`)
)

// ReplaceNewlines replaces each run of line breaks with replacement.
func ReplaceNewlines(text, replacement string) string {
	return newlinesPattern.ReplaceAllLiteralString(text, replacement)
}

// ReplaceExcessiveSpaces collapses runs of spaces to one.
func ReplaceExcessiveSpaces(text string) string {
	return excessSpacesPattern.ReplaceAllLiteralString(text, " ")
}

// ReplaceBrackets replaces bracketed or parenthesised asides, with the space
// before them, by replacement.
func ReplaceBrackets(text, replacement string) string {
	return bracketsPattern.ReplaceAllLiteralString(text, replacement)
}

// ReplaceSpecialChars replaces characters outside letters, digits, whitespace
// and basic punctuation.
func ReplaceSpecialChars(text, replacement string) string {
	return specialCharsPattern.ReplaceAllLiteralString(text, replacement)
}

// RemovePossessions strips the possessive "'s" from words.
func RemovePossessions(text string) string {
	return possessionPattern.ReplaceAllString(text, "$1")
}

// RemoveQuestionMarks deletes every question mark.
func RemoveQuestionMarks(text string) string {
	return strings.ReplaceAll(text, "?", "")
}
