package textproc

import (
	"regexp"
	"strings"

	"github.com/ai8future/textprep/internal/textspan"
)

// ASCIIPunctuation lists the ASCII punctuation characters.
const ASCIIPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	punctuationPattern    = regexp.MustCompile(`[!"#$%&'()*+,\-./:;<=>?@\[\\\]^_` + "`" + `{|}~]`)
	nonPunctuationPattern = regexp.MustCompile(`[^!"#$%&'()*+,\-./:;<=>?@\[\\\]^_` + "`" + `{|}~]+`)
	paragraphPattern      = regexp.MustCompile(`[\S ]+`)
)

// Punctuations returns every ASCII punctuation character in text.
func Punctuations(text string) []textspan.TextSpan {
	return textspan.Find(punctuationPattern, text, 0)
}

// SplitPunctuations returns the runs of text between punctuation characters.
func SplitPunctuations(text string, offset int) []textspan.TextSpan {
	return textspan.Find(nonPunctuationPattern, text, offset)
}

// RemovePunctuations deletes every ASCII punctuation character.
func RemovePunctuations(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(ASCIIPunctuation, r) {
			return -1
		}
		return r
	}, text)
}

// Paragraphs returns the maximal runs of text that contain no line break.
func Paragraphs(text string) []textspan.TextSpan {
	return textspan.Find(paragraphPattern, text, 0)
}
