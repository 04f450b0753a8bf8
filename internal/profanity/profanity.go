// Package profanity finds dictionary profanities, including spellings that swap
// letters for look-alike characters.
package profanity

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/textspan"
)

// Filter matches the profanities of a Lexicon.
type Filter struct {
	lex      *lexicon.Lexicon
	patterns *lexicon.Lazy[[]*regexp.Regexp]
}

// New creates a Filter over the dictionaries in lex.
func New(lex *lexicon.Lexicon) *Filter {
	f := &Filter{lex: lex}
	f.patterns = lexicon.NewLazy(f.compile)
	return f
}

var defaultFilter = sync.OnceValue(func() *Filter {
	return New(lexicon.Default())
})

// Default returns the Filter backed by the embedded dictionaries.
func Default() *Filter {
	return defaultFilter()
}

func (f *Filter) compile() ([]*regexp.Regexp, error) {
	words, err := f.lex.Profanities()
	if err != nil {
		return nil, fmt.Errorf("failed to load profanities: %w", err)
	}
	subs, err := f.lex.CharSubstitutions()
	if err != nil {
		return nil, fmt.Errorf("failed to load character substitutions: %w", err)
	}

	seen := make(map[string]bool, len(words))
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, word := range words {
		expr := wordPattern(word, subs)
		if seen[expr] {
			continue
		}
		seen[expr] = true

		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile profanity %q: %w", word, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// wordPattern builds a case-insensitive, word-bounded pattern in which every
// letter with known substitutions also matches any substitute, and a space
// matches a run of spaces.
func wordPattern(word string, subs map[rune][]string) string {
	var b strings.Builder
	b.WriteString(`(?i)\b`)
	for _, r := range word {
		switch alts, ok := subs[unicode.ToUpper(r)]; {
		case ok:
			choices := []string{regexp.QuoteMeta(string(unicode.ToLower(r)))}
			for _, a := range alts {
				choices = append(choices, regexp.QuoteMeta(a))
			}
			b.WriteString("(?:" + strings.Join(choices, "|") + ")")
		case r == ' ':
			b.WriteString(` +`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\b`)
	return b.String()
}

// Find returns every profanity in text, sorted by position.
func (f *Filter) Find(text string) ([]textspan.TextSpan, error) {
	patterns, err := f.patterns.Get()
	if err != nil {
		return nil, err
	}

	var found []textspan.TextSpan
	for _, re := range patterns {
		found = append(found, textspan.Find(re, text, 0)...)
	}
	textspan.SortByStart(found)
	return found, nil
}

// Find runs Default().Find.
func Find(text string) ([]textspan.TextSpan, error) {
	return Default().Find(text)
}
