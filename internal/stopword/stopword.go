// Package stopword finds stopwords, splits text around them and guesses a text's
// language from the stopwords it contains.
package stopword

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/ai8future/textprep/internal/detect"
	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/textspan"
)

// DefaultLanguage is used when no language is given.
const DefaultLanguage = "english"

// ErrUnknownLanguage is returned for a language without a stopword list, or when
// no language can be detected.
var ErrUnknownLanguage = errors.New("unknown language")

// Matcher matches stopwords from a Lexicon.
type Matcher struct {
	lex      *lexicon.Lexicon
	mu       sync.Mutex
	patterns map[patternKey]*regexp2.Regexp
}

type patternKey struct {
	language   string
	ignoreCase bool
}

// New creates a Matcher over the stopword lists in lex.
func New(lex *lexicon.Lexicon) *Matcher {
	return &Matcher{lex: lex, patterns: make(map[patternKey]*regexp2.Regexp)}
}

var defaultMatcher = sync.OnceValue(func() *Matcher {
	return New(lexicon.Default())
})

// Default returns the Matcher backed by the embedded stopword lists.
func Default() *Matcher {
	return defaultMatcher()
}

// Languages lists the languages with a stopword list, sorted.
func (m *Matcher) Languages() ([]string, error) {
	stopwords, err := m.lex.Stopwords()
	if err != nil {
		return nil, err
	}
	langs := make([]string, 0, len(stopwords))
	for lang := range stopwords {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}

func (m *Matcher) pattern(language string, ignoreCase bool) (*regexp2.Regexp, error) {
	if language == "" {
		language = DefaultLanguage
	}
	key := patternKey{language: strings.ToLower(language), ignoreCase: ignoreCase}

	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.patterns[key]; ok {
		return re, nil
	}

	stopwords, err := m.lex.Stopwords()
	if err != nil {
		return nil, err
	}
	words, ok := stopwords[key.language]
	if !ok || len(words) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}

	alts := make([]string, 0, len(words))
	for w := range words {
		alts = append(alts, regexp2.Escape(w))
	}
	// Longest first so that "about" wins over "a".
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})

	opts := regexp2.None
	if key.ignoreCase {
		opts = regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(`\b(?:`+strings.Join(alts, "|")+`)\b`, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s stopwords: %w", key.language, err)
	}
	re.MatchTimeout = detect.MatchTimeout
	m.patterns[key] = re
	return re, nil
}

// Find returns every stopword of language in text.
func (m *Matcher) Find(text, language string, ignoreCase bool) ([]textspan.TextSpan, error) {
	re, err := m.pattern(language, ignoreCase)
	if err != nil {
		return nil, err
	}
	return detect.FindAll(re, text), nil
}

// Split returns the text between stopwords, shifted by offset.
func (m *Matcher) Split(text, language string, ignoreCase bool, offset int) ([]textspan.TextSpan, error) {
	found, err := m.Find(text, language, ignoreCase)
	if err != nil {
		return nil, err
	}
	return textspan.Split(text, textspan.Spans(found), offset), nil
}

// DetectLanguage returns the language whose stopwords occur most often among the
// distinct whitespace-separated words of text. Ties go to the alphabetically first
// language.
func (m *Matcher) DetectLanguage(text string) (string, error) {
	stopwords, err := m.lex.Stopwords()
	if err != nil {
		return "", err
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[w] = struct{}{}
	}

	langs, _ := m.Languages()
	best, bestCount := "", 0
	for _, lang := range langs {
		count := 0
		for w := range words {
			if _, ok := stopwords[lang][w]; ok {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = lang, count
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no stopwords found", ErrUnknownLanguage)
	}
	return best, nil
}

// Find runs Default().Find.
func Find(text, language string, ignoreCase bool) ([]textspan.TextSpan, error) {
	return Default().Find(text, language, ignoreCase)
}

// Split runs Default().Split.
func Split(text, language string, ignoreCase bool, offset int) ([]textspan.TextSpan, error) {
	return Default().Split(text, language, ignoreCase, offset)
}

// DetectLanguage runs Default().DetectLanguage.
func DetectLanguage(text string) (string, error) {
	return Default().DetectLanguage(text)
}
