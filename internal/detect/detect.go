// Package detect finds regions of text where sentence punctuation must not be
// treated as a sentence boundary: abbreviations, URLs, emails, decimal numbers
// and numbered-list markers. Every heuristic is a pure function returning spans
// in source order.
package detect

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/textspan"
)

// MatchTimeout bounds a single lookaround pattern scan.
const MatchTimeout = 2 * time.Second

// Detector runs the dictionary-backed heuristics against a Lexicon.
type Detector struct {
	lex      *lexicon.Lexicon
	patterns *lexicon.Lazy[*knownPatterns]
	warnOnce sync.Once
}

// New creates a Detector using the dictionaries in lex.
func New(lex *lexicon.Lexicon) *Detector {
	d := &Detector{lex: lex}
	d.patterns = lexicon.NewLazy(d.compileKnownPatterns)
	return d
}

var defaultDetector = sync.OnceValue(func() *Detector {
	return New(lexicon.Default())
})

// Default returns the Detector backed by the embedded dictionaries.
func Default() *Detector {
	return defaultDetector()
}

// Lexicon returns the dictionaries the detector was built with.
func (d *Detector) Lexicon() *lexicon.Lexicon {
	return d.lex
}

// FindAll runs a regexp2 pattern over text and converts its rune positions to
// byte offsets. A timed out scan keeps the matches found so far.
func FindAll(re *regexp2.Regexp, text string) []textspan.TextSpan {
	if text == "" {
		return nil
	}

	offsets := runeOffsets(text)
	var spans []textspan.TextSpan
	m, err := re.FindStringMatch(text)
	for err == nil && m != nil {
		start := offsets[m.Index]
		end := offsets[m.Index+m.Length]
		spans = append(spans, textspan.New(text, start, end, 0))
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		slog.Warn("pattern scan aborted", "pattern", truncate(re.String(), 80), "error", err)
	}
	return spans
}

// runeOffsets maps rune index i to its byte offset; the final entry is len(text).
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

func mustCompile(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = MatchTimeout
	return re
}

// subtract returns the spans of a that do not appear in b, sorted by start.
func subtract(a, b []textspan.TextSpan) []textspan.TextSpan {
	seen := make(map[textspan.TextSpan]struct{}, len(b))
	for _, ts := range b {
		seen[ts] = struct{}{}
	}

	var out []textspan.TextSpan
	for _, ts := range a {
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		out = append(out, ts)
	}
	textspan.SortByStart(out)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// punctClass is a character class matching any ASCII punctuation character.
var punctClass = func() string {
	const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range punctuation {
		switch r {
		case '\\', ']', '[', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte(']')
	return b.String()
}()

// sortedByLength orders alternation entries longest first so that the longer of
// two entries sharing a prefix wins.
func sortedByLength(entries map[string]string) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
