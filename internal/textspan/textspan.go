// Package textspan provides labeled substrings with absolute offsets and the
// interval algorithms (merge, split, overlap filtering) the segmenter is built on.
package textspan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// Span is a half-open byte interval [Start, End) into a source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Shift returns the span moved by offset.
func (s Span) Shift(offset int) Span {
	return Span{Start: s.Start + offset, End: s.End + offset}
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Touches reports whether the spans overlap or share a boundary.
func (s Span) Touches(o Span) bool {
	return s.Start <= o.End && o.Start <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.End)
}

// MarshalJSON encodes the span as a two element array.
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Start, s.End})
}

// UnmarshalJSON decodes a two element array.
func (s *Span) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("span must be a [start, end] pair: %w", err)
	}
	s.Start, s.End = pair[0], pair[1]
	return nil
}

// TextSpan is a substring together with its offsets in the original text.
// Text always equals source[Span.Start:Span.End].
type TextSpan struct {
	Text string `json:"text"`
	Span Span   `json:"span"`
}

// New builds a TextSpan for source[start:end], shifted by offset.
func New(source string, start, end, offset int) TextSpan {
	return TextSpan{
		Text: source[start:end],
		Span: Span{Start: offset + start, End: offset + end},
	}
}

// Len returns the byte length of the text.
func (t TextSpan) Len() int {
	return len(t.Text)
}

// Start returns the span start offset.
func (t TextSpan) Start() int {
	return t.Span.Start
}

// End returns the span end offset.
func (t TextSpan) End() int {
	return t.Span.End
}

// Words returns the word tokens of the text.
func (t TextSpan) Words() []string {
	return Words(t.Text)
}

// Shift returns the text span with its offsets moved by offset.
func (t TextSpan) Shift(offset int) TextSpan {
	return TextSpan{Text: t.Text, Span: t.Span.Shift(offset)}
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Words splits text on runs of non-word characters. A single empty token
// produced by a leading or trailing delimiter is dropped at each end.
func Words(text string) []string {
	words := nonWord.Split(text, -1)
	if len(words) > 0 && words[0] == "" {
		words = words[1:]
	}
	if len(words) > 0 && words[len(words)-1] == "" {
		words = words[:len(words)-1]
	}
	return words
}

// MergeSpans returns the minimal sorted set of disjoint spans whose union equals
// the union of spans. Spans that overlap or touch are merged. The input slice is
// not modified.
func MergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := make([]Span, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Touches(current) {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// Split cuts text at the given spans and returns the surrounding pieces. The
// cut regions themselves are removed, zero-length gaps are dropped, and every
// returned span is shifted by offset.
func Split(text string, cuts []Span, offset int) []TextSpan {
	merged := MergeSpans(cuts)

	var pieces []TextSpan
	start := 0
	for _, cut := range merged {
		end := clamp(cut.Start, start, len(text))
		if end > start {
			pieces = append(pieces, New(text, start, end, offset))
		}
		if next := clamp(cut.End, start, len(text)); next > start {
			start = next
		}
	}
	if start < len(text) {
		pieces = append(pieces, New(text, start, len(text), offset))
	}
	return pieces
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NonOverlapping returns the candidates that share no byte with any protected span.
func NonOverlapping(protected, candidates []Span) []Span {
	var kept []Span
	for _, candidate := range candidates {
		free := true
		for _, p := range protected {
			if candidate.Overlaps(p) {
				free = false
				break
			}
		}
		if free {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// FromMatches converts stdlib regexp index pairs into text spans.
func FromMatches(text string, matches [][]int, offset int) []TextSpan {
	spans := make([]TextSpan, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, New(text, m[0], m[1], offset))
	}
	return spans
}

// Find returns every non-overlapping match of re in text.
func Find(re *regexp.Regexp, text string, offset int) []TextSpan {
	return FromMatches(text, re.FindAllStringIndex(text, -1), offset)
}

// Spans extracts the intervals of text spans.
func Spans(textSpans ...[]TextSpan) []Span {
	var spans []Span
	for _, list := range textSpans {
		for _, ts := range list {
			spans = append(spans, ts.Span)
		}
	}
	return spans
}

// Texts extracts the text of each span.
func Texts(textSpans []TextSpan) []string {
	texts := make([]string, len(textSpans))
	for i, ts := range textSpans {
		texts[i] = ts.Text
	}
	return texts
}

// SortByStart orders spans by start, then end.
func SortByStart(spans []TextSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Span.Start != spans[j].Span.Start {
			return spans[i].Span.Start < spans[j].Span.Start
		}
		return spans[i].Span.End < spans[j].Span.End
	})
}
