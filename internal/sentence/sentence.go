// Package sentence splits text into sentences. Periods, exclamation and question
// marks end a sentence unless they sit inside an abbreviation, URL, email, decimal
// number or numbered-list marker.
package sentence

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/ai8future/textprep/internal/detect"
	"github.com/ai8future/textprep/internal/textspan"
)

// Sentence is a TextSpan produced by the segmenter.
type Sentence struct {
	textspan.TextSpan
}

// IsTitle reports whether every word starts with an upper-case letter followed
// only by lower-case letters. Text without letters is not title-like.
func (s Sentence) IsTitle() bool {
	cased, prevCased := false, false
	for _, r := range s.Text {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

// Options controls segmentation.
type Options struct {
	// Offset is added to every returned span, for text cut from a larger document.
	Offset int

	// SplitOnLineBreaks also ends sentences at runs of \r, \n, \t and \f.
	SplitOnLineBreaks bool
}

var (
	punctuationPattern = regexp.MustCompile(`[.!?]`)
	lineBreakPattern   = regexp.MustCompile(`[\r\n\t\f]+`)
)

// Segmenter splits text into sentences using a Detector for non-breaking regions.
type Segmenter struct {
	detector *detect.Detector
}

// New creates a Segmenter backed by d.
func New(d *detect.Detector) *Segmenter {
	return &Segmenter{detector: d}
}

var defaultSegmenter = sync.OnceValue(func() *Segmenter {
	return New(detect.Default())
})

// Default returns the Segmenter backed by the embedded dictionaries.
func Default() *Segmenter {
	return defaultSegmenter()
}

// Fingerprint identifies the dictionary the Segmenter protects abbreviations with.
func (s *Segmenter) Fingerprint() string {
	return s.detector.Fingerprint()
}

// Segment splits text into sentences using the default Segmenter.
func Segment(text string, opts Options) []Sentence {
	return Default().Segment(text, opts)
}

// NonBreakingSpans returns the merged regions of text in which punctuation can
// not end a sentence.
func (s *Segmenter) NonBreakingSpans(text string) []textspan.Span {
	known, unknown := s.detector.SegmentationAbbreviations(text)
	return textspan.MergeSpans(textspan.Spans(
		known,
		unknown,
		detect.URLs(text),
		detect.Emails(text),
		detect.Decimals(text),
		detect.NumberedListMarkers(text),
	))
}

// Segment splits text into sentences. Sentence-ending punctuation stays with its
// sentence and the whitespace after it belongs to neither neighbour. Text with no
// boundary is returned as a single sentence; empty text yields none.
func (s *Segmenter) Segment(text string, opts Options) []Sentence {
	if text == "" {
		return nil
	}

	protected := s.NonBreakingSpans(text)

	punctuation := textspan.NonOverlapping(protected, matchSpans(punctuationPattern, text))
	punctuation = textspan.MergeSpans(punctuation)

	var lineBreaks []textspan.Span
	if opts.SplitOnLineBreaks {
		lineBreaks = textspan.NonOverlapping(protected, matchSpans(lineBreakPattern, text))
	}

	if len(punctuation) == 0 && len(lineBreaks) == 0 {
		return []Sentence{{TextSpan: textspan.New(text, 0, len(text), opts.Offset)}}
	}

	cuts := make([]textspan.Span, 0, len(punctuation)+len(lineBreaks))
	cuts = append(cuts, lineBreaks...)
	for _, p := range punctuation {
		cuts = append(cuts, textspan.Span{Start: p.End, End: p.End + leadingSpace(text[p.End:])})
	}

	parts := textspan.Split(text, cuts, opts.Offset)
	sentences := make([]Sentence, len(parts))
	for i, part := range parts {
		sentences[i] = Sentence{TextSpan: part}
	}
	return sentences
}

// FixTruncated drops sentences that do not end in terminal punctuation, such as
// the cut-off tail of a generated answer. The answer is returned unchanged when no
// sentence qualifies.
func FixTruncated(answer string) string {
	var complete []string
	for _, s := range Segment(answer, Options{}) {
		if strings.ContainsRune(".!?", lastRune(s.Text)) {
			complete = append(complete, s.Text)
		}
	}
	if len(complete) == 0 {
		return answer
	}
	return strings.Join(complete, " ")
}

// Texts returns the text of each sentence.
func Texts(sentences []Sentence) []string {
	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	return texts
}

func matchSpans(re *regexp.Regexp, text string) []textspan.Span {
	matches := re.FindAllStringIndex(text, -1)
	spans := make([]textspan.Span, len(matches))
	for i, m := range matches {
		spans[i] = textspan.Span{Start: m[0], End: m[1]}
	}
	return spans
}

// leadingSpace returns the byte length of the whitespace run that opens s.
func leadingSpace(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !unicode.IsSpace(r) {
			break
		}
		n += size
	}
	return n
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
