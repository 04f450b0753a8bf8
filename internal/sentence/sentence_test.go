package sentence

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ai8future/textprep/internal/textspan"
)

// expected builds sentences for each part, located in order within text.
func expected(t *testing.T, text string, offset int, parts ...string) []Sentence {
	t.Helper()
	var out []Sentence
	from := 0
	for _, p := range parts {
		i := strings.Index(text[from:], p)
		if i < 0 {
			t.Fatalf("%q not found in %q", p, text)
		}
		start := from + i
		out = append(out, Sentence{TextSpan: textspan.New(text, start, start+len(p), offset)})
		from = start + len(p)
	}
	return out
}

func assertSentences(t *testing.T, got, want []Sentence) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got  %v\nwant %v", got, want)
	}
}

func TestSegment_Paragraph(t *testing.T) {
	parts := []string{
		"The dog or domestic dog (Canis familiaris[4][5] or Canis lupus familiaris[5]) is a domesticated descendant of the wolf, and is characterized by an upturning tail.",
		"The dog is derived from an ancient, extinct wolf,[6][7] and the modern wolf is the dog's nearest living relative.",
		"The dog was the first species to be domesticated, [9][8] by hunter-gatherers over 15, 000 years ago, [7] before the development of agriculture.",
		"Due to their long association with humans, dogs have expanded to a large number of domestic individuals[10] and gained the ability to thrive on a starch-rich diet that would be inadequate for other canids.",
		"The dog has been selectively bred over millennia for various behaviors, sensory capabilities, and physical attributes.",
		"Dog breeds vary widely in shape, size, and color.",
		"They perform many roles for humans, such as hunting, herding, pulling loads, protection, assisting police and the military, companionship, therapy, and aiding disabled people.",
		"Over the millennia, dogs became uniquely adapted to human behavior, and the human-canine bond has been a topic of frequent study.",
		`This influence on human society has given them the sobriquet of "man's best friend".`,
	}
	text := strings.Join(parts, " ")

	assertSentences(t, Segment(text, Options{}), expected(t, text, 0, parts...))
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		opts  Options
		parts []string
	}{
		{
			name:  "no breaks",
			text:  "This sentence has no breaks",
			parts: []string{"This sentence has no breaks"},
		},
		{
			name:  "punctuation breaks",
			text:  "She is now a doctor. She just graduated!",
			parts: []string{"She is now a doctor.", "She just graduated!"},
		},
		{
			name:  "multiple punctuation",
			text:  "I don't know... Do you?? You do!?!",
			parts: []string{"I don't know...", "Do you??", "You do!?!"},
		},
		{
			name:  "punctuation and line break",
			text:  "Before breaks.\nAfter breaks.",
			parts: []string{"Before breaks.", "After breaks."},
		},
		{
			name:  "acronym before line break",
			text:  "We moved to the USA.\nThen we left.",
			parts: []string{"We moved to the USA.", "Then we left."},
		},
		{
			name:  "abbreviations",
			text:  "Hello Dr. Susan! Have you read about the new A.B.C. research?",
			parts: []string{"Hello Dr. Susan!", "Have you read about the new A.B.C. research?"},
		},
		{
			name:  "urls",
			text:  "Want to learn about NLP? Visit https://www.melelem.ai/ for info.",
			parts: []string{"Want to learn about NLP?", "Visit https://www.melelem.ai/ for info."},
		},
		{
			name:  "emails",
			text:  "Want to learn about NLP? Contact john.doe@melelem.ai for info.",
			parts: []string{"Want to learn about NLP?", "Contact john.doe@melelem.ai for info."},
		},
		{
			name:  "decimals",
			text:  "Pi is roughly 3.14 in value. It never ends.",
			parts: []string{"Pi is roughly 3.14 in value.", "It never ends."},
		},
		{
			name:  "numbered list",
			text:  "Steps follow.\n1. Open the box.\n2. Read it.",
			parts: []string{"Steps follow.", "1. Open the box.", "2. Read it."},
		},
		{
			name:  "et al. before capital ends sentence",
			text:  "It was Smith et al. They agreed.",
			parts: []string{"It was Smith et al.", "They agreed."},
		},
		{
			name:  "et al. mid sentence",
			text:  "Smith et al. agreed on it.",
			parts: []string{"Smith et al. agreed on it."},
		},
		{
			name:  "line breaks kept by default",
			text:  "Before line break\n\nAfter line break",
			parts: []string{"Before line break\n\nAfter line break"},
		},
		{
			name:  "line breaks split when enabled",
			text:  "Before line break\n\nAfter line break",
			opts:  Options{SplitOnLineBreaks: true},
			parts: []string{"Before line break", "After line break"},
		},
		{
			name:  "only punctuation",
			text:  "...",
			parts: []string{"..."},
		},
		{
			name:  "unicode whitespace after break",
			text:  "Première phrase.\u00a0Deuxième phrase.",
			parts: []string{"Première phrase.", "Deuxième phrase."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.text, tt.opts)
			assertSentences(t, got, expected(t, tt.text, 0, tt.parts...))
		})
	}
}

func TestSegment_ZeroWidthCut(t *testing.T) {
	text := "She is now a doctor.She just graduated!"
	want := []Sentence{
		{TextSpan: textspan.TextSpan{Text: "She is now a doctor.", Span: textspan.Span{Start: 0, End: 20}}},
		{TextSpan: textspan.TextSpan{Text: "She just graduated!", Span: textspan.Span{Start: 20, End: 39}}},
	}
	assertSentences(t, Segment(text, Options{}), want)
}

func TestSegment_ExactSpans(t *testing.T) {
	text := "Hello Dr. Susan! Have you read about the new A.B.C. research?"
	got := Segment(text, Options{})
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(got))
	}
	if got[0].Span != (textspan.Span{Start: 0, End: 16}) {
		t.Errorf("first span = %v, want (0,16)", got[0].Span)
	}
	if got[1].Span != (textspan.Span{Start: 17, End: 61}) {
		t.Errorf("second span = %v, want (17,61)", got[1].Span)
	}
}

func TestSegment_Offset(t *testing.T) {
	text := "One here. Two there."
	got := Segment(text, Options{Offset: 100})
	assertSentences(t, got, expected(t, text, 100, "One here.", "Two there."))
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment("", Options{}); len(got) != 0 {
		t.Errorf("Segment(\"\") = %v, want empty", got)
	}
}

func TestSegment_Coverage(t *testing.T) {
	texts := []string{
		"A short one. Then another!  And a third?\nDone.",
		"Hello Dr. Susan! Have you read about the new A.B.C. research?",
		"Trailing text without a period. More words",
		"Dots...everywhere...!",
	}

	for _, text := range texts {
		sentences := Segment(text, Options{})
		prevEnd := 0
		for _, s := range sentences {
			if s.Span.Empty() {
				t.Errorf("%q: empty sentence %v", text, s.Span)
			}
			if s.Start() < prevEnd {
				t.Errorf("%q: sentence %v overlaps previous end %d", text, s.Span, prevEnd)
			}
			if gap := text[prevEnd:s.Start()]; strings.TrimSpace(gap) != "" {
				t.Errorf("%q: non-whitespace gap %q before %v", text, gap, s.Span)
			}
			if text[s.Start():s.End()] != s.Text {
				t.Errorf("%q: span %v does not address %q", text, s.Span, s.Text)
			}
			prevEnd = s.End()
		}
		if rest := text[prevEnd:]; strings.TrimSpace(rest) != "" {
			t.Errorf("%q: trailing text %q not covered", text, rest)
		}
	}
}

func TestNonBreakingSpans(t *testing.T) {
	text := "Dr. Who paid 3.50 at www.shop.com today."
	spans := Default().NonBreakingSpans(text)

	for _, want := range []string{"Dr.", "3.50", "www.shop.com"} {
		i := strings.Index(text, want)
		covered := false
		for _, s := range spans {
			if s.Start <= i && i+len(want) <= s.End {
				covered = true
			}
		}
		if !covered {
			t.Errorf("%q at %d not covered by %v", want, i, spans)
		}
	}
}

func TestSentence_IsTitle(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"The Great Gatsby", true},
		{"The great Gatsby", false},
		{"HELLO WORLD", false},
		{"Chapter 1: The Start", true},
		{"O'Neil Is Here", true},
		{"1234", false},
		{"", false},
	}

	for _, tt := range tests {
		s := Sentence{TextSpan: textspan.New(tt.text, 0, len(tt.text), 0)}
		if got := s.IsTitle(); got != tt.want {
			t.Errorf("IsTitle(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSentence_JSON(t *testing.T) {
	s := Sentence{TextSpan: textspan.New("Hi there.", 0, 9, 4)}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if want := `{"text":"Hi there.","span":[4,13]}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestFixTruncated(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"The answer is yes. It was cut of", "The answer is yes."},
		{"First. Second! Third? Fourth", "First. Second! Third?"},
		{"no terminal punctuation", "no terminal punctuation"},
		{"Complete sentence.", "Complete sentence."},
	}

	for _, tt := range tests {
		if got := FixTruncated(tt.answer); got != tt.want {
			t.Errorf("FixTruncated(%q) = %q, want %q", tt.answer, got, tt.want)
		}
	}
}
