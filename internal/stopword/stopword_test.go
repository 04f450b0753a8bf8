package stopword

import (
	"errors"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/textspan"
)

const dogText = "The dog is derived from an ancient, extinct wolf."

func TestFind(t *testing.T) {
	got, err := Find(dogText, "english", true)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	want := []textspan.TextSpan{
		{Text: "The", Span: textspan.Span{Start: 0, End: 3}},
		{Text: "is", Span: textspan.Span{Start: 8, End: 10}},
		{Text: "from", Span: textspan.Span{Start: 19, End: 23}},
		{Text: "an", Span: textspan.Span{Start: 24, End: 26}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find() = %v, want %v", got, want)
	}
}

func TestFind_CaseSensitive(t *testing.T) {
	got, err := Find(dogText, "english", false)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if texts := textspan.Texts(got); !reflect.DeepEqual(texts, []string{"is", "from", "an"}) {
		t.Errorf("Find() = %v", texts)
	}
}

func TestSplit(t *testing.T) {
	got, err := Split(dogText, "", true, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	want := []textspan.TextSpan{
		{Text: " dog ", Span: textspan.Span{Start: 3, End: 8}},
		{Text: " derived ", Span: textspan.Span{Start: 10, End: 19}},
		{Text: " ", Span: textspan.Span{Start: 23, End: 24}},
		{Text: " ancient, extinct wolf.", Span: textspan.Span{Start: 26, End: 49}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}

	shifted, _ := Split(dogText, "english", true, 100)
	if shifted[0].Start() != 103 {
		t.Errorf("offset not applied: %v", shifted[0].Span)
	}
}

func TestSplit_UnknownLanguage(t *testing.T) {
	if _, err := Split(dogText, "klingon", true, 0); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{dogText, "english"},
		{"El perro come en la casa de mi madre y duerme con ella", "spanish"},
		{"Le chien mange dans la maison avec nous et il dort", "french"},
		{"Der Hund ist auf dem Sofa und ich bin auch da", "german"},
	}

	for _, tt := range tests {
		got, err := DetectLanguage(tt.text)
		if err != nil {
			t.Fatalf("DetectLanguage(%q) error: %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDetectLanguage_NoStopwords(t *testing.T) {
	if _, err := DetectLanguage("xyzzy plugh"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestMatcher_InjectedLexicon(t *testing.T) {
	m := New(lexicon.New(fstest.MapFS{
		"stopwords/klingon": {Data: []byte("nuq\nqaStaH\n")},
	}))

	langs, err := m.Languages()
	if err != nil {
		t.Fatalf("Languages() error: %v", err)
	}
	if !reflect.DeepEqual(langs, []string{"klingon"}) {
		t.Errorf("Languages() = %v", langs)
	}

	got, err := m.Split("nuq qaStaH Hegh", "Klingon", false, 0)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if texts := textspan.Texts(got); !reflect.DeepEqual(texts, []string{" ", " Hegh"}) {
		t.Errorf("Split() = %q", texts)
	}

	if lang, err := m.DetectLanguage("nuq is it"); err != nil || lang != "klingon" {
		t.Errorf("DetectLanguage() = %q, %v", lang, err)
	}
}
