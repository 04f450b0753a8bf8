package lexicon

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
)

func TestLazy_LoadsOnce(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func() (string, error) {
		calls.Add(1)
		return "Hello World!", nil
	})

	if lazy.Loaded() {
		t.Fatal("Loaded() should be false before Get")
	}

	for i := 0; i < 3; i++ {
		v, err := lazy.Get()
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if v != "Hello World!" {
			t.Errorf("Get() = %q", v)
		}
	}

	if !lazy.Loaded() {
		t.Error("Loaded() should be true after Get")
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestLazy_ConcurrentFirstAccess(t *testing.T) {
	var calls atomic.Int32
	lazy := NewLazy(func() ([]int, error) {
		calls.Add(1)
		return []int{1, 2, 3}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := lazy.Get()
			if err != nil || len(v) != 3 {
				t.Errorf("Get() = %v, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestLazy_RemembersError(t *testing.T) {
	loadErr := errors.New("boom")
	var calls atomic.Int32
	lazy := NewLazy(func() (int, error) {
		calls.Add(1)
		return 0, loadErr
	})

	for i := 0; i < 2; i++ {
		if _, err := lazy.Get(); !errors.Is(err, loadErr) {
			t.Errorf("Get() error = %v, want %v", err, loadErr)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestEmbedded_Resources(t *testing.T) {
	lex := New(Embedded())

	abbreviations, err := lex.Abbreviations()
	if err != nil {
		t.Fatalf("Abbreviations() error: %v", err)
	}
	for _, want := range []string{"Dr.", "Prof.", "Ph.D.", "etc.", "et al."} {
		if _, ok := abbreviations[want]; !ok {
			t.Errorf("missing abbreviation %q", want)
		}
	}

	contractions, err := lex.Contractions()
	if err != nil {
		t.Fatalf("Contractions() error: %v", err)
	}
	if contractions["won't"] != "will not" {
		t.Errorf("contractions[won't] = %q", contractions["won't"])
	}

	subs, err := lex.CharSubstitutions()
	if err != nil {
		t.Fatalf("CharSubstitutions() error: %v", err)
	}
	if len(subs['A']) == 0 {
		t.Error("expected substitutions keyed by upper-case letter")
	}

	profanities, err := lex.Profanities()
	if err != nil {
		t.Fatalf("Profanities() error: %v", err)
	}
	if len(profanities) == 0 {
		t.Error("expected profanities")
	}

	stopwords, err := lex.Stopwords()
	if err != nil {
		t.Fatalf("Stopwords() error: %v", err)
	}
	for _, lang := range []string{"english", "spanish", "french", "german"} {
		if len(stopwords[lang]) == 0 {
			t.Errorf("no stopwords for %s", lang)
		}
	}
	if _, ok := stopwords["english"]["the"]; !ok {
		t.Error(`english stopwords should contain "the"`)
	}
}

func TestDefault_IsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() should return the same Lexicon")
	}
}

func TestMissingResource(t *testing.T) {
	lex := New(fstest.MapFS{})

	if _, err := lex.Abbreviations(); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("Abbreviations() error = %v, want ErrResourceNotFound", err)
	}
	if _, err := lex.Stopwords(); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("Stopwords() error = %v, want ErrResourceNotFound", err)
	}
}

func TestMalformedResource(t *testing.T) {
	lex := New(fstest.MapFS{
		AbbreviationsFile:     {Data: []byte(`["not", "a", "map"]`)},
		CharSubstitutionsFile: {Data: []byte(`{"ab": ["x"]}`)},
	})

	_, err := lex.Abbreviations()
	if err == nil || errors.Is(err, ErrResourceNotFound) {
		t.Errorf("Abbreviations() error = %v, want parse error", err)
	}
	if _, err := lex.CharSubstitutions(); err == nil {
		t.Error("CharSubstitutions() should reject multi-character keys")
	}
}

func TestInjectedResource(t *testing.T) {
	lex := New(fstest.MapFS{
		AbbreviationsFile:          {Data: []byte(`{"Foo.": "Foobar"}`)},
		StopwordsDir + "/klingon":  {Data: []byte("qaStaH\n\nnuq\n")},
		StopwordsDir + "/nested/x": {Data: []byte("ignored")},
	})

	abbreviations, err := lex.Abbreviations()
	if err != nil {
		t.Fatalf("Abbreviations() error: %v", err)
	}
	if len(abbreviations) != 1 || abbreviations["Foo."] != "Foobar" {
		t.Errorf("Abbreviations() = %v", abbreviations)
	}

	stopwords, err := lex.Stopwords()
	if err != nil {
		t.Fatalf("Stopwords() error: %v", err)
	}
	if len(stopwords) != 1 || len(stopwords["klingon"]) != 2 {
		t.Errorf("Stopwords() = %v", stopwords)
	}
}
