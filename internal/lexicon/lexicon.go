// Package lexicon loads the static dictionaries used by text pre-processing
// (abbreviations, stopwords, contractions, character substitutions, profanities).
// Each resource is read from an fs.FS at most once per Lexicon.
package lexicon

import (
	"bufio"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"unicode/utf8"
)

//go:embed data
var embedded embed.FS

// Resource names, relative to the lexicon root.
const (
	AbbreviationsFile     = "abbreviations.json"
	ContractionsFile      = "contractions.json"
	CharSubstitutionsFile = "character_substitutions.json"
	ProfanitiesFile       = "profanities.json"
	StopwordsDir          = "stopwords"
)

// ErrResourceNotFound is returned when a named resource is missing from the data source.
var ErrResourceNotFound = errors.New("lexicon resource not found")

// Lexicon provides lazily loaded, read-only dictionaries.
type Lexicon struct {
	fsys fs.FS

	abbreviations     *Lazy[map[string]string]
	contractions      *Lazy[map[string]string]
	charSubstitutions *Lazy[map[rune][]string]
	profanities       *Lazy[[]string]
	stopwords         *Lazy[map[string]map[string]struct{}]
}

// New creates a Lexicon reading from fsys. Nothing is read until a resource is requested.
func New(fsys fs.FS) *Lexicon {
	l := &Lexicon{fsys: fsys}
	l.abbreviations = NewLazy(func() (map[string]string, error) {
		return loadJSON[map[string]string](l.fsys, AbbreviationsFile)
	})
	l.contractions = NewLazy(func() (map[string]string, error) {
		return loadJSON[map[string]string](l.fsys, ContractionsFile)
	})
	l.charSubstitutions = NewLazy(l.loadCharSubstitutions)
	l.profanities = NewLazy(func() ([]string, error) {
		return loadJSON[[]string](l.fsys, ProfanitiesFile)
	})
	l.stopwords = NewLazy(l.loadStopwords)
	return l
}

// Dir creates a Lexicon reading from a directory on disk.
func Dir(dir string) *Lexicon {
	return New(os.DirFS(dir))
}

// Embedded returns the data set compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		// The embed directive guarantees "data" exists.
		panic(err)
	}
	return sub
}

var defaultLexicon = sync.OnceValue(func() *Lexicon {
	return New(Embedded())
})

// Default returns the process-wide Lexicon backed by the embedded data set.
func Default() *Lexicon {
	return defaultLexicon()
}

// Abbreviations maps each known abbreviation to its expansion.
func (l *Lexicon) Abbreviations() (map[string]string, error) {
	return l.abbreviations.Get()
}

// Contractions maps each contraction to its expansion.
func (l *Lexicon) Contractions() (map[string]string, error) {
	return l.contractions.Get()
}

// CharSubstitutions maps an upper-case letter to the strings that may stand in for it.
func (l *Lexicon) CharSubstitutions() (map[rune][]string, error) {
	return l.charSubstitutions.Get()
}

// Profanities returns the profanity dictionary.
func (l *Lexicon) Profanities() ([]string, error) {
	return l.profanities.Get()
}

// Stopwords returns the stopword set of every available language, keyed by
// lower-case language name.
func (l *Lexicon) Stopwords() (map[string]map[string]struct{}, error) {
	return l.stopwords.Get()
}

func loadJSON[T any](fsys fs.FS, name string) (T, error) {
	var v T
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
		}
		return v, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	slog.Debug("lexicon resource loaded", "resource", name, "bytes", len(data))
	return v, nil
}

func (l *Lexicon) loadCharSubstitutions() (map[rune][]string, error) {
	raw, err := loadJSON[map[string][]string](l.fsys, CharSubstitutionsFile)
	if err != nil {
		return nil, err
	}

	subs := make(map[rune][]string, len(raw))
	for key, values := range raw {
		r, size := utf8.DecodeRuneInString(strings.ToUpper(key))
		if size == 0 || size != len(strings.ToUpper(key)) {
			return nil, fmt.Errorf("failed to parse %s: key %q is not a single character", CharSubstitutionsFile, key)
		}
		subs[r] = append(subs[r], values...)
	}
	return subs, nil
}

func (l *Lexicon) loadStopwords() (map[string]map[string]struct{}, error) {
	entries, err := fs.ReadDir(l.fsys, StopwordsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, StopwordsDir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", StopwordsDir, err)
	}

	stopwords := make(map[string]map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		words, err := readLines(l.fsys, path.Join(StopwordsDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		stopwords[strings.ToLower(entry.Name())] = set
	}
	slog.Debug("lexicon resource loaded", "resource", StopwordsDir, "languages", len(stopwords))
	return stopwords, nil
}

func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return lines, nil
}
