// Package chunker groups sentences into size-bounded chunks for downstream NLP services.
package chunker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/textspan"
)

var (
	// ErrNoLimit is returned when Options sets no limiting criterion.
	ErrNoLimit = errors.New("at least one of max words, max sentences, max characters or a limit function must be set")

	// ErrNegativeOverlap is returned for a negative SentenceOverlap.
	ErrNegativeOverlap = errors.New("sentence overlap must not be negative")
)

// Chunk is a run of consecutive sentences.
type Chunk struct {
	Sentences []sentence.Sentence
}

// Text joins the sentences with a single space.
func (c Chunk) Text() string {
	return strings.Join(sentence.Texts(c.Sentences), " ")
}

// Start is the offset of the first sentence.
func (c Chunk) Start() int {
	if len(c.Sentences) == 0 {
		return 0
	}
	return c.Sentences[0].Start()
}

// End is the end offset of the last sentence.
func (c Chunk) End() int {
	if len(c.Sentences) == 0 {
		return 0
	}
	return c.Sentences[len(c.Sentences)-1].End()
}

// Span covers the chunk in the original text, including separators between sentences.
func (c Chunk) Span() textspan.Span {
	return textspan.Span{Start: c.Start(), End: c.End()}
}

// Len is the number of sentences.
func (c Chunk) Len() int {
	return len(c.Sentences)
}

// Characters is the summed character count of the sentences, separators excluded.
func (c Chunk) Characters() int {
	n := 0
	for _, s := range c.Sentences {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

// Words is the summed word count of the sentences.
func (c Chunk) Words() int {
	n := 0
	for _, s := range c.Sentences {
		n += len(s.Words())
	}
	return n
}

// Equal reports whether both chunks hold the same sentences.
func (c Chunk) Equal(o Chunk) bool {
	if len(c.Sentences) != len(o.Sentences) {
		return false
	}
	for i := range c.Sentences {
		if c.Sentences[i] != o.Sentences[i] {
			return false
		}
	}
	return true
}

type chunkJSON struct {
	Text      string              `json:"text"`
	Span      textspan.Span       `json:"span"`
	Sentences []sentence.Sentence `json:"sentences"`
}

// MarshalJSON encodes the chunk with its derived text and span.
func (c Chunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(chunkJSON{Text: c.Text(), Span: c.Span(), Sentences: c.Sentences})
}

// UnmarshalJSON restores a chunk from its sentences; text and span are derived.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var raw chunkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode chunk: %w", err)
	}
	c.Sentences = raw.Sentences
	return nil
}

// Options configures chunk limits. A zero limit is disabled; at least one limit
// must be set.
type Options struct {
	// MaxWords caps the summed word count of a chunk.
	MaxWords int

	// MaxSentences caps the number of sentences in a chunk.
	MaxSentences int

	// MaxCharacters caps the summed character count of a chunk's sentences.
	MaxCharacters int

	// Limit reports whether a candidate chunk exceeds a custom maximum.
	Limit func(Chunk) bool

	// SentenceOverlap is the number of trailing sentences repeated at the start
	// of the next chunk.
	SentenceOverlap int
}

// DefaultOptions returns the default chunking options.
func DefaultOptions() Options {
	return Options{
		MaxCharacters:   2000,
		SentenceOverlap: 1,
	}
}

// Validate checks that at least one limit is set.
func (o Options) Validate() error {
	if o.Limit == nil && o.MaxWords < 1 && o.MaxSentences < 1 && o.MaxCharacters < 1 {
		return ErrNoLimit
	}
	if o.SentenceOverlap < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOverlap, o.SentenceOverlap)
	}
	return nil
}

// exceeds reports whether candidate breaks any configured limit.
func (o Options) exceeds(candidate Chunk) bool {
	if o.MaxSentences > 0 && candidate.Len() > o.MaxSentences {
		return true
	}
	if o.MaxCharacters > 0 && candidate.Characters() > o.MaxCharacters {
		return true
	}
	if o.MaxWords > 0 && candidate.Words() > o.MaxWords {
		return true
	}
	return o.Limit != nil && o.Limit(candidate)
}

// ChunkText segments text into sentences and groups them into chunks.
func ChunkText(text string, opts Options, segOpts sentence.Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return ChunkSentences(sentence.Segment(text, segOpts), opts)
}

// ChunkSentences groups sentences into chunks in a single left-to-right pass.
// A sentence that exceeds a limit on its own is skipped. Otherwise the chunk
// grows greedily until the next sentence would break a limit, and the next chunk
// starts SentenceOverlap sentences back, never repeating a whole chunk.
func ChunkSentences(sentences []sentence.Sentence, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var chunks []Chunk
	i := 0
	for i < len(sentences) {
		if opts.exceeds(Chunk{Sentences: sentences[i : i+1]}) {
			i++
			continue
		}

		end := i + 1
		for end < len(sentences) && !opts.exceeds(Chunk{Sentences: sentences[i : end+1]}) {
			end++
		}

		chunk := Chunk{Sentences: append([]sentence.Sentence(nil), sentences[i:end]...)}
		chunks = append(chunks, chunk)

		i = end
		if n := chunk.Len(); n > 1 && i < len(sentences) {
			i -= min(opts.SentenceOverlap, n-1)
		}
	}
	return chunks, nil
}

// RemoveOverlaps joins chunk texts in order and drops repeated sentences, undoing
// sentence overlap. The first occurrence of a sentence wins.
func RemoveOverlaps(texts []string) string {
	seen := make(map[string]struct{})
	var unique []string
	for _, s := range sentence.Segment(strings.Join(texts, " "), sentence.Options{}) {
		if _, ok := seen[s.Text]; ok {
			continue
		}
		seen[s.Text] = struct{}{}
		unique = append(unique, s.Text)
	}
	return strings.Join(unique, " ")
}

// Texts returns the text of each chunk.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}
	return texts
}
