// Package prep turns raw documents into sentences and chunks, with optional
// caching and persistence.
package prep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ai8future/textprep/internal/cache"
	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/store"
	"github.com/ai8future/textprep/internal/textproc"
	"github.com/ai8future/textprep/internal/validation"
)

// DefaultWorkers bounds PrepareAll when no worker count is given.
const DefaultWorkers = 4

// ChunkCache is the subset of cache.ChunkCache used by the service.
type ChunkCache interface {
	Get(ctx context.Context, key string) ([]chunker.Chunk, bool, error)
	Set(ctx context.Context, key string, chunks []chunker.Chunk) error
}

// ChunkStore is the subset of store.Repository used by the service.
type ChunkStore interface {
	SaveDocument(ctx context.Context, doc *store.Document) error
	SaveChunks(ctx context.Context, docID uuid.UUID, records []store.ChunkRecord) error
}

// Document is a source text to prepare.
type Document struct {
	ID     uuid.UUID
	Source string
	Text   string
}

// Options controls one preparation run.
type Options struct {
	Chunking     chunker.Options
	Segmentation sentence.Options

	// StripHTML converts HTML input to text before segmentation.
	StripHTML bool

	// Normalize cleans characters and whitespace before segmentation.
	Normalize bool

	// Persist writes the document and its chunks to the store, if one is set.
	Persist bool
}

// DefaultOptions returns options with the default chunk limits.
func DefaultOptions() Options {
	return Options{Chunking: chunker.DefaultOptions()}
}

// Result is a prepared document. Offsets refer to Text, which differs from
// the input when HTML stripping or normalisation ran.
type Result struct {
	DocumentID uuid.UUID           `json:"document_id"`
	Source     string              `json:"source"`
	Text       string              `json:"text"`
	Sentences  []sentence.Sentence `json:"sentences"`
	Chunks     []chunker.Chunk     `json:"chunks"`
	CacheHit   bool                `json:"cache_hit"`
	Persisted  bool                `json:"persisted"`
}

// Service prepares documents.
type Service struct {
	segmenter *sentence.Segmenter
	cache     ChunkCache
	store     ChunkStore
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables cache-aside chunking.
func WithCache(c ChunkCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithStore enables persistence for runs with Options.Persist set.
func WithStore(st ChunkStore) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithSegmenter replaces the default segmenter.
func WithSegmenter(seg *sentence.Segmenter) Option {
	return func(s *Service) {
		s.segmenter = seg
	}
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{segmenter: sentence.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Prepare cleans, segments and chunks one document.
func (s *Service) Prepare(ctx context.Context, doc Document, opts Options) (*Result, error) {
	if err := opts.Chunking.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	text := doc.Text
	if opts.StripHTML {
		stripped, err := textproc.StripHTML(text)
		if err != nil {
			return nil, fmt.Errorf("failed to strip html from %q: %w", doc.Source, err)
		}
		text = stripped
	}
	if opts.Normalize {
		text = textproc.NormalizeWhitespaces(textproc.NormalizeChars(text))
	}
	if err := validation.ValidateDocument(doc.Source, text); err != nil {
		return nil, err
	}

	sentences := s.segmenter.Segment(text, opts.Segmentation)
	chunks, hit, err := s.chunk(ctx, text, sentences, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID: doc.ID,
		Source:     doc.Source,
		Text:       text,
		Sentences:  sentences,
		Chunks:     chunks,
		CacheHit:   hit,
	}

	if opts.Persist && s.store != nil {
		if err := s.persist(ctx, doc, text, chunks); err != nil {
			return nil, err
		}
		result.Persisted = true
	}

	slog.Debug("document prepared",
		"document_id", doc.ID,
		"source", doc.Source,
		"sentences", len(sentences),
		"chunks", len(chunks),
		"cache_hit", hit,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// chunk groups sentences, reading through the cache when one is configured.
// Cache failures are logged and never fail the run.
func (s *Service) chunk(ctx context.Context, text string, sentences []sentence.Sentence, opts Options) ([]chunker.Chunk, bool, error) {
	var key string
	if s.cache != nil {
		k, err := cache.Key(s.segmenter.Fingerprint(), text, opts.Chunking, opts.Segmentation)
		switch {
		case errors.Is(err, cache.ErrUncacheable):
		case err != nil:
			slog.Warn("chunk cache key failed", "error", err)
		default:
			key = k
		}
	}

	if key != "" {
		chunks, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("chunk cache read failed", "key", key, "error", err)
		} else if ok {
			return chunks, true, nil
		}
	}

	chunks, err := chunker.ChunkSentences(sentences, opts.Chunking)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, chunks); err != nil {
			slog.Warn("chunk cache write failed", "key", key, "error", err)
		}
	}
	return chunks, false, nil
}

func (s *Service) persist(ctx context.Context, doc Document, text string, chunks []chunker.Chunk) error {
	record := &store.Document{
		ID:         doc.ID,
		Source:     doc.Source,
		Characters: len([]rune(text)),
		ChunkCount: len(chunks),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, record); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}
	if err := s.store.SaveChunks(ctx, doc.ID, store.RecordsFromChunks(doc.ID, chunks)); err != nil {
		return fmt.Errorf("failed to save chunks for %s: %w", doc.ID, err)
	}
	return nil
}

// PrepareAll prepares docs concurrently with at most workers in flight.
// Results keep the order of docs. The first error cancels the remaining work.
func (s *Service) PrepareAll(ctx context.Context, docs []Document, opts Options, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}

	results := make([]*Result, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			result, err := s.Prepare(ctx, doc, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Source, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
