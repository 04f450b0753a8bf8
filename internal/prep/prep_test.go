package prep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/ai8future/textprep/internal/cache"
	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/detect"
	"github.com/ai8future/textprep/internal/lexicon"
	"github.com/ai8future/textprep/internal/sentence"
	"github.com/ai8future/textprep/internal/store"
	"github.com/ai8future/textprep/internal/validation"
)

type fakeStore struct {
	mu        sync.Mutex
	documents map[uuid.UUID]*store.Document
	chunks    map[uuid.UUID][]store.ChunkRecord
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents: make(map[uuid.UUID]*store.Document),
		chunks:    make(map[uuid.UUID][]store.ChunkRecord),
	}
}

func (f *fakeStore) SaveDocument(_ context.Context, doc *store.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.documents[doc.ID] = doc
	return nil
}

func (f *fakeStore) SaveChunks(_ context.Context, docID uuid.UUID, records []store.ChunkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.documents[docID]; !ok {
		return store.ErrDocumentNotFound
	}
	f.chunks[docID] = records
	return nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]chunker.Chunk, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []chunker.Chunk) error {
	return errors.New("connection refused")
}

func newRedisCache(t *testing.T) *cache.ChunkCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.NewClient(context.Background(), cache.Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewChunkCache(client, time.Hour)
}

const paragraph = "She is now a doctor. She just graduated! Hello Dr. Susan! Have you read about the new A.B.C. research?"

func sentenceOptions() Options {
	opts := DefaultOptions()
	opts.Chunking = chunker.Options{MaxSentences: 2, SentenceOverlap: 1}
	return opts
}

func TestPrepare(t *testing.T) {
	svc := NewService()
	result, err := svc.Prepare(context.Background(), Document{Source: "doc.txt", Text: paragraph}, sentenceOptions())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	if result.DocumentID == uuid.Nil {
		t.Error("expected a generated document ID")
	}
	if result.Source != "doc.txt" {
		t.Errorf("Source = %q", result.Source)
	}
	if len(result.Sentences) != 4 {
		t.Fatalf("got %d sentences, want 4", len(result.Sentences))
	}
	want := []string{
		"She is now a doctor. She just graduated!",
		"She just graduated! Hello Dr. Susan!",
		"Hello Dr. Susan! Have you read about the new A.B.C. research?",
	}
	got := chunker.Texts(result.Chunks)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("chunks = %q, want %q", got, want)
	}
	if result.CacheHit || result.Persisted {
		t.Errorf("CacheHit = %v, Persisted = %v", result.CacheHit, result.Persisted)
	}
}

func TestPrepare_KeepsDocumentID(t *testing.T) {
	id := uuid.New()
	result, err := NewService().Prepare(context.Background(), Document{ID: id, Text: "One. Two."}, DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if result.DocumentID != id {
		t.Errorf("DocumentID = %s, want %s", result.DocumentID, id)
	}
}

func TestPrepare_InvalidOptions(t *testing.T) {
	_, err := NewService().Prepare(context.Background(), Document{Text: "One."}, Options{})
	if !errors.Is(err, chunker.ErrNoLimit) {
		t.Errorf("error = %v, want ErrNoLimit", err)
	}
}

func TestPrepare_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService().Prepare(ctx, Document{Text: "One."}, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPrepare_StripHTMLAndNormalize(t *testing.T) {
	opts := sentenceOptions()
	opts.StripHTML = true
	opts.Normalize = true

	html := "<html><head><style>p { color: red; }</style></head><body><p>First   sentence.</p> <p>Second \u201cquoted\u201d one.</p></body></html>"
	result, err := NewService().Prepare(context.Background(), Document{Text: html}, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if strings.Contains(result.Text, "color") || strings.Contains(result.Text, "<p>") {
		t.Errorf("markup left in text: %q", result.Text)
	}
	if strings.Contains(result.Text, "  ") {
		t.Errorf("whitespace not normalised: %q", result.Text)
	}
	for _, s := range result.Sentences {
		if result.Text[s.Start():s.End()] != s.Text {
			t.Errorf("sentence %q does not index into result text", s.Text)
		}
	}
}

func TestPrepare_CacheAside(t *testing.T) {
	svc := NewService(WithCache(newRedisCache(t)))
	doc := Document{Text: paragraph}

	first, err := svc.Prepare(context.Background(), doc, sentenceOptions())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss the cache")
	}

	second, err := svc.Prepare(context.Background(), doc, sentenceOptions())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit the cache")
	}
	if len(first.Chunks) != len(second.Chunks) {
		t.Fatalf("got %d cached chunks, want %d", len(second.Chunks), len(first.Chunks))
	}
	for i := range first.Chunks {
		if !first.Chunks[i].Equal(second.Chunks[i]) {
			t.Errorf("chunk %d differs after cache round trip", i)
		}
	}
}

func TestPrepare_CacheSeparatesLexicons(t *testing.T) {
	shared := newRedisCache(t)
	custom := sentence.New(detect.New(lexicon.New(fstest.MapFS{
		lexicon.AbbreviationsFile: {Data: []byte(`{"Zorb.": "Zorbulon"}`)},
	})))

	opts := DefaultOptions()
	opts.Chunking = chunker.Options{MaxSentences: 1}
	doc := Document{Text: "Ask Zorb. Tomorrow he leaves."}

	plain, err := NewService(WithCache(shared)).Prepare(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if len(plain.Chunks) != 2 {
		t.Fatalf("default lexicon gave %d chunks, want 2", len(plain.Chunks))
	}

	withZorb, err := NewService(WithCache(shared), WithSegmenter(custom)).Prepare(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if withZorb.CacheHit {
		t.Error("a different lexicon must not reuse cached chunks")
	}
	if len(withZorb.Chunks) != 1 {
		t.Errorf("custom lexicon gave %d chunks, want 1", len(withZorb.Chunks))
	}
}

func TestPrepare_CustomLimitBypassesCache(t *testing.T) {
	svc := NewService(WithCache(newRedisCache(t)))
	opts := DefaultOptions()
	opts.Chunking = chunker.Options{Limit: func(c chunker.Chunk) bool { return c.Len() > 1 }}

	for range 2 {
		result, err := svc.Prepare(context.Background(), Document{Text: paragraph}, opts)
		if err != nil {
			t.Fatalf("Prepare() error: %v", err)
		}
		if result.CacheHit {
			t.Error("custom limits must not be served from cache")
		}
	}
}

func TestPrepare_CacheFailureIsNotFatal(t *testing.T) {
	svc := NewService(WithCache(brokenCache{}))
	result, err := svc.Prepare(context.Background(), Document{Text: paragraph}, sentenceOptions())
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if len(result.Chunks) == 0 {
		t.Error("expected chunks despite cache failure")
	}
}

func TestPrepare_Persist(t *testing.T) {
	st := newFakeStore()
	svc := NewService(WithStore(st))
	opts := sentenceOptions()
	opts.Persist = true

	result, err := svc.Prepare(context.Background(), Document{Source: "a.txt", Text: paragraph}, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if !result.Persisted {
		t.Error("expected Persisted")
	}

	doc, ok := st.documents[result.DocumentID]
	if !ok {
		t.Fatal("document not saved")
	}
	if doc.Source != "a.txt" || doc.ChunkCount != len(result.Chunks) {
		t.Errorf("saved document = %+v", doc)
	}
	records := st.chunks[result.DocumentID]
	if fmt.Sprint(store.ChunkTexts(records)) != fmt.Sprint(chunker.Texts(result.Chunks)) {
		t.Errorf("saved chunks = %q", store.ChunkTexts(records))
	}
}

func TestPrepare_PersistWithoutStore(t *testing.T) {
	opts := DefaultOptions()
	opts.Persist = true
	result, err := NewService().Prepare(context.Background(), Document{Text: "One. Two."}, opts)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if result.Persisted {
		t.Error("nothing to persist to")
	}
}

func TestPrepare_PersistError(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("disk full")
	opts := DefaultOptions()
	opts.Persist = true

	_, err := NewService(WithStore(st)).Prepare(context.Background(), Document{Text: "One. Two."}, opts)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

func TestPrepareAll_KeepsOrder(t *testing.T) {
	docs := make([]Document, 20)
	for i := range docs {
		docs[i] = Document{
			Source: fmt.Sprintf("doc-%02d", i),
			Text:   fmt.Sprintf("Document number %d. It has two sentences.", i),
		}
	}

	results, err := NewService().PrepareAll(context.Background(), docs, DefaultOptions(), 3)
	if err != nil {
		t.Fatalf("PrepareAll() error: %v", err)
	}
	if len(results) != len(docs) {
		t.Fatalf("got %d results, want %d", len(results), len(docs))
	}
	for i, r := range results {
		if r.Source != docs[i].Source {
			t.Errorf("results[%d].Source = %q, want %q", i, r.Source, docs[i].Source)
		}
		if len(r.Sentences) != 2 {
			t.Errorf("results[%d] has %d sentences, want 2", i, len(r.Sentences))
		}
	}
}

func TestPrepareAll_Error(t *testing.T) {
	docs := []Document{{Source: "a", Text: "One."}, {Source: "b", Text: "Two."}}
	_, err := NewService().PrepareAll(context.Background(), docs, Options{}, 0)
	if !errors.Is(err, chunker.ErrNoLimit) {
		t.Errorf("error = %v, want ErrNoLimit", err)
	}
}

func TestPrepareAll_Empty(t *testing.T) {
	results, err := NewService().PrepareAll(context.Background(), nil, DefaultOptions(), 2)
	if err != nil {
		t.Fatalf("PrepareAll() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestPrepare_InvalidUTF8(t *testing.T) {
	_, err := NewService().Prepare(context.Background(), Document{Text: "Bad \xff byte."}, DefaultOptions())
	if !errors.Is(err, validation.ErrInvalidUTF8) {
		t.Errorf("error = %v, want ErrInvalidUTF8", err)
	}

	opts := DefaultOptions()
	opts.Normalize = true
	result, err := NewService().Prepare(context.Background(), Document{Text: "Bad \xff byte."}, opts)
	if err != nil {
		t.Fatalf("normalised Prepare() error: %v", err)
	}
	if result.Text != "Bad byte." {
		t.Errorf("Text = %q, want ill-formed byte dropped", result.Text)
	}
}
