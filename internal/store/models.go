package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/ai8future/textprep/internal/chunker"
)

// Document is a prepared source text.
type Document struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	Characters int       `json:"characters"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocument creates a document record with a fresh ID.
func NewDocument(source string) *Document {
	return &Document{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// ChunkRecord is one stored chunk. ChunkID is the chunk's position in its document.
type ChunkRecord struct {
	DocumentID    uuid.UUID `json:"document_id"`
	ChunkID       int       `json:"chunk_id"`
	Text          string    `json:"text"`
	SpanStart     int       `json:"span_start"`
	SpanEnd       int       `json:"span_end"`
	SentenceCount int       `json:"sentence_count"`
	WordCount     int       `json:"word_count"`
}

// RecordsFromChunks numbers chunks in order for storage under docID.
func RecordsFromChunks(docID uuid.UUID, chunks []chunker.Chunk) []ChunkRecord {
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		records[i] = ChunkRecord{
			DocumentID:    docID,
			ChunkID:       i,
			Text:          c.Text(),
			SpanStart:     c.Start(),
			SpanEnd:       c.End(),
			SentenceCount: c.Len(),
			WordCount:     c.Words(),
		}
	}
	return records
}

// ChunkTexts returns the text of each record, in order.
func ChunkTexts(records []ChunkRecord) []string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return texts
}
