package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultTablePrefix names the tables when no prefix is configured.
const DefaultTablePrefix = "textprep"

var (
	// ErrDocumentNotFound is returned when a document ID has no stored row.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidTablePrefix is returned for a prefix that is not a plain SQL identifier.
	ErrInvalidTablePrefix = errors.New("invalid table prefix: must match [a-z][a-z0-9_]*")
)

var tablePrefixPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Repository provides data access for documents and their chunks.
type Repository struct {
	client      *Client
	tablePrefix string
}

// NewRepository creates a repository whose tables are named "<prefix>_documents"
// and "<prefix>_chunks". An empty prefix selects DefaultTablePrefix.
func NewRepository(client *Client, prefix string) (*Repository, error) {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if !tablePrefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTablePrefix, prefix)
	}
	return &Repository{client: client, tablePrefix: prefix}, nil
}

func (r *Repository) documentsTable() string {
	return r.tablePrefix + "_documents"
}

func (r *Repository) chunksTable() string {
	return r.tablePrefix + "_chunks"
}

// Migrate creates the repository tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	query := Schema(r.tablePrefix)
	r.client.logQuery(query)

	if _, err := r.client.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("database schema ready", "prefix", r.tablePrefix)
	return nil
}

// SaveDocument inserts or updates a document.
func (r *Repository) SaveDocument(ctx context.Context, doc *Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, source, characters, chunk_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET source = EXCLUDED.source, characters = EXCLUDED.characters, chunk_count = EXCLUDED.chunk_count
	`, r.documentsTable())
	r.client.logQuery(query, doc.ID, doc.Source)

	_, err := r.client.pool.Exec(ctx, query, doc.ID, doc.Source, doc.Characters, doc.ChunkCount, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	query := fmt.Sprintf(`
		SELECT id, source, characters, chunk_count, created_at
		FROM %s
		WHERE id = $1
	`, r.documentsTable())
	r.client.logQuery(query, id)

	var doc Document
	err := r.client.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Source,
		&doc.Characters,
		&doc.ChunkCount,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// SaveChunks replaces the stored chunks of a document in one transaction.
func (r *Repository) SaveChunks(ctx context.Context, docID uuid.UUID, records []ChunkRecord) error {
	tx, err := r.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", r.chunksTable())
	r.client.logQuery(deleteQuery, docID)
	if _, err := tx.Exec(ctx, deleteQuery, docID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (document_id, chunk_id, text, span_start, span_end, sentence_count, word_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.chunksTable())
	r.client.logQuery(insertQuery, docID, len(records))

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertQuery, docID, rec.ChunkID, rec.Text, rec.SpanStart, rec.SpanEnd, rec.SentenceCount, rec.WordCount)
	}
	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	countQuery := fmt.Sprintf("UPDATE %s SET chunk_count = $2 WHERE id = $1", r.documentsTable())
	tag, err := tx.Exec(ctx, countQuery, docID, len(records))
	if err != nil {
		return fmt.Errorf("failed to update chunk count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	slog.Debug("chunks saved", "document_id", docID, "chunks", len(records))
	return nil
}

// ListChunks returns a document's chunks ordered by chunk ID.
func (r *Repository) ListChunks(ctx context.Context, docID uuid.UUID) ([]ChunkRecord, error) {
	query := fmt.Sprintf(`
		SELECT document_id, chunk_id, text, span_start, span_end, sentence_count, word_count
		FROM %s
		WHERE document_id = $1
		ORDER BY chunk_id ASC
	`, r.chunksTable())
	r.client.logQuery(query, docID)

	rows, err := r.client.pool.Query(ctx, query, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var records []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(
			&rec.DocumentID,
			&rec.ChunkID,
			&rec.Text,
			&rec.SpanStart,
			&rec.SpanEnd,
			&rec.SentenceCount,
			&rec.WordCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return records, nil
}

// DeleteDocument removes a document and, through the foreign key, its chunks.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.documentsTable())
	r.client.logQuery(query, id)

	tag, err := r.client.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return nil
}
