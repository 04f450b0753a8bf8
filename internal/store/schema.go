package store

import "fmt"

// Schema returns the DDL for the tables used by a repository with the given prefix.
func Schema(prefix string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s_documents (
	id          UUID PRIMARY KEY,
	source      TEXT NOT NULL DEFAULT '',
	characters  INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS %[1]s_chunks (
	document_id    UUID NOT NULL REFERENCES %[1]s_documents(id) ON DELETE CASCADE,
	chunk_id       INTEGER NOT NULL,
	text           TEXT NOT NULL,
	span_start     INTEGER NOT NULL,
	span_end       INTEGER NOT NULL,
	sentence_count INTEGER NOT NULL,
	word_count     INTEGER NOT NULL,
	PRIMARY KEY (document_id, chunk_id)
);
`, prefix)
}
