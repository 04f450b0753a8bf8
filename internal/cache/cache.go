// Package cache stores chunking results in Redis, keyed by the text and the
// options that produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ai8future/textprep/internal/chunker"
	"github.com/ai8future/textprep/internal/sentence"
)

// KeyPrefix namespaces every chunk cache key.
const KeyPrefix = "textprep:chunks:"

// DefaultTTL applies when the cache is created with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// ErrUncacheable is returned for options whose result can not be keyed, such as a
// custom limit function.
var ErrUncacheable = errors.New("chunk options are not cacheable")

// ChunkCache is a cache-aside store for chunk lists.
type ChunkCache struct {
	client *Client
	ttl    time.Duration
}

// NewChunkCache creates a chunk cache on client.
func NewChunkCache(client *Client, ttl time.Duration) *ChunkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ChunkCache{client: client, ttl: ttl}
}

// Key derives the cache key for chunking text with the given options. The
// lexicon fingerprint namespaces the key so segmenters built on different
// dictionaries never share entries.
func Key(lexicon, text string, opts chunker.Options, segOpts sentence.Options) (string, error) {
	if opts.Limit != nil {
		return "", ErrUncacheable
	}

	h := sha256.New()
	fmt.Fprintf(h, "w=%d;s=%d;c=%d;o=%d;off=%d;lb=%t;",
		opts.MaxWords, opts.MaxSentences, opts.MaxCharacters, opts.SentenceOverlap,
		segOpts.Offset, segOpts.SplitOnLineBreaks)
	h.Write([]byte(text))
	key := hex.EncodeToString(h.Sum(nil))
	if lexicon != "" {
		key = lexicon + ":" + key
	}
	return KeyPrefix + key, nil
}

// Get returns the cached chunks for key. The boolean is false on a cache miss.
func (c *ChunkCache) Get(ctx context.Context, key string) ([]chunker.Chunk, bool, error) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if IsNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read chunk cache: %w", err)
	}

	var chunks []chunker.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		slog.Warn("discarding corrupt chunk cache entry", "key", key, "error", err)
		_ = c.client.Del(ctx, key)
		return nil, false, nil
	}
	return chunks, true, nil
}

// Set stores chunks under key for the cache TTL.
func (c *ChunkCache) Set(ctx context.Context, key string, chunks []chunker.Chunk) error {
	if chunks == nil {
		chunks = []chunker.Chunk{}
	}
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("failed to write chunk cache: %w", err)
	}
	return nil
}

// Invalidate removes the entry for key.
func (c *ChunkCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key)
}

// Purge removes every chunk cache entry and returns how many were removed.
func (c *ChunkCache) Purge(ctx context.Context) (int, error) {
	keys, err := c.client.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to scan chunk cache: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.client.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to purge chunk cache: %w", err)
	}
	slog.Info("chunk cache purged", "keys", len(keys))
	return len(keys), nil
}
