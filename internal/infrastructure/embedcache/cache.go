// Package embedcache keeps recent query embeddings in memory.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kirillkom/medref-rag/internal/core/ports"
)

const DefaultSize = 1024

// Embedder caches EmbedQuery results keyed by model and exact text. Bulk
// Embed calls are passed through untouched.
type Embedder struct {
	inner  ports.Embedder
	model  string
	cache  *lru.Cache[string, []float32]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func New(inner ports.Embedder, model string, size int) (*Embedder, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Embedder{inner: inner, model: model, cache: cache}, nil
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if vec, ok := e.cache.Get(key); ok {
		e.hits.Add(1)
		return vec, nil
	}
	e.misses.Add(1)

	vec, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.inner.Embed(ctx, texts)
}

func (e *Embedder) Stats() (hits, misses uint64) {
	return e.hits.Load(), e.misses.Load()
}
