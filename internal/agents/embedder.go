package agents

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder turns text into a vector. Satisfied by the language model
// clients.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// MemoizingEmbedder caches embeddings by exact input text. Incident
// summaries and error types repeat heavily, so memoization cuts most
// embedding calls for a busy namespace.
type MemoizingEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewMemoizingEmbedder wraps an embedder with an LRU of the given size.
func NewMemoizingEmbedder(inner Embedder, size int) (*MemoizingEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &MemoizingEmbedder{inner: inner, cache: cache}, nil
}

// GenerateEmbedding returns the cached vector when the text was embedded
// before. Errors are never cached.
func (m *MemoizingEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if embedding, ok := m.cache.Get(text); ok {
		return embedding, nil
	}

	embedding, err := m.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Add(text, embedding)
	return embedding, nil
}
