package vectorstore

import (
	"context"

	"devcoach/internal/domain"
)

// Index is the read-only pairing of chunk i with vector i. Implementations
// are immutable after construction and safe for concurrent Search calls.
type Index interface {
	Len() int
	Dimension() int
	// Model names the embedder that produced every vector in the index.
	Model() string
	// Search returns the min(k, Len()) chunks most similar to query, by
	// descending score and ascending chunk position on ties.
	Search(ctx context.Context, query []float64, k int) ([]domain.SearchResult, error)
}
