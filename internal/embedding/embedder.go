// Package embedding holds the contract shared by all embedding providers.
// Providers wrap every failure in domain.ErrRetrievalUnavailable and never
// retry on their own; retry policy belongs to the caller.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devcoach/internal/domain"
)

// Unavailable tags err as a retrieval failure unless it already is one.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRetrievalUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
}

// Validate checks a provider response against its request: one non-empty
// vector per text, all of the same dimension.
func Validate(texts []string, vectors [][]float64) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: requested %d embeddings, got %d", domain.ErrRetrievalUnavailable, len(texts), len(vectors))
	}
	dim := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty embedding at position %d", domain.ErrRetrievalUnavailable, i)
		}
		if dim >= 0 && len(v) != dim {
			return fmt.Errorf("%w: embedding %d has dimension %d, expected %d", domain.ErrRetrievalUnavailable, i, len(v), dim)
		}
		dim = len(v)
	}
	return nil
}

// CheckRequest rejects an empty batch before any network call is made.
func CheckRequest(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts to embed", domain.ErrInvalidArgument)
	}
	return nil
}

// ToFloat64 widens a provider vector.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// WithTimeout bounds a single provider call. A zero timeout leaves ctx as is.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
