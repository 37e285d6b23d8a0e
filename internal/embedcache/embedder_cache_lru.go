package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"devcoach/internal/domain"
)

// WrapLRU puts an in-memory expiring LRU in front of e. A non-positive size
// or ttl disables the cache.
func WrapLRU(e domain.Embedder, size int, ttl time.Duration) domain.Embedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &cachedEmbedder{
		next:  e,
		store: &lruStore{cache: expirable.NewLRU[string, []float64](size, nil, ttl)},
	}
}

type lruStore struct {
	cache *expirable.LRU[string, []float64]
}

func (l *lruStore) kind() string { return "lru" }

func (l *lruStore) getMany(_ context.Context, modelName string, hashes []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(hashes))
	for _, h := range hashes {
		if v, ok := l.cache.Get(lruKey(modelName, h)); ok {
			out[h] = v
		}
	}
	return out, nil
}

func (l *lruStore) putMany(_ context.Context, modelName string, entries map[string][]float64) error {
	for h, v := range entries {
		l.cache.Add(lruKey(modelName, h), cloneEmbedding(v))
	}
	return nil
}

func lruKey(modelName, hash string) string {
	return "embed:" + modelName + ":" + hash
}
