package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/domain"
	"devcoach/internal/embedding"
)

// store is the backing storage of a cached embedder. Lookups are batched so a
// whole indexing batch costs one round trip.
type store interface {
	kind() string
	getMany(ctx context.Context, modelName string, hashes []string) (map[string][]float64, error)
	putMany(ctx context.Context, modelName string, entries map[string][]float64) error
}

type cachedEmbedder struct {
	next  domain.Embedder
	store store
}

func (c *cachedEmbedder) Name() string { return c.next.Name() }

// Embed serves what it can from the store and forwards only the misses,
// deduplicated, to the wrapped embedder. Output order matches input order.
func (c *cachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return c.next.Embed(ctx, texts)
	}
	modelName := modelKey(c.next.Name())
	hashes := make([]string, len(texts))
	for i, t := range texts {
		hashes[i] = contentHash(modelName, t)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("cache", c.store.kind()), zap.String("model", modelName))

	hits, err := c.store.getMany(ctx, modelName, hashes)
	if err != nil {
		logger.Warn("embedding cache lookup failed", zap.Error(err))
		hits = nil
	}

	out := make([][]float64, len(texts))
	var missTexts []string
	missPos := make(map[string]int)
	for i, h := range hashes {
		if v, ok := hits[h]; ok {
			out[i] = cloneEmbedding(v)
			continue
		}
		if _, ok := missPos[h]; ok {
			continue
		}
		missPos[h] = len(missTexts)
		missTexts = append(missTexts, texts[i])
	}
	if len(missTexts) == 0 {
		logger.Debug("embedding cache hit", zap.Int("count", len(texts)))
		return out, nil
	}

	fresh, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := embedding.Validate(missTexts, fresh); err != nil {
		return nil, err
	}
	entries := make(map[string][]float64, len(missPos))
	for i, h := range hashes {
		if out[i] != nil {
			continue
		}
		v := fresh[missPos[h]]
		out[i] = cloneEmbedding(v)
		entries[h] = v
	}
	if err := c.store.putMany(ctx, modelName, entries); err != nil {
		logger.Warn("failed to cache embedding", zap.Error(err))
	}
	logger.Debug("embedding cache filled", zap.Int("hits", len(texts)-len(missTexts)), zap.Int("misses", len(missTexts)))
	return out, nil
}

func modelKey(modelName string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return "unknown"
	}
	return modelName
}

// contentHash keys an entry by model and text, so switching models never
// serves stale vectors.
func contentHash(modelName, text string) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func cloneEmbedding(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float64, len(values))
	copy(clone, values)
	return clone
}
