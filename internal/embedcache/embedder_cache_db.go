package embedcache

import (
	"context"
	"time"

	"devcoach/internal/domain"
	"devcoach/internal/model"
	"devcoach/internal/repo"
)

// WrapDB persists embeddings in the sqlite cache so restarts do not pay for
// re-embedding an unchanged corpus.
func WrapDB(e domain.Embedder, cacheRepo *repo.EmbeddingCacheRepo) domain.Embedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &cachedEmbedder{next: e, store: &dbStore{repo: cacheRepo}}
}

type dbStore struct {
	repo *repo.EmbeddingCacheRepo
}

func (d *dbStore) kind() string { return "db" }

func (d *dbStore) getMany(ctx context.Context, modelName string, hashes []string) (map[string][]float64, error) {
	return d.repo.GetMany(ctx, modelName, hashes)
}

func (d *dbStore) putMany(ctx context.Context, modelName string, entries map[string][]float64) error {
	now := time.Now().Unix()
	items := make([]*model.EmbeddingCache, 0, len(entries))
	for h, v := range entries {
		items = append(items, &model.EmbeddingCache{
			ModelName:   modelName,
			ContentHash: h,
			Embedding:   v,
			Ctime:       now,
		})
	}
	return d.repo.Save(ctx, items...)
}
