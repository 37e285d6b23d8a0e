package job

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devcoach/internal/model"
	"devcoach/internal/repo"
)

func TestEmbeddingCacheCleanupJob_Run(t *testing.T) {
	ctx := context.Background()
	db, err := repo.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.ApplyMigrations(db))
	cacheRepo := repo.NewEmbeddingCacheRepo(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, cacheRepo.Save(ctx,
		&model.EmbeddingCache{ModelName: "m", ContentHash: "old", Embedding: []float64{1}, Ctime: now.AddDate(0, 0, -11).Unix()},
		&model.EmbeddingCache{ModelName: "m", ContentHash: "fresh", Embedding: []float64{1}, Ctime: now.AddDate(0, 0, -9).Unix()},
	))

	j := NewEmbeddingCacheCleanupJob(cacheRepo, 10)
	j.now = func() time.Time { return now }
	require.Equal(t, "embedding_cache_cleanup", j.Name())
	require.NoError(t, j.Run(ctx))

	left, err := cacheRepo.GetMany(ctx, "m", []string{"old", "fresh"})
	require.NoError(t, err)
	require.NotContains(t, left, "old")
	require.Contains(t, left, "fresh")
}

func TestEmbeddingCacheCleanupJob_Defaults(t *testing.T) {
	j := NewEmbeddingCacheCleanupJob(nil, 0)
	require.Equal(t, defaultMaxAgeDays, j.maxAgeDays)
	require.NoError(t, j.Run(context.Background()))
}
