package repo

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"devcoach/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache", "devcoach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, ApplyMigrations(db))
	// migrations must be re-runnable
	require.NoError(t, ApplyMigrations(db))
	return db
}

func TestEmbeddingCacheRepo_SaveGetMany(t *testing.T) {
	ctx := context.Background()
	r := NewEmbeddingCacheRepo(openTestDB(t))

	empty, err := r.GetMany(ctx, "m", []string{"h1"})
	require.NoError(t, err)
	require.Empty(t, empty)

	require.NoError(t, r.Save(ctx,
		&model.EmbeddingCache{ModelName: "m", ContentHash: "h1", Embedding: []float64{0.5, -1}, Ctime: 100},
		&model.EmbeddingCache{ModelName: "m", ContentHash: "h2", Embedding: []float64{2, 3}, Ctime: 100},
		&model.EmbeddingCache{ModelName: "other", ContentHash: "h1", Embedding: []float64{9}, Ctime: 100},
	))

	many, err := r.GetMany(ctx, "m", []string{"h1", "h2", "h3"})
	require.NoError(t, err)
	require.Len(t, many, 2)
	require.Equal(t, []float64{0.5, -1}, many["h1"])
	require.Equal(t, []float64{2, 3}, many["h2"])

	// replace keeps one row per key
	require.NoError(t, r.Save(ctx, &model.EmbeddingCache{ModelName: "m", ContentHash: "h1", Embedding: []float64{1}, Ctime: 200}))
	many, err = r.GetMany(ctx, "m", []string{"h1"})
	require.NoError(t, err)
	require.Equal(t, []float64{1}, many["h1"])
}

func TestEmbeddingCacheRepo_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	r := NewEmbeddingCacheRepo(openTestDB(t))
	require.NoError(t, r.Save(ctx,
		&model.EmbeddingCache{ModelName: "m", ContentHash: "old", Embedding: []float64{1}, Ctime: 10},
		&model.EmbeddingCache{ModelName: "m", ContentHash: "new", Embedding: []float64{1}, Ctime: 50},
	))
	n, err := r.DeleteBefore(ctx, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	many, err := r.GetMany(ctx, "m", []string{"old", "new"})
	require.NoError(t, err)
	require.Len(t, many, 1)
	require.Contains(t, many, "new")
}
