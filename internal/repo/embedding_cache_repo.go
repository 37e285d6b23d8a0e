package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"

	"devcoach/internal/model"
)

const embeddingCacheTable = "embedding_cache"

type EmbeddingCacheRepo struct {
	db *sql.DB
}

func NewEmbeddingCacheRepo(db *sql.DB) *EmbeddingCacheRepo {
	return &EmbeddingCacheRepo{db: db}
}

// GetMany returns the cached vectors for the given hashes, keyed by hash.
// Hashes without an entry are absent from the result.
func (r *EmbeddingCacheRepo) GetMany(ctx context.Context, modelName string, contentHashes []string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(contentHashes))
	if len(contentHashes) == 0 {
		return out, nil
	}
	in := make([]interface{}, 0, len(contentHashes))
	for _, h := range contentHashes {
		in = append(in, h)
	}
	where := map[string]interface{}{
		"model_name":      modelName,
		"content_hash in": in,
	}
	sqlStr, args, err := builder.BuildSelect(embeddingCacheTable, where, []string{"content_hash", "embedding"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var hash, raw string
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("decode cached embedding %s: %w", hash, err)
		}
		out[hash] = vec
	}
	return out, rows.Err()
}

// Save inserts or replaces the entry for (model, hash).
func (r *EmbeddingCacheRepo) Save(ctx context.Context, items ...*model.EmbeddingCache) error {
	if len(items) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		data = append(data, map[string]interface{}{
			"model_name":   item.ModelName,
			"content_hash": item.ContentHash,
			"embedding":    string(raw),
			"ctime":        item.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildReplaceInsert(embeddingCacheTable, data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmbeddingCacheRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{
		"ctime <": cutoff,
	}
	sqlStr, args, err := builder.BuildDelete(embeddingCacheTable, where)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
