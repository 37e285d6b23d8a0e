// Package indexer builds the retrieval index once, at startup.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"devcoach/internal/domain"
	"devcoach/internal/embedding"
	"devcoach/internal/vectorstore"
	"devcoach/internal/vectorstore/memory"
)

const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
)

// DocumentLoader reads the corpus. *loader.Loader implements it.
type DocumentLoader interface {
	Load(ctx context.Context, sources []string) ([]domain.Document, error)
}

type Config struct {
	BatchSize   int
	Concurrency int
}

type Indexer struct {
	loader   DocumentLoader
	chunker  domain.Chunker
	embedder domain.Embedder
	cfg      Config
}

func New(loader DocumentLoader, chunker domain.Chunker, embedder domain.Embedder, cfg Config) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Indexer{loader: loader, chunker: chunker, embedder: embedder, cfg: cfg}
}

// Build loads, chunks and embeds the corpus and returns the finished index.
// Nothing is returned unless every step succeeded.
func (ix *Indexer) Build(ctx context.Context, sources []string) (vectorstore.Index, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("embedder", ix.embedder.Name()))
	start := time.Now()

	documents, err := ix.loader.Load(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	var chunks []domain.Chunk
	for _, d := range documents {
		cs, err := ix.chunker.Chunk(d)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	logger.Info("corpus chunked", zap.Int("documents", len(documents)), zap.Int("chunks", len(chunks)))

	var vectors [][]float64
	if len(texts) > 0 {
		if p, ok := ix.embedder.(domain.Preparer); ok {
			if err := p.Prepare(texts); err != nil {
				return nil, fmt.Errorf("prepare embedder: %w", err)
			}
		}
		vectors, err = ix.embedAll(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
	}

	idx, err := memory.NewIndex(chunks, vectors, ix.embedder.Name())
	if err != nil {
		return nil, embedding.Unavailable(fmt.Errorf("build index: %w", err))
	}
	logger.Info("index built",
		zap.Int("chunks", idx.Len()),
		zap.Int("dimension", idx.Dimension()),
		zap.Duration("duration", time.Since(start)),
	)
	return idx, nil
}

// embedAll embeds texts in batches with bounded parallelism. Each batch
// writes only its own slots, so output order equals input order.
func (ix *Indexer) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Concurrency)
	for lo := 0; lo < len(texts); lo += ix.cfg.BatchSize {
		hi := min(lo+ix.cfg.BatchSize, len(texts))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch := texts[lo:hi]
			out, err := ix.embedder.Embed(gctx, batch)
			if err != nil {
				return err
			}
			if err := embedding.Validate(batch, out); err != nil {
				return err
			}
			copy(vectors[lo:hi], out)
			logutil.GetLogger(gctx).Debug("batch embedded", zap.Int("from", lo), zap.Int("to", hi))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
