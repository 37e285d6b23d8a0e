package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/chunker"
	"devcoach/internal/config"
	"devcoach/internal/domain"
	"devcoach/internal/embedcache"
	"devcoach/internal/embedding/gemini"
	"devcoach/internal/embedding/openai"
	"devcoach/internal/embedding/tfidf"
	"devcoach/internal/indexer"
	"devcoach/internal/llm"
	openaichat "devcoach/internal/llm/openai"
	"devcoach/internal/loader"
	"devcoach/internal/repo"
	"devcoach/internal/retriever"
	"devcoach/internal/service"
	"devcoach/internal/summarizer"
	"devcoach/internal/vectorstore"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.AppConfig
	retriever *retriever.Retriever
	chat      *service.ChatService
	indexer   *indexer.Indexer
	db        *sql.DB
	cacheRepo *repo.EmbeddingCacheRepo
}

func newApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	a := &app{cfg: cfg}

	emb, err := a.newEmbedder(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	ch, err := chunker.NewCharacterChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	if err != nil {
		a.Close()
		return nil, err
	}
	logutil.GetLogger(ctx).Info("retrieval pipeline configured",
		zap.String("embedder", emb.Name()),
		zap.Int("chunk_size", ch.Size()),
		zap.Int("chunk_overlap", ch.Overlap()),
	)

	var opts []loader.Option
	if cfg.Corpus.S3 != nil {
		client, err := loader.NewS3Client(ctx, loader.S3Config{
			Endpoint:  cfg.Corpus.S3.Endpoint,
			Region:    cfg.Corpus.S3.Region,
			SecretID:  cfg.Corpus.S3.SecretID,
			SecretKey: cfg.Corpus.S3.SecretKey,
			UseSSL:    cfg.Corpus.S3.UseSSL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init s3 client: %w", err)
		}
		opts = append(opts, loader.WithObjectGetter(client))
	}

	a.indexer = indexer.New(loader.New(opts...), ch, emb, indexer.Config{
		BatchSize:   cfg.Embedder.BatchSize,
		Concurrency: cfg.Embedder.Concurrency,
	})
	a.retriever = retriever.New(emb)

	completer, err := newCompleter(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.chat = service.NewChatService(a.retriever, completer, service.Options{
		TopK:             cfg.Retrieval.TopK,
		RequireGrounding: cfg.Chat.RequireGrounding,
	})
	return a, nil
}

// newEmbedder builds the configured provider. Remote providers sit behind
// the sqlite and LRU caches; tfidf vectors depend on the corpus and are
// never cached.
func (a *app) newEmbedder(ctx context.Context) (domain.Embedder, error) {
	cfg := a.cfg
	timeout := time.Duration(cfg.Embedder.TimeoutSecs) * time.Second

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv:  cfg.Embedder.OpenAI.APIKeyEnv,
			Model:      cfg.Embedder.OpenAI.Model,
			Dimensions: cfg.Embedder.OpenAI.Dimensions,
			Timeout:    timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "gemini":
		client, err := gemini.NewEmbedder(ctx, gemini.Config{
			APIKeyEnv:  cfg.Embedder.Gemini.APIKeyEnv,
			Model:      cfg.Embedder.Gemini.Model,
			TaskType:   cfg.Embedder.Gemini.TaskType,
			Dimensions: cfg.Embedder.Gemini.Dimensions,
			Timeout:    timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder init failed: %w", err)
		}
		emb = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	if cfg.Cache.SQLitePath != "" {
		db, err := repo.Open(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		a.db = db
		if err := repo.ApplyMigrations(db); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.cacheRepo = repo.NewEmbeddingCacheRepo(db)
		emb = embedcache.WrapDB(emb, a.cacheRepo)
	}
	return embedcache.WrapLRU(emb, cfg.Cache.LRUSize, time.Duration(cfg.Cache.LRUTTLSecs)*time.Second), nil
}

func newCompleter(cfg *config.AppConfig) (llm.Completer, error) {
	switch cfg.LLM.Type {
	case "extractive":
		return llm.NewExtractive(summarizer.NewFrequencySummarizer(), cfg.LLM.Extractive.MaxSentences), nil
	case "openai":
		chat, err := openaichat.NewChat(openaichat.Config{
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			APIKeyEnv:   cfg.LLM.OpenAI.APIKeyEnv,
			Model:       cfg.LLM.OpenAI.Model,
			Temperature: cfg.LLM.OpenAI.Temperature,
			MaxTokens:   cfg.LLM.OpenAI.MaxTokens,
			Timeout:     time.Duration(cfg.LLM.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat init failed: %w", err)
		}
		return chat, nil
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

func (a *app) build(ctx context.Context) (vectorstore.Index, error) {
	return a.indexer.Build(ctx, a.cfg.Corpus.Sources)
}

// startIndexing builds the index in the background. Queries arriving before
// it finishes get ErrNotReady.
func (a *app) startIndexing(ctx context.Context) {
	go func() {
		if err := a.retriever.Run(ctx, a.build); err != nil {
			logutil.GetLogger(ctx).Error("index unavailable", zap.Error(err))
		}
	}()
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
