package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/handler"
	"devcoach/internal/job"
	"devcoach/internal/schedule"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, true)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(ctx, a)
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("embedder", cfg.Embedder.Type),
		zap.String("llm", cfg.LLM.Type),
		zap.Strings("sources", cfg.Corpus.Sources),
	)

	a.startIndexing(ctx)

	if a.cacheRepo != nil {
		scheduler := schedule.NewCronScheduler()
		cleanup := job.NewEmbeddingCacheCleanupJob(a.cacheRepo, cfg.Cache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Cache.CleanupCron); err != nil {
			return fmt.Errorf("schedule cache cleanup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
		if next, ok := scheduler.Next(cleanup.Name()); ok {
			logger.Info("embedding cache cleanup scheduled", zap.Time("next", next))
		}
	}

	engine := handler.NewEngine(handler.RouterDeps{
		Chat:   handler.NewChatHandler(a.chat),
		Health: handler.NewHealthHandler(a.retriever),
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
