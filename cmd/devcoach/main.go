package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "devcoach",
		Short:         "toddler development coach backed by document retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/devcoach/config.yaml)")

	rootCmd.AddCommand(
		newServeCmd(&configPath),
		newConsoleCmd(&configPath),
		newQueryCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "devcoach:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then the YAML config, and initialises logging.
func loadConfig(configPath string, console bool) (*config.AppConfig, error) {
	_ = godotenv.Load()

	var (
		cfg  *config.AppConfig
		path = configPath
		err  error
	)
	if configPath == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	logger.Init(
		cfg.Log.File,
		cfg.Log.Level,
		cfg.Log.FileCount,
		cfg.Log.FileSize,
		cfg.Log.KeepDays,
		cfg.Log.Console && console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}
