package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"devcoach/internal/domain"
)

const appName = "devcoach"

// LogConfig mirrors the arguments of the zap file logger.
type LogConfig struct {
	File      string `yaml:"file"`
	Level     string `yaml:"level"`
	FileCount int    `yaml:"file_count"`
	FileSize  int    `yaml:"file_size"`
	KeepDays  int    `yaml:"keep_days"`
	Console   bool   `yaml:"console"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// S3Config enables s3://bucket/key corpus sources.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CorpusConfig lists the documents indexed at startup. Sources are file
// paths, glob patterns or s3:// URLs.
type CorpusConfig struct {
	Sources []string  `yaml:"sources"`
	S3      *S3Config `yaml:"s3,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type GeminiEmbedderConfig struct {
	APIKeyEnv  string `yaml:"api_key_env"`
	Model      string `yaml:"model"`
	TaskType   string `yaml:"task_type"`
	Dimensions int    `yaml:"dimensions"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type        string                `yaml:"type"`
	BatchSize   int                   `yaml:"batch_size"`
	Concurrency int                   `yaml:"concurrency"`
	TimeoutSecs int                   `yaml:"timeout_secs"`
	OpenAI      *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Gemini      *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
}

// CacheConfig configures the embedding caches. A zero lru_size disables the
// in-memory cache and an empty sqlite_path the persistent one.
type CacheConfig struct {
	LRUSize     int    `yaml:"lru_size"`
	LRUTTLSecs  int    `yaml:"lru_ttl_secs"`
	SQLitePath  string `yaml:"sqlite_path"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	CleanupCron string `yaml:"cleanup_cron"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type OpenAIChatConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type ExtractiveConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LLMConfig selects the completer that writes chat answers.
type LLMConfig struct {
	Type       string            `yaml:"type"`
	OpenAI     *OpenAIChatConfig `yaml:"openai,omitempty"`
	Extractive ExtractiveConfig  `yaml:"extractive"`
}

type ChatConfig struct {
	RequireGrounding bool `yaml:"require_grounding"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Cache     CacheConfig     `yaml:"cache"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Chat      ChatConfig      `yaml:"chat"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/devcoach/config.yaml.
// If neither exists, it writes defaults to ~/.config/devcoach/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects configurations that can never produce a working index.
// It runs once at startup so that bad values fail fast.
func (c *AppConfig) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{domain.ErrInvalidArgument}, args...)...))
	}
	if c.Chunker.ChunkSize <= 0 {
		add("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.ChunkOverlap < 0 {
		add("chunker.chunk_overlap must not be negative, got %d", c.Chunker.ChunkOverlap)
	}
	if c.Chunker.ChunkSize > 0 && c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		add("chunker.chunk_overlap %d must be smaller than chunk_size %d", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	if c.Retrieval.TopK <= 0 {
		add("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Embedder.BatchSize <= 0 {
		add("embedder.batch_size must be positive, got %d", c.Embedder.BatchSize)
	}
	if c.Embedder.TimeoutSecs <= 0 {
		add("embedder.timeout_secs must be positive, got %d", c.Embedder.TimeoutSecs)
	}
	if c.LLM.OpenAI != nil && c.LLM.OpenAI.TimeoutSecs < 0 {
		add("llm.openai.timeout_secs must not be negative, got %d", c.LLM.OpenAI.TimeoutSecs)
	}
	if len(c.Corpus.Sources) == 0 {
		add("corpus.sources must list at least one document")
	}
	for _, src := range c.Corpus.Sources {
		if strings.HasPrefix(src, "s3://") && c.Corpus.S3 == nil {
			add("corpus source %s needs a corpus.s3 section", src)
			break
		}
	}
	switch c.Embedder.Type {
	case "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			add("embedder.openai section is required for type openai")
		}
	case "gemini":
		if c.Embedder.Gemini == nil {
			add("embedder.gemini section is required for type gemini")
		}
	default:
		add("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.LLM.Type {
	case "extractive":
	case "openai":
		if c.LLM.OpenAI == nil {
			add("llm.openai section is required for type openai")
		}
	default:
		add("unknown llm type %q", c.LLM.Type)
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.yaml"), nil
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "share", appName, name)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:   CorpusConfig{Sources: []string{"docs/*.md", "docs/*.txt"}},
		Embedder: EmbedderConfig{Type: "tfidf"},
		LLM:      LLMConfig{Type: "extractive"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.FileCount == 0 {
		cfg.Log.FileCount = 5
	}
	if cfg.Log.FileSize == 0 {
		cfg.Log.FileSize = 100
	}
	if cfg.Log.KeepDays == 0 {
		cfg.Log.KeepDays = 7
	}
	if cfg.Log.File == "" {
		cfg.Log.Console = true
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 10
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
		if cfg.Chunker.ChunkOverlap == 0 {
			cfg.Chunker.ChunkOverlap = 200
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.Embedder.Concurrency == 0 {
		cfg.Embedder.Concurrency = 4
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedder.Type == "gemini" && cfg.Embedder.Gemini != nil {
		if cfg.Embedder.Gemini.APIKeyEnv == "" {
			cfg.Embedder.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "text-embedding-004"
		}
	}
	if cfg.Cache.LRUTTLSecs == 0 {
		cfg.Cache.LRUTTLSecs = 3600
	}
	if cfg.Cache.MaxAgeDays == 0 {
		cfg.Cache.MaxAgeDays = 30
	}
	if cfg.Cache.CleanupCron == "" {
		cfg.Cache.CleanupCron = "0 4 * * *"
	}
	if cfg.Cache.SQLitePath == "~" || strings.HasPrefix(cfg.Cache.SQLitePath, "~/") {
		cfg.Cache.SQLitePath = defaultDataPath(strings.TrimPrefix(strings.TrimPrefix(cfg.Cache.SQLitePath, "~"), "/"))
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "extractive"
	}
	if cfg.LLM.Extractive.MaxSentences == 0 {
		cfg.LLM.Extractive.MaxSentences = 3
	}
	if cfg.LLM.Type == "openai" && cfg.LLM.OpenAI != nil {
		if cfg.LLM.OpenAI.BaseURL == "" {
			cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.LLM.OpenAI.APIKeyEnv == "" {
			cfg.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.LLM.OpenAI.Model == "" {
			cfg.LLM.OpenAI.Model = "gpt-4o-mini"
		}
		if cfg.LLM.OpenAI.TimeoutSecs == 0 {
			cfg.LLM.OpenAI.TimeoutSecs = 60
		}
	}
}
