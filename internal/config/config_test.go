package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"devcoach/internal/domain"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Chunker.ChunkSize)
	require.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	require.Equal(t, 4, cfg.Retrieval.TopK)
	require.Equal(t, "tfidf", cfg.Embedder.Type)
	require.Equal(t, "extractive", cfg.LLM.Type)
	require.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_AppliesProviderDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
corpus:
  sources: ["docs/sleep.md"]
chunker:
  chunk_size: 300
  chunk_overlap: 50
embedder:
  type: openai
  openai: {}
llm:
  type: openai
  openai:
    model: gpt-4.1-mini
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 300, cfg.Chunker.ChunkSize)
	require.Equal(t, 50, cfg.Chunker.ChunkOverlap)
	require.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	require.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	require.Equal(t, "gpt-4.1-mini", cfg.LLM.OpenAI.Model)
	require.Equal(t, 60, cfg.LLM.OpenAI.TimeoutSecs)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [1, 2"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, got.Retrieval.TopK)
	require.Equal(t, cfg.Corpus.Sources, got.Corpus.Sources)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"negative overlap", func(c *AppConfig) { c.Chunker.ChunkOverlap = -1 }},
		{"overlap equals size", func(c *AppConfig) { c.Chunker.ChunkOverlap = c.Chunker.ChunkSize }},
		{"zero chunk size", func(c *AppConfig) { c.Chunker.ChunkSize = 0 }},
		{"zero top k", func(c *AppConfig) { c.Retrieval.TopK = 0 }},
		{"zero batch size", func(c *AppConfig) { c.Embedder.BatchSize = 0 }},
		{"negative embedder timeout", func(c *AppConfig) { c.Embedder.TimeoutSecs = -1 }},
		{"negative llm timeout", func(c *AppConfig) {
			c.LLM.Type = "openai"
			c.LLM.OpenAI = &OpenAIChatConfig{TimeoutSecs: -5}
		}},
		{"no sources", func(c *AppConfig) { c.Corpus.Sources = nil }},
		{"s3 source without s3 section", func(c *AppConfig) { c.Corpus.Sources = []string{"s3://bucket/a.md"} }},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "word2vec" }},
		{"openai embedder without section", func(c *AppConfig) { c.Embedder.Type = "openai" }},
		{"gemini embedder without section", func(c *AppConfig) { c.Embedder.Type = "gemini" }},
		{"unknown llm", func(c *AppConfig) { c.LLM.Type = "markov" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 0
	cfg.Embedder.BatchSize = 0
	err := cfg.Validate()
	require.ErrorContains(t, err, "top_k")
	require.ErrorContains(t, err, "batch_size")
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", appName, "config.yaml"), path)
	require.FileExists(t, path)
	require.Equal(t, 4, cfg.Retrieval.TopK)
}
