package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"devcoach/internal/domain"
	"devcoach/internal/embedding"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	api        *goopenai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	return newClient(key, cfg), nil
}

func newClient(key string, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	apiCfg := goopenai.DefaultConfig(key)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{}
	return &Client{
		api:        goopenai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    t,
	}
}

// Name identifies the vector space: the model and, when set, the requested
// dimensionality. Caches and the index key on it.
func (c *Client) Name() string {
	if c.dimensions > 0 {
		return fmt.Sprintf("openai:%s@%d", c.model, c.dimensions)
	}
	return "openai:" + c.model
}

// Embed sends all texts in a single request. The response is reordered by
// the index the API reports, so output order always matches input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := embedding.CheckRequest(texts); err != nil {
		return nil, err
	}
	ctx, cancel := embedding.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      texts,
		Model:      goopenai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, embedding.Unavailable(fmt.Errorf("openai embeddings: %w", err))
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs", domain.ErrRetrievalUnavailable, len(resp.Data), len(texts))
	}
	out := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) || out[item.Index] != nil {
			return nil, fmt.Errorf("%w: openai returned bad embedding index %d", domain.ErrRetrievalUnavailable, item.Index)
		}
		out[item.Index] = embedding.ToFloat64(item.Embedding)
	}
	if err := embedding.Validate(texts, out); err != nil {
		return nil, err
	}
	return out, nil
}
