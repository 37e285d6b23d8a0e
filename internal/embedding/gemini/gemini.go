package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"devcoach/internal/embedding"
)

const DefaultModel = "text-embedding-004"

type Config struct {
	APIKeyEnv  string
	Model      string
	TaskType   string
	Dimensions int
	Timeout    time.Duration
	BaseURL    string
}

// Embedder embeds text through the Gemini API. All texts of a call are sent
// as separate contents of a single EmbedContent request.
type Embedder struct {
	client  *genai.Client
	model   string
	config  *genai.EmbedContentConfig
	timeout time.Duration
}

func NewEmbedder(ctx context.Context, cfg Config) (*Embedder, error) {
	key := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	var ec *genai.EmbedContentConfig
	if cfg.TaskType != "" || cfg.Dimensions > 0 {
		ec = &genai.EmbedContentConfig{TaskType: cfg.TaskType}
		if cfg.Dimensions > 0 {
			d := int32(cfg.Dimensions)
			ec.OutputDimensionality = &d
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{client: client, model: model, config: ec, timeout: timeout}, nil
}

// Name identifies the vector space. Task type and output dimensionality both
// change the vectors, so they are part of it.
func (e *Embedder) Name() string {
	name := "gemini:" + e.model
	if e.config == nil {
		return name
	}
	if e.config.TaskType != "" {
		name += "/" + e.config.TaskType
	}
	if e.config.OutputDimensionality != nil {
		name += fmt.Sprintf("@%d", *e.config.OutputDimensionality)
	}
	return name
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := embedding.CheckRequest(texts); err != nil {
		return nil, err
	}
	ctx, cancel := embedding.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: t}}})
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, e.config)
	if err != nil {
		return nil, embedding.Unavailable(fmt.Errorf("gemini embed: %w", err))
	}
	out := make([][]float64, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, embedding.ToFloat64(emb.Values))
	}
	if err := embedding.Validate(texts, out); err != nil {
		return nil, err
	}
	return out, nil
}
