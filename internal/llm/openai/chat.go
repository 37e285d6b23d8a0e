package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"devcoach/internal/domain"
	"devcoach/internal/llm"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Chat is an OpenAI-compatible chat completion client.
type Chat struct {
	api     *goopenai.Client
	cfg     Config
	timeout time.Duration
}

func NewChat(cfg Config) (*Chat, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	return newChat(key, cfg), nil
}

func newChat(key string, cfg Config) *Chat {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	apiCfg := goopenai.DefaultConfig(key)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{}
	return &Chat{api: goopenai.NewClientWithConfig(apiCfg), cfg: cfg, timeout: timeout}
}

func (c *Chat) Name() string { return "openai:" + c.cfg.Model }

func (c *Chat) Complete(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.BuildPrompt(req)},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", llm.Unavailable(fmt.Errorf("openai chat: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response has no choices", domain.ErrCompletionUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
