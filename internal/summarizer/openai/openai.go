package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
	"docrag/internal/provider"
)

// Summarizer asks an OpenAI-compatible chat model to answer from the
// retrieved context.
type Summarizer struct {
	client     *goopenai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

// Config configures the chat summarizer.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func New(cfg Config) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai summarizer: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Summarizer{
		client: provider.NewOpenAIClient(provider.OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Summarize sends the system text as the system message and the rest of the
// prompt as the user message.
func (s *Summarizer) Summarize(ctx context.Context, prompt domain.Prompt) (string, error) {
	user := prompt
	user.System = ""
	req := goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: goopenai.ChatMessageRoleUser, Content: user.String()},
		},
	}
	var answer string
	err := provider.Retry(ctx, s.maxRetries, s.timeout, func(ctx context.Context) error {
		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	return answer, err
}
