package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/papergen/internal/paper"

	openai "github.com/sashabaranov/go-openai"
)

// Options bound a single generation request.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{MaxTokens: 2000, Temperature: 0.7}
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	opts  Options
}

// New creates a new LLM client. An empty baseURL uses the OpenAI endpoint.
func New(baseURL, apiKey, modelName string, opts Options) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
		opts:  opts,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends one system and one user message and returns the reply text.
// Every failure, including an empty reply, wraps paper.ErrGenerationFailure.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", paper.ErrGenerationFailure, describe(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", paper.ErrGenerationFailure)
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "model", c.model, "finish_reason", resp.Choices[0].FinishReason, "chars", len(raw))

	text := StripFences(raw)
	if text == "" {
		return "", fmt.Errorf("%w: model returned an empty reply", paper.ErrGenerationFailure)
	}
	return text, nil
}

// Ping checks that the endpoint answers by listing its models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %s", describe(err))
	}
	return nil
}

// StripFences removes a Markdown code fence wrapped around the whole reply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimLeft(s, "`")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("status %d: %v", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err.Error()
}
