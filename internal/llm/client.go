package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client talks to an OpenAI-compatible chat completions API (Groq by default).
type Client struct {
	BaseURL string
	Model   string
	model   llms.Model
}

// NewClient creates a new LLM client. baseURL must include the API version
// prefix, e.g. "https://api.groq.com/openai/v1".
func NewClient(baseURL, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	m, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Client{
		BaseURL: baseURL,
		Model:   model,
		model:   m,
	}, nil
}

// Chat sends prompt as a single user message and returns the reply text.
// Temperature is fixed at 0 so answers stay close to the retrieved text.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	reply, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return reply, nil
}
