package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterClient calls an OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	client *openai.Client
	model  string
	params Params
}

// NewOpenRouterClient creates a client for the API at baseURL.
func NewOpenRouterClient(baseURL, apiKey, model string, timeout time.Duration, params Params) *OpenRouterClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenRouterClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		params: params,
	}
}

// Name implements Generator.
func (c *OpenRouterClient) Name() string {
	return BackendOpenRouter
}

// Model returns the model requested from the API.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Health always reports true; the hosted API is not checked.
func (c *OpenRouterClient) Health(context.Context) bool {
	return true
}

// Generate sends prompt as a single user message.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.params.MaxNewTokens,
		Temperature: requestTemperature(c.params.Temperature),
		TopP:        float32(c.params.TopP),
		Stop:        c.params.Stop,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Backend: BackendOpenRouter, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openrouter request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// requestTemperature keeps an explicit zero on the wire. go-openai omits a
// zero temperature, which would leave the provider default in effect.
func requestTemperature(temperature float64) float32 {
	if temperature <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(temperature)
}
