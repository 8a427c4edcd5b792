package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yaklabco/docqa/internal/logging"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// TGIClient calls a text-generation-inference server.
type TGIClient struct {
	baseURL    string
	httpClient *http.Client
	params     Params
}

// NewTGIClient creates a client for the server at baseURL.
func NewTGIClient(baseURL string, timeout time.Duration, params Params) *TGIClient {
	return &TGIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		params:     params,
	}
}

// BaseURL returns the server address.
func (c *TGIClient) BaseURL() string {
	return c.baseURL
}

// Name implements Generator.
func (c *TGIClient) Name() string {
	return BackendTGI
}

// Health reports whether GET /health answers 200.
func (c *TGIClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.FromContext(ctx).Debug("tgi health check failed", logging.FieldError, err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

type tgiParameters struct {
	MaxNewTokens int      `json:"max_new_tokens"`
	Temperature  float64  `json:"temperature"`
	TopP         float64  `json:"top_p"`
	Stop         []string `json:"stop"`
}

type tgiRequest struct {
	Inputs     string        `json:"inputs"`
	Parameters tgiParameters `json:"parameters"`
}

// Generate posts prompt to /generate.
func (c *TGIClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(tgiRequest{
		Inputs: prompt,
		Parameters: tgiParameters{
			MaxNewTokens: c.params.MaxNewTokens,
			Temperature:  c.params.Temperature,
			TopP:         c.params.TopP,
			Stop:         c.params.Stop,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode tgi request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create tgi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tgi request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tgi response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Backend: BackendTGI, StatusCode: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	return generatedText(body), nil
}

// generatedText accepts {"generated_text": ...} and [{"generated_text": ...}].
// Any other shape is returned verbatim so parsing can report it.
func generatedText(body []byte) string {
	result := gjson.ParseBytes(body)
	if text := result.Get("generated_text"); result.IsObject() && text.Exists() {
		return text.String()
	}
	if text := result.Get("0.generated_text"); result.IsArray() && text.Exists() {
		return text.String()
	}
	return string(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
