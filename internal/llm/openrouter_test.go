package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docqa/internal/llm"
)

func TestOpenRouterClient_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens   int      `json:"max_tokens"`
			Temperature *float64 `json:"temperature"`
			Stop        []string `json:"stop"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "openrouter/auto", payload.Model)
		if assert.Len(t, payload.Messages, 1) {
			assert.Equal(t, "user", payload.Messages[0].Role)
			assert.Equal(t, "prompt", payload.Messages[0].Content)
		}
		assert.Equal(t, 64, payload.MaxTokens)
		if assert.NotNil(t, payload.Temperature, "zero temperature must be sent explicitly") {
			assert.InDelta(t, 0, *payload.Temperature, 1e-30)
		}
		assert.Equal(t, []string{"</json>"}, payload.Stop)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[` +
			`{"index":0,"message":{"role":"assistant","content":"<json>{}"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := llm.NewOpenRouterClient(srv.URL, "sk-test", "openrouter/auto", time.Second, testParams)
	got, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "<json>{}", got)
	assert.Equal(t, "openrouter/auto", client.Model())
	assert.True(t, client.Health(context.Background()))
}

func TestOpenRouterClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    string
	}{
		{
			name:       "api error",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"message":"invalid key","type":"auth"}}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"id":"1","choices":[]}`,
			wantErr: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			client := llm.NewOpenRouterClient(srv.URL, "k", "m", time.Second, testParams)
			_, err := client.Generate(context.Background(), "p")
			require.Error(t, err)

			if tt.wantStatus != 0 {
				var statusErr *llm.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
				assert.Equal(t, llm.BackendOpenRouter, statusErr.Backend)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
