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

var testParams = llm.Params{MaxNewTokens: 64, Temperature: 0, TopP: 0.9, Stop: []string{"</json>"}}

func TestTGIClient_Generate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"object", `{"generated_text":"{\"version\":\"1\"}"}`, `{"version":"1"}`},
		{"list", `[{"generated_text":"from list"}]`, "from list"},
		{"unknown shape", `{"text":"x"}`, `{"text":"x"}`},
		{"empty list", `[]`, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/generate", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var payload map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, "prompt", payload["inputs"])
				params, _ := payload["parameters"].(map[string]any)
				assert.InDelta(t, 64, params["max_new_tokens"], 0)
				assert.InDelta(t, 0.9, params["top_p"], 1e-9)
				assert.Equal(t, []any{"</json>"}, params["stop"])

				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			client := llm.NewTGIClient(srv.URL+"/", time.Second, testParams)
			got, err := client.Generate(context.Background(), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTGIClient_GenerateStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := llm.NewTGIClient(srv.URL, time.Second, testParams).Generate(context.Background(), "p")
	require.Error(t, err)

	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, llm.BackendTGI, statusErr.Backend)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "model loading")
}

func TestTGIClient_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"unavailable", http.StatusServiceUnavailable, false},
		{"no content", http.StatusNoContent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(srv.Close)

			client := llm.NewTGIClient(srv.URL, time.Second, testParams)
			assert.Equal(t, tt.want, client.Health(context.Background()))
		})
	}
}

func TestTGIClient_HealthUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := llm.NewTGIClient(url, time.Second, testParams)
	assert.False(t, client.Health(context.Background()))
	assert.Equal(t, url, client.BaseURL())
	assert.Equal(t, llm.BackendTGI, client.Name())
}
