package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/docqa/internal/llm"
	"github.com/yaklabco/docqa/internal/server"
	"github.com/yaklabco/docqa/internal/service"
	"github.com/yaklabco/docqa/pkg/config"
	"github.com/yaklabco/docqa/pkg/plan"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReviewer struct {
	resp *service.Response
	err  error
	docs []string
}

func (r *stubReviewer) Review(_ context.Context, doc string) (*service.Response, error) {
	r.docs = append(r.docs, doc)
	return r.resp, r.err
}

type stubHealth bool

func (h stubHealth) PrimaryHealthy(context.Context) bool { return bool(h) }

func newServer(t *testing.T, reviewer server.Reviewer, mutate ...func(*config.Config)) *server.Server {
	t.Helper()

	cfg := config.NewConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return server.New(cfg, reviewer, stubHealth(true), server.WithLogger(log.New(io.Discard)))
}

func do(t *testing.T, srv *server.Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{}, func(c *config.Config) {
		c.Fallback.APIKey = "sk"
		c.Backend.BaseURL = "http://tgi.internal:80"
	})

	rec := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[server.HealthResponse](t, rec)
	assert.Equal(t, server.HealthResponse{
		Status:             "ok",
		TGI:                true,
		TGIBaseURL:         "http://tgi.internal:80",
		OpenRouterFallback: true,
		OpenRouterModel:    config.DefaultFallbackModel,
	}, got)
}

func TestReview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		resp       *service.Response
		err        error
		wantStatus int
		wantError  string
		wantReason string
	}{
		{
			name:       "accepted",
			body:       `{"doc":"# Hi\n"}`,
			resp:       &service.Response{Version: "1", UpdatedDoc: "# Hi\n", Attempts: 1},
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty document is allowed",
			body:       `{"doc":""}`,
			resp:       &service.Response{Version: "1", Attempts: 1},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing doc",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name:       "bad json",
			body:       `{"doc":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name: "retries exhausted",
			body: `{"doc":"x"}`,
			err: &service.ExhaustedError{Attempts: 2, Last: &plan.MalformedToolCall{
				Kind: plan.KindNotFound, Reason: "Replacement text not found outside protected regions for issue 'a'.",
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "malformed_tool_call",
			wantReason: "Replacement text not found outside protected regions for issue 'a'.",
		},
		{
			name:       "retries exhausted without reason",
			body:       `{"doc":"x"}`,
			err:        &service.ExhaustedError{Attempts: 1},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "malformed_tool_call",
			wantReason: "unknown",
		},
		{
			name:       "backend failure",
			body:       `{"doc":"x"}`,
			err:        fmt.Errorf("%w: %w", service.ErrBackend, errors.New("connection refused")),
			wantStatus: http.StatusBadGateway,
			wantError:  "backend_unavailable",
		},
		{
			name:       "no backend",
			body:       `{"doc":"x"}`,
			err:        fmt.Errorf("%w: %w", service.ErrBackend, llm.ErrNoBackend),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "backend_unavailable",
		},
		{
			name:       "too large",
			body:       `{"doc":"x"}`,
			err:        fmt.Errorf("%w: 2 bytes", service.ErrDocTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "document_too_large",
		},
		{
			name:       "unexpected",
			body:       `{"doc":"x"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newServer(t, &stubReviewer{resp: tt.resp, err: tt.err})
			rec := do(t, srv, http.MethodPost, "/review", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantError == "" {
				got := decode[service.Response](t, rec)
				assert.Equal(t, tt.resp.Version, got.Version)
				return
			}

			got := decode[server.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantError, got.Error)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}
		})
	}
}

func TestReview_MalformedBodyShape(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{err: &service.ExhaustedError{Attempts: 1, Last: &plan.MalformedToolCall{
		Kind: plan.KindOverlap, Reason: "r",
	}}})

	rec := do(t, srv, http.MethodPost, "/review", `{"doc":"x"}`)
	assert.JSONEq(t, `{"error":"malformed_tool_call","reason":"r"}`, rec.Body.String())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	srv := newServer(t, nil)

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		body := `{"document":"We utilize Go.\n","issues":[{"id":"1","rule":"wordy","message":"m",` +
			`"severity":"info","replace_text":"utilize","replace_with":"use"}]}`
		rec := do(t, srv, http.MethodPost, "/v1/validate", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decode[map[string]any](t, rec)
		assert.Equal(t, "We use Go.\n", got["updated_document"])
		assert.Equal(t, false, got["code_edit_allowed"])
		assert.InDelta(t, 1, got["resolved_edit_count"], 0)
		assert.Equal(t, []any{}, got["lint_findings"])
		assert.Contains(t, got["diff"], "+We use Go.\n")
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()

		body := `{"document":"Run ` + "`go test`" + ` now.\n","code_edit_allowed":true,` +
			`"issues":[{"id":"q","rule":"r","message":"m","severity":"info","replace_text":"go test","replace_with":"x"}]}`
		rec := do(t, srv, http.MethodPost, "/v1/validate", body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

		got := decode[server.ErrorResponse](t, rec)
		assert.Equal(t, "malformed_tool_call", got.Error)
		assert.Equal(t, plan.KindForbiddenRegion, got.Kind)
		assert.Equal(t, []string{"q"}, got.OffendingIssueIDs)
		assert.Equal(t, "Replacement text for issue 'q' only occurs inside protected regions (inline_code).", got.Reason)
	})

	t.Run("missing document", func(t *testing.T) {
		t.Parallel()

		rec := do(t, srv, http.MethodPost, "/v1/validate", `{"issues":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRedirects(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{}, func(c *config.Config) { c.Server.RedirectURL = "https://example.test" })

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/does-not-exist"},
		{http.MethodGet, "/review"},
		{http.MethodDelete, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := do(t, srv, tt.method, tt.path, "")
			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, "https://example.test", rec.Header().Get("Location"))
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{})

	rec := do(t, srv, http.MethodGet, "/health", "", server.HeaderRequestID, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(server.HeaderRequestID))

	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(server.HeaderRequestID), 36)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("wildcard", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &stubReviewer{})
		rec := do(t, srv, http.MethodOptions, "/review", "",
			"Origin", "https://docs.example", "Access-Control-Request-Method", "POST")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &stubReviewer{}, func(c *config.Config) {
			c.Server.CORSAllowOrigins = []string{"https://docs.example"}
		})

		rec := do(t, srv, http.MethodGet, "/health", "", "Origin", "https://docs.example")
		assert.Equal(t, "https://docs.example", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = do(t, srv, http.MethodGet, "/health", "", "Origin", "https://evil.example")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{err: &service.ExhaustedError{Attempts: 1}})
	do(t, srv, http.MethodPost, "/review", `{"doc":"x"}`)
	srv.Metrics().Malformed(plan.KindNotFound)
	srv.Metrics().DuplicatesFiltered(2)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `docqa_reviews_total{endpoint="review",outcome="malformed"} 1`)
	assert.Contains(t, body, `docqa_malformed_tool_calls_total{kind="NotFound"} 1`)
	assert.Contains(t, body, `docqa_duplicates_filtered_total 2`)
	assert.Contains(t, body, `docqa_http_request_duration_seconds_count{method="POST",route="/review",status="422"} 1`)
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{}, func(c *config.Config) {
		c.Server.Host = "127.0.0.1"
		c.Server.Port = 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	require.NoError(t, <-done)
}

func TestServe_ReadHeaderTimeout(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &stubReviewer{}, func(c *config.Config) {
		c.Server.ReadHeaderTimeout = 50 * time.Millisecond
		c.Server.ShutdownTimeout = time.Minute
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Headers are never finished; the server must hang up on its own.
	_, err = io.WriteString(conn, "GET /health HTTP/1.1\r\nHost: x\r\n")
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	_, err = io.ReadAll(conn)
	require.NoError(t, err, "connection should be closed by the server")
}
