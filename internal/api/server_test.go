package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/summary-relay/internal/config"
	"github.com/JakeFAU/summary-relay/internal/id/uuid"
	"github.com/JakeFAU/summary-relay/internal/submission"
	"github.com/JakeFAU/summary-relay/internal/webhook"
)

func TestServer_Root(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeSubmitter{}), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body serviceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Article Summarizer API", body.Name)
	require.Equal(t, "1.0.0", body.Version)
	require.Equal(t, "/submit", body.Endpoints["submit"])
	require.Equal(t, "/health", body.Endpoints["health"])
}

func TestServer_HealthWithoutWebhook(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Downstream.WebhookURL = ""
	rec := serve(t, NewServer(&fakeSubmitter{}, cfg, zap.NewNop()), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy","version":"1.0.0"}`, rec.Body.String())
}

func TestServer_Submit_Succeeds(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{result: submission.Result{
		Success:   true,
		Message:   submission.MessageAccepted,
		SessionID: "session-1",
	}}
	rec := serve(t, newTestServer(sub), http.MethodPost, "/submit",
		`{"email":"reader@example.com","article_url":"example.com/page"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "session-1", body.SessionID)
	require.Equal(t, submission.MessageAccepted, body.Message)
	require.Equal(t, submission.Submission{Email: "reader@example.com", ArticleURL: "example.com/page"}, sub.last())
}

func TestServer_Submit_InvalidJSON(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	rec := serve(t, newTestServer(sub), http.MethodPost, "/submit", "{invalid")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid JSON")
	require.Zero(t, sub.count())
}

func TestServer_Submit_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{
			name: "validation",
			err: &submission.ValidationError{Fields: []submission.FieldError{
				{Field: "email", Message: "value is not a valid email address"},
			}},
			wantStatus: http.StatusUnprocessableEntity,
			wantText:   "value is not a valid email address",
		},
		{
			name:       "not configured",
			err:        submission.ErrNotConfigured,
			wantStatus: http.StatusInternalServerError,
			wantText:   msgConfiguration,
		},
		{
			name:       "unreachable",
			err:        fmt.Errorf("%w: dial tcp: connection refused", submission.ErrDownstreamUnreachable),
			wantStatus: http.StatusServiceUnavailable,
			wantText:   msgUnavailable,
		},
		{
			name:       "strict rejection",
			err:        fmt.Errorf("%w: status 500", submission.ErrDownstreamRejected),
			wantStatus: http.StatusBadGateway,
			wantText:   msgRejected,
		},
		{
			name:       "unexpected",
			err:        errors.New("secret internal detail"),
			wantStatus: http.StatusInternalServerError,
			wantText:   msgUnexpected,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sub := &fakeSubmitter{err: tt.err}
			rec := serve(t, newTestServer(sub), http.MethodPost, "/submit",
				`{"email":"reader@example.com","article_url":"example.com"}`)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body submitResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.False(t, body.Success)
			require.Contains(t, rec.Body.String(), tt.wantText)
			require.NotContains(t, rec.Body.String(), "secret internal detail")
		})
	}
}

func TestServer_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeSubmitter{panics: true}), http.MethodPost, "/submit",
		`{"email":"reader@example.com","article_url":"example.com"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), msgUnexpected)
}

func TestServer_OptionsAcknowledged(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeSubmitter{}), http.MethodOptions, "/submit", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"OK"}`, rec.Body.String())
}

func TestServer_CORSPreflight(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSubmitter{})

	req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CORSActualRequestWildcardOrigin(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://preview-123.vercel.app")
	rec := httptest.NewRecorder()
	newTestServer(&fakeSubmitter{}).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://preview-123.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSubmitter{})
	serve(t, server, http.MethodGet, "/health", "")
	serve(t, server, http.MethodPost, "/submit", "{invalid")
	rec := serve(t, server, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
	require.Contains(t, rec.Body.String(), `relay_submissions_total{outcome="invalid"}`)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeSubmitter{}), http.MethodGet, "/health", "")

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

// TestServer_SubmitEndToEnd runs the real submission service and webhook
// client against a fake workflow webhook.
func TestServer_SubmitEndToEnd(t *testing.T) {
	t.Parallel()

	received := make(chan submission.Payload, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p submission.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			received <- p
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	cfg := testConfig()
	cfg.Downstream.WebhookURL = hook.URL
	svc := submission.NewService(
		submission.Config{WebhookURL: hook.URL},
		webhook.NewClient(5*time.Second, cfg.Downstream.UserAgent),
		uuid.New(),
		nil,
		zap.NewNop(),
	)
	rec := serve(t, NewServer(svc, cfg, zap.NewNop()), http.MethodPost, "/submit",
		`{"email":"reader@example.com","article_url":"example.com/page"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)

	select {
	case p := <-received:
		require.Equal(t, "https://example.com/page", p.ArticleURL)
		require.Equal(t, body.SessionID, p.SessionID)
	case <-time.After(time.Second):
		t.Fatal("webhook never received the payload")
	}
}

func TestServer_SubmitEndToEndMalformedEmail(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer hook.Close()

	svc := submission.NewService(
		submission.Config{WebhookURL: hook.URL},
		webhook.NewClient(5*time.Second, ""),
		uuid.New(),
		nil,
		nil,
	)
	rec := serve(t, NewServer(svc, testConfig(), zap.NewNop()), http.MethodPost, "/submit",
		`{"email":"not-an-email","article_url":"example.com/page"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"field":"email"`)
	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, hits)
}

// --- helpers/fakes ---

type fakeSubmitter struct {
	mu     sync.Mutex
	result submission.Result
	err    error
	panics bool
	calls  []submission.Submission
}

func (f *fakeSubmitter) Submit(_ context.Context, sub submission.Submission) (submission.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	if f.panics {
		panic("boom")
	}
	return f.result, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSubmitter) last() submission.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testConfig() config.Config {
	return config.Config{
		App:    config.AppConfig{Name: "Article Summarizer API", Version: "1.0.0"},
		Server: config.ServerConfig{Port: 8080},
		Downstream: config.DownstreamConfig{
			WebhookURL:     "https://hooks.example.com/webhook/summary",
			TimeoutSeconds: 30,
			UserAgent:      "relay-test",
		},
		CORS: config.CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.vercel.app"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		},
	}
}

func newTestServer(sub Submitter) *Server {
	return NewServer(sub, testConfig(), zap.NewNop())
}

func serve(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}
