package resilient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder replaces real waiting in tests.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type attemptRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (r *attemptRecorder) ObserveAttempt(_ context.Context, a Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, a)
}

func newTestClient(baseURL string, sleeper *sleepRecorder, opts ...func(*Config)) *Client {
	cfg := &Config{
		BaseURL: baseURL,
		Sleep:   sleeper.Sleep,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return New(cfg)
}

func TestClient_RetriesServiceUnavailableThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"data":"ok"}}`))
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	observer := &attemptRecorder{}
	client := newTestClient(server.URL, sleeper, func(c *Config) { c.Observer = observer })

	var out struct {
		Result struct {
			Data string `json:"data"`
		} `json:"result"`
	}
	err := client.DoJSON(context.Background(), &Request{Path: "/api/trpc/prompts.list"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Result.Data)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.Delays())

	require.Len(t, observer.attempts, 3)
	assert.True(t, observer.attempts[0].Retry)
	assert.Equal(t, http.StatusServiceUnavailable, observer.attempts[0].StatusCode)
	assert.Equal(t, 2*time.Second, observer.attempts[0].Backoff)
	assert.NoError(t, observer.attempts[2].Err)
	assert.Equal(t, 3, observer.attempts[2].Number)
}

func TestClient_UnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"UNAUTHORIZED","message":"bad key"}`))
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(server.URL, sleeper)

	_, err := client.Do(context.Background(), &Request{Path: "x"})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "bad key", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeper.Delays())

	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestClient_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(server.URL, sleeper)

	_, err := client.Do(context.Background(), &Request{Path: "x"})

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// No delay after the final attempt.
	assert.Len(t, sleeper.Delays(), 2)
}

func TestClient_AttemptTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(server.URL, sleeper, func(c *Config) {
		c.Timeout = 50 * time.Millisecond
		c.Retry = RetryPolicy{MaxAttempts: 2}
	})

	_, err := client.Do(context.Background(), &Request{Path: "slow"})

	var abortErr *AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, 50*time.Millisecond, abortErr.After)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.Delays())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	sleeper := &sleepRecorder{}
	client := newTestClient(url, sleeper)

	_, err := client.Do(context.Background(), &Request{Path: "x"})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.Delays())
}

func TestClient_ParentCancellationStopsRetrying(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New(&Config{
		BaseURL: server.URL,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})

	_, err := client.Do(ctx, &Request{Path: "x"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotQuery  string
		gotAuth   string
		gotKey    string
		gotType   string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("id")
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Client")
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(&Config{
		BaseURL: server.URL + "/",
		Auth:    BearerAuth("secret"),
		Headers: map[string]string{"X-Client": "sdk"},
	})

	resp, err := client.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "/api/trpc/prompts.getById",
		Query:  map[string][]string{"id": {"p1"}},
		Body:   map[string]int{"count": 2},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/trpc/prompts.getById", gotPath)
	assert.Equal(t, "p1", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "sdk", gotKey)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, float64(2), gotBody["count"])
	assert.Equal(t, server.URL, client.BaseURL())
}

func TestClient_WithoutAuth(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
	}))
	defer server.Close()

	client := New(&Config{Auth: HeaderAuth{Name: "x-goog-api-key", Value: "k"}})

	_, err := client.WithoutAuth().Do(context.Background(), &Request{Path: server.URL + "/file"})
	require.NoError(t, err)
	assert.Empty(t, gotKey)

	_, err = client.Do(context.Background(), &Request{Path: server.URL + "/file"})
	require.NoError(t, err)
	assert.Equal(t, "k", gotKey)
}

func TestClient_RelativePathWithoutBaseURL(t *testing.T) {
	client := New(nil)
	_, err := client.Do(context.Background(), &Request{Path: "models"})
	assert.Error(t, err)
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		text    string
		body    string
		code    string
		message string
	}{
		{
			name:    "code and message",
			status:  http.StatusBadRequest,
			text:    "400 Bad Request",
			body:    `{"code":"INVALID","message":"bad prompt"}`,
			code:    "INVALID",
			message: "bad prompt",
		},
		{
			name:    "google envelope",
			status:  http.StatusForbidden,
			text:    "403 Forbidden",
			body:    `{"error":{"code":403,"status":"PERMISSION_DENIED","message":"key invalid"}}`,
			code:    "PERMISSION_DENIED",
			message: "key invalid",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			text:    "502 Bad Gateway",
			body:    `<html>upstream</html>`,
			code:    CodeUnknown,
			message: "502 Bad Gateway",
		},
		{
			name:    "empty status text",
			status:  http.StatusNotFound,
			body:    ``,
			code:    CodeUnknown,
			message: "404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Status: tt.text}
			apiErr := parseAPIError(resp, []byte(tt.body))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}
