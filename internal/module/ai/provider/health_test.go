package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/pkg/resilient"
)

// MockHealthChecker implements HealthChecker for testing.
type MockHealthChecker struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *MockHealthChecker) HealthCheck(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

// MockHealthRecorder implements HealthRecorder for testing.
type MockHealthRecorder struct {
	mu      sync.Mutex
	healthy map[string]bool
}

func (r *MockHealthRecorder) SetProviderHealth(provider string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.healthy == nil {
		r.healthy = make(map[string]bool)
	}
	r.healthy[provider] = healthy
}

func (r *MockHealthRecorder) get(provider string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.healthy[provider]
}

func testConfig(threshold uint32) *HealthMonitorConfig {
	return &HealthMonitorConfig{
		CheckInterval:       time.Hour,
		CheckTimeout:        time.Second,
		FailureThreshold:    threshold,
		Timeout:             time.Hour,
		MaxHalfOpenRequests: 1,
	}
}

func TestDefaultHealthMonitorConfig(t *testing.T) {
	config := DefaultHealthMonitorConfig()
	assert.NotNil(t, config)
	assert.NotZero(t, config.CheckInterval)
	assert.NotZero(t, config.CheckTimeout)
	assert.NotZero(t, config.FailureThreshold)
	assert.NotZero(t, config.Timeout)
	assert.NotZero(t, config.MaxHalfOpenRequests)
}

func TestHealthMonitor_Check(t *testing.T) {
	t.Run("Healthy provider", func(t *testing.T) {
		checker := &MockHealthChecker{}
		monitor := NewHealthMonitor("veo", checker, nil, nil, testConfig(3))

		require.NoError(t, monitor.Check(context.Background()))
		assert.Equal(t, HealthStatusHealthy, monitor.GetStatus())
		assert.True(t, monitor.IsHealthy())
		assert.NoError(t, monitor.Allow())
	})

	t.Run("Failing check degrades then opens the circuit", func(t *testing.T) {
		checker := &MockHealthChecker{err: &resilient.NetworkError{Method: "GET", URL: "x", Err: errors.New("refused")}}
		recorder := &MockHealthRecorder{}
		monitor := NewHealthMonitor("veo", checker, recorder, nil, testConfig(2))
		assert.True(t, recorder.get("veo"))

		assert.Error(t, monitor.Check(context.Background()))
		assert.Equal(t, HealthStatusDegraded, monitor.GetStatus())

		assert.Error(t, monitor.Check(context.Background()))
		assert.Equal(t, HealthStatusUnhealthy, monitor.GetStatus())
		assert.Equal(t, gobreaker.StateOpen, monitor.State())
		assert.False(t, recorder.get("veo"))
		assert.ErrorIs(t, monitor.Allow(), veo.ErrProviderUnavailable)

		// The open circuit short-circuits further probes.
		err := monitor.Check(context.Background())
		assert.ErrorIs(t, err, veo.ErrProviderUnavailable)
		assert.Equal(t, 2, checker.calls)

		snap := monitor.Snapshot()
		assert.Equal(t, "veo", snap.Provider)
		assert.Equal(t, HealthStatusUnhealthy, snap.Status)
		assert.Equal(t, "open", snap.Breaker)
		assert.NotNil(t, snap.LastCheck)
		assert.NotEmpty(t, snap.LastError)
	})
}

func TestHealthMonitor_Execute(t *testing.T) {
	t.Run("Client errors do not trip the circuit", func(t *testing.T) {
		monitor := NewHealthMonitor("veo", nil, nil, nil, testConfig(1))

		for i := 0; i < 3; i++ {
			err := monitor.Execute(func() error {
				return &veo.ProviderFailure{Handle: "operations/x", Message: "filtered"}
			})
			assert.Error(t, err)
		}
		assert.Equal(t, gobreaker.StateClosed, monitor.State())
	})

	t.Run("Provider faults trip the circuit", func(t *testing.T) {
		monitor := NewHealthMonitor("veo", nil, nil, nil, testConfig(2))
		fault := &veo.SubmissionError{StatusCode: 503, Err: &resilient.APIError{StatusCode: 503}}

		_ = monitor.Execute(func() error { return fault })
		_ = monitor.Execute(func() error { return fault })

		executed := false
		err := monitor.Execute(func() error {
			executed = true
			return nil
		})
		assert.False(t, executed)
		assert.ErrorIs(t, err, veo.ErrProviderUnavailable)
	})

	t.Run("Successful execution", func(t *testing.T) {
		monitor := NewHealthMonitor("veo", nil, nil, nil, testConfig(2))
		executed := false
		err := monitor.Execute(func() error {
			executed = true
			return nil
		})
		assert.NoError(t, err)
		assert.True(t, executed)
	})
}

func TestIsProviderFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", &resilient.APIError{StatusCode: 500}, true},
		{"wrapped server error", &veo.PollError{Err: &resilient.APIError{StatusCode: 502}}, true},
		{"exhausted", &resilient.ExhaustedError{Attempts: 3, Err: errors.New("x")}, true},
		{"attempt timeout", &resilient.AbortError{URL: "x", After: time.Second}, true},
		{"deadline", &veo.TimeoutError{Handle: "operations/x", Deadline: time.Minute}, true},
		{"bad request", &veo.SubmissionError{StatusCode: 400, Err: &resilient.APIError{StatusCode: 400}}, false},
		{"rate limited", &resilient.APIError{StatusCode: 429}, false},
		{"content filtered", &veo.ProviderFailure{Message: "filtered"}, false},
		{"invalid request", fmt.Errorf("%w: empty prompt", veo.ErrInvalidRequest), false},
		{"cancelled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProviderFault(tt.err))
		})
	}
}

func TestModelChecker(t *testing.T) {
	var path, key string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/veo-3.1-generate-preview"}`))
	}))
	defer server.Close()

	client := resilient.New(&resilient.Config{
		BaseURL: server.URL + "/v1beta",
		Auth:    resilient.HeaderAuth{Name: "x-goog-api-key", Value: "secret"},
	})
	checker := NewModelChecker(client, "veo-3.1-generate-preview")

	require.NoError(t, checker.HealthCheck(context.Background()))
	assert.Equal(t, "/v1beta/models/veo-3.1-generate-preview", path)
	assert.Equal(t, "secret", key)
}
