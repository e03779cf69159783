package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/promptreel/server/internal/module/ai/veo"
	"github.com/promptreel/server/pkg/resilient"
)

// HealthStatus represents the health status of a provider.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthChecker probes whether a provider is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthRecorder receives health changes.
type HealthRecorder interface {
	SetProviderHealth(provider string, healthy bool)
}

// ModelChecker checks reachability by reading the model resource.
type ModelChecker struct {
	client *resilient.Client
	model  string
}

// NewModelChecker creates a checker that issues GET models/{model}.
func NewModelChecker(client *resilient.Client, model string) *ModelChecker {
	return &ModelChecker{client: client, model: model}
}

// HealthCheck implements HealthChecker.
func (c *ModelChecker) HealthCheck(ctx context.Context) error {
	_, err := c.client.Do(ctx, &resilient.Request{
		Method: http.MethodGet,
		Path:   "models/" + c.model,
	})
	return err
}

// HealthMonitorConfig contains health monitor configuration.
type HealthMonitorConfig struct {
	CheckInterval       time.Duration
	CheckTimeout        time.Duration
	FailureThreshold    uint32
	Timeout             time.Duration
	MaxHalfOpenRequests uint32
}

// DefaultHealthMonitorConfig returns the default health monitor configuration.
func DefaultHealthMonitorConfig() *HealthMonitorConfig {
	return &HealthMonitorConfig{
		CheckInterval:       30 * time.Second,
		CheckTimeout:        10 * time.Second,
		FailureThreshold:    5,
		Timeout:             60 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// HealthMonitor tracks the health of the video provider. Provider calls run
// through a circuit breaker that opens after consecutive provider faults.
type HealthMonitor struct {
	mu sync.RWMutex

	name      string
	checker   HealthChecker
	recorder  HealthRecorder
	logger    *slog.Logger
	breaker   *gobreaker.CircuitBreaker[any]
	status    HealthStatus
	lastCheck time.Time
	lastErr   error

	checkInterval time.Duration
	checkTimeout  time.Duration
	stopMonitor   chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewHealthMonitor creates a new health monitor.
func NewHealthMonitor(name string, checker HealthChecker, recorder HealthRecorder, logger *slog.Logger, config *HealthMonitorConfig) *HealthMonitor {
	if config == nil {
		config = DefaultHealthMonitorConfig()
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &HealthMonitor{
		name:          name,
		checker:       checker,
		recorder:      recorder,
		logger:        logger,
		status:        HealthStatusHealthy,
		checkInterval: config.CheckInterval,
		checkTimeout:  config.CheckTimeout,
		stopMonitor:   make(chan struct{}),
	}

	threshold := config.FailureThreshold
	m.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxHalfOpenRequests,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful:  func(err error) bool { return !IsProviderFault(err) },
		OnStateChange: m.onStateChange,
	})

	if recorder != nil {
		recorder.SetProviderHealth(name, true)
	}
	return m
}

// Start starts the periodic health check.
func (m *HealthMonitor) Start(ctx context.Context) error {
	if m.checker == nil || m.checkInterval <= 0 {
		return nil
	}

	m.wg.Add(1)
	go m.monitorLoop(ctx)
	return nil
}

// Stop stops the health monitor.
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopMonitor) })
	m.wg.Wait()
}

// monitorLoop periodically checks provider health.
func (m *HealthMonitor) monitorLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopMonitor:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
			_ = m.Check(checkCtx)
			cancel()
		}
	}
}

// Check probes the provider through the circuit breaker.
func (m *HealthMonitor) Check(ctx context.Context) error {
	err := m.Execute(func() error {
		return m.checker.HealthCheck(ctx)
	})

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastErr = err
	m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "provider health check failed", "provider", m.name, "error", err)
	}
	m.refresh()
	return err
}

// Allow reports whether new jobs may be submitted.
func (m *HealthMonitor) Allow() error {
	if m.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit %s is open", veo.ErrProviderUnavailable, m.name)
	}
	return nil
}

// Execute executes a function with circuit breaker protection.
func (m *HealthMonitor) Execute(fn func() error) error {
	_, err := m.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", veo.ErrProviderUnavailable, err)
	}
	return err
}

// State returns the circuit breaker state.
func (m *HealthMonitor) State() gobreaker.State {
	return m.breaker.State()
}

// GetStatus returns the health status of the provider.
func (m *HealthMonitor) GetStatus() HealthStatus {
	m.refresh()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsHealthy checks if the provider is healthy.
func (m *HealthMonitor) IsHealthy() bool {
	return m.GetStatus() == HealthStatusHealthy
}

// Snapshot describes the monitor for health endpoints.
type Snapshot struct {
	Provider  string       `json:"provider"`
	Status    HealthStatus `json:"status"`
	Breaker   string       `json:"breaker"`
	LastCheck *time.Time   `json:"last_check,omitempty"`
	LastError string       `json:"last_error,omitempty"`
}

// Snapshot returns the current health snapshot.
func (m *HealthMonitor) Snapshot() Snapshot {
	status := m.GetStatus()

	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Provider: m.name,
		Status:   status,
		Breaker:  m.breaker.State().String(),
	}
	if !m.lastCheck.IsZero() {
		t := m.lastCheck
		s.LastCheck = &t
	}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	return s
}

func (m *HealthMonitor) refresh() {
	var status HealthStatus
	switch m.breaker.State() {
	case gobreaker.StateOpen:
		status = HealthStatusUnhealthy
	case gobreaker.StateHalfOpen:
		status = HealthStatusDegraded
	default:
		status = HealthStatusHealthy
		m.mu.RLock()
		if m.lastErr != nil {
			status = HealthStatusDegraded
		}
		m.mu.RUnlock()
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *HealthMonitor) onStateChange(name string, from, to gobreaker.State) {
	m.logger.Warn("provider circuit state changed", "provider", name, "from", from.String(), "to", to.String())
	if m.recorder != nil {
		m.recorder.SetProviderHealth(name, to != gobreaker.StateOpen)
	}
}

// IsProviderFault reports whether err means the provider itself misbehaved:
// transport failures, exhausted retries, 5xx responses and timeouts. Client
// mistakes, content filtering and cancellation do not count.
func IsProviderFault(err error) bool {
	if err == nil {
		return false
	}

	var (
		timeoutErr   *veo.TimeoutError
		exhaustedErr *resilient.ExhaustedError
		networkErr   *resilient.NetworkError
		abortErr     *resilient.AbortError
	)
	switch {
	case errors.As(err, &timeoutErr),
		errors.As(err, &exhaustedErr),
		errors.As(err, &networkErr),
		errors.As(err, &abortErr):
		return true
	}
	return resilient.StatusCode(err) >= http.StatusInternalServerError
}
