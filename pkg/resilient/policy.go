package resilient

import (
	"errors"
	"net/http"
	"time"
)

// Defaults applied by New when the configuration leaves a field zero.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// maxBackoffShift caps the exponent so the delay cannot overflow time.Duration.
const maxBackoffShift = 30

// Classifier reports whether a failed attempt may be retried.
type Classifier func(err error) bool

// RetryPolicy controls how many attempts a request gets and how long the client
// waits between them.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Classifier  Classifier
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Classifier:  IsRetryable,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Classifier == nil {
		p.Classifier = IsRetryable
	}
	return p
}

// Backoff returns the delay inserted after failed attempt k (1-based) and before
// attempt k+1: BaseDelay * 2^k.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	shift := attempt
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return p.BaseDelay * time.Duration(1<<uint(shift))
}

var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsRetryable is the default classifier. Per-attempt timeouts, transport failures
// and 500/502/503/504 responses are transient; every other failure is final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var abortErr *AbortError
	if errors.As(err, &abortErr) {
		return true
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return retryableStatus[apiErr.StatusCode]
	}

	return false
}

// RetryOn returns a classifier that retries everything IsRetryable does plus
// responses with the given status codes (for example 429).
func RetryOn(codes ...int) Classifier {
	extra := make(map[int]bool, len(codes))
	for _, code := range codes {
		extra[code] = true
	}
	return func(err error) bool {
		if IsRetryable(err) {
			return true
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return extra[apiErr.StatusCode]
		}
		return false
	}
}
