package veo

import (
	"errors"
	"fmt"
	"time"

	"github.com/promptreel/server/pkg/resilient"
)

// ErrProviderUnavailable is returned while calls to the provider are suspended
// after repeated failures.
var ErrProviderUnavailable = errors.New("video provider unavailable")

// SubmissionError is returned when the provider did not accept a job.
type SubmissionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to start video generation: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// PollError is returned when an operation status could not be read.
type PollError struct {
	Handle     OperationHandle
	StatusCode int
	Message    string
	Err        error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("failed to poll operation %s: %s", e.Handle, e.Message)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when an operation did not finish before the deadline.
// The remote operation keeps running.
type TimeoutError struct {
	Handle   OperationHandle
	Deadline time.Duration
	Elapsed  time.Duration
	Polls    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video generation timeout after %s (operation %s, %d polls)",
		e.Deadline, e.Handle, e.Polls)
}

// ProviderFailure is returned when the provider reports the operation as failed.
type ProviderFailure struct {
	Handle  OperationHandle
	Message string
}

func (e *ProviderFailure) Error() string {
	return fmt.Sprintf("video generation failed: %s", e.Message)
}

// DownloadError is returned when the finished artifact could not be retrieved.
type DownloadError struct {
	Locator    ArtifactLocator
	StatusCode int
	Message    string
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download video: %s", e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// describe extracts the status code and a message from a client error. API
// errors report the provider's raw body.
func describe(err error) (int, string) {
	var apiErr *resilient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Raw()
	}
	return 0, err.Error()
}
