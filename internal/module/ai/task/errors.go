package task

import (
	"errors"
	"fmt"

	"github.com/promptreel/server/internal/module/ai/veo"
)

// StorageError wraps a failure to persist a downloaded artifact.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store artifact %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// classify maps an orchestration error to the error recorded on the task.
func classify(err error) *Error {
	var (
		submitErr   *veo.SubmissionError
		pollErr     *veo.PollError
		timeoutErr  *veo.TimeoutError
		failure     *veo.ProviderFailure
		downloadErr *veo.DownloadError
		storageErr  *StorageError
	)

	code := CodeInternal
	switch {
	case errors.Is(err, veo.ErrInvalidRequest):
		code = CodeInvalidRequest
	case errors.As(err, &submitErr):
		code = CodeSubmissionFailed
	case errors.As(err, &pollErr):
		code = CodePollFailed
	case errors.As(err, &timeoutErr):
		code = CodeTimeout
	case errors.As(err, &failure):
		code = CodeProviderFailure
	case errors.As(err, &downloadErr):
		code = CodeDownloadFailed
	case errors.As(err, &storageErr):
		code = CodeStorageFailed
	case errors.Is(err, veo.ErrProviderUnavailable):
		code = CodeProviderUnavailable
	}

	return &Error{Code: code, Message: err.Error()}
}
