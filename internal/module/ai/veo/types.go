// Package veo drives long-running video generation jobs on Google Veo through the
// Gemini API: submit, poll to completion under a deadline, then download.
package veo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Provider defaults.
const (
	DefaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel        = "veo-3.1-generate-preview"
	DefaultPollInterval = 10 * time.Second
	DefaultDeadline     = 360 * time.Second

	DefaultAspectRatio     = "16:9"
	DefaultDurationSeconds = 8
	DefaultResolution      = "720p"
)

// ErrInvalidRequest is returned when a generation request fails validation.
var ErrInvalidRequest = errors.New("invalid generation request")

var validate = validator.New()

// Options are the optional generation parameters.
type Options struct {
	AspectRatio     string `json:"aspect_ratio,omitempty" validate:"omitempty,oneof=16:9 9:16"`
	DurationSeconds int    `json:"duration_seconds,omitempty" validate:"omitempty,oneof=4 6 8"`
	Resolution      string `json:"resolution,omitempty" validate:"omitempty,oneof=720p 1080p"`
	NegativePrompt  string `json:"negative_prompt,omitempty" validate:"omitempty,max=2000"`
}

// WithDefaults fills unset options with the provider defaults.
func (o Options) WithDefaults() Options {
	if o.AspectRatio == "" {
		o.AspectRatio = DefaultAspectRatio
	}
	if o.DurationSeconds == 0 {
		o.DurationSeconds = DefaultDurationSeconds
	}
	if o.Resolution == "" {
		o.Resolution = DefaultResolution
	}
	return o
}

// Validate checks the options against the values the provider accepts.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s=%v", fe.Field(), fe.Value()))
			}
			return fmt.Errorf("%w: unsupported %s", ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// GenerationRequest is a validated, immutable generation request.
type GenerationRequest struct {
	prompt  string
	options Options
}

// NewGenerationRequest validates the prompt and options and applies defaults.
func NewGenerationRequest(prompt string, opts Options) (GenerationRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return GenerationRequest{}, fmt.Errorf("%w: empty prompt", ErrInvalidRequest)
	}
	if err := opts.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{prompt: prompt, options: opts.WithDefaults()}, nil
}

// Prompt returns the prompt text.
func (r GenerationRequest) Prompt() string {
	return r.prompt
}

// Options returns the options with defaults applied.
func (r GenerationRequest) Options() Options {
	return r.options
}

// OperationHandle is the provider-issued name of a long-running operation.
type OperationHandle string

// ArtifactLocator is the URI of a finished video.
type ArtifactLocator string

// State is the lifecycle state of an operation.
type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Status is one observation of an operation.
type Status struct {
	Handle  OperationHandle `json:"handle"`
	State   State           `json:"state"`
	Locator ArtifactLocator `json:"locator,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// IsTerminal reports whether the operation has finished.
func (s Status) IsTerminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// EventKind identifies an orchestration event.
type EventKind string

const (
	EventSubmitted  EventKind = "submitted"
	EventStatus     EventKind = "status"
	EventDownloaded EventKind = "downloaded"
)

// Event is reported to a job's observer as the orchestration progresses.
type Event struct {
	Kind   EventKind
	Handle OperationHandle
	Status Status
	Size   int
}
