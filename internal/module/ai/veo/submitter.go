package veo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/promptreel/server/pkg/resilient"
)

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	AspectRatio     string `json:"aspectRatio"`
	DurationSeconds int    `json:"durationSeconds"`
	Resolution      string `json:"resolution"`
	NegativePrompt  string `json:"negativePrompt,omitempty"`
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictResponse struct {
	Name string `json:"name"`
}

// Submitter starts generation jobs.
type Submitter struct {
	client *resilient.Client
	model  string
	logger *slog.Logger
}

// NewSubmitter creates a new submitter for the given model.
func NewSubmitter(client *resilient.Client, model string, logger *slog.Logger) *Submitter {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Model returns the model jobs are submitted to.
func (s *Submitter) Model() string {
	return s.model
}

// Start submits the request and returns the operation handle. It returns either a
// handle or a *SubmissionError, never both.
func (s *Submitter) Start(ctx context.Context, req GenerationRequest) (OperationHandle, error) {
	opts := req.Options()
	body := predictRequest{
		Instances: []predictInstance{{Prompt: req.Prompt()}},
		Parameters: predictParameters{
			AspectRatio:     opts.AspectRatio,
			DurationSeconds: opts.DurationSeconds,
			Resolution:      opts.Resolution,
			NegativePrompt:  opts.NegativePrompt,
		},
	}

	var resp predictResponse
	err := s.client.DoJSON(ctx, &resilient.Request{
		Method: http.MethodPost,
		Path:   "models/" + s.model + ":predictLongRunning",
		Body:   body,
	}, &resp)
	if err != nil {
		code, msg := describe(err)
		return "", &SubmissionError{StatusCode: code, Message: msg, Err: err}
	}

	if resp.Name == "" {
		return "", &SubmissionError{
			StatusCode: http.StatusOK,
			Message:    "response carried no operation name",
			Err:        errors.New("empty operation name"),
		}
	}

	s.logger.InfoContext(ctx, "video generation started",
		"model", s.model,
		"operation", resp.Name,
		"aspect_ratio", opts.AspectRatio,
		"duration_seconds", opts.DurationSeconds,
		"resolution", opts.Resolution)

	return OperationHandle(resp.Name), nil
}
