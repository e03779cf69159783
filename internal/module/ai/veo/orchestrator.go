package veo

import (
	"context"
	"log/slog"
	"time"

	"github.com/promptreel/server/internal/module/ai/prompt"
)

// JobSubmitter starts a generation job.
type JobSubmitter interface {
	Start(ctx context.Context, req GenerationRequest) (OperationHandle, error)
}

// StatusPoller waits for a job to reach a terminal state.
type StatusPoller interface {
	Watch(ctx context.Context, handle OperationHandle, deadline time.Duration, onStatus func(Status)) (Status, error)
}

// ResultFetcher retrieves a finished artifact.
type ResultFetcher interface {
	Download(ctx context.Context, locator ArtifactLocator) ([]byte, error)
}

// Job is one end-to-end generation. Text is used when Prompt renders empty.
type Job struct {
	Prompt  prompt.Document
	Text    string
	Options Options
	Observe func(Event)
}

// PromptText returns the transcript sent to the provider.
func (j Job) PromptText() string {
	if t := prompt.Translate(j.Prompt); t != "" {
		return t
	}
	return j.Text
}

func (j Job) emit(e Event) {
	if j.Observe != nil {
		j.Observe(e)
	}
}

// Orchestrator runs translate, submit, await and fetch in order. Errors from each
// stage are returned unchanged and nothing is ever resubmitted.
type Orchestrator struct {
	submitter JobSubmitter
	poller    StatusPoller
	fetcher   ResultFetcher
	logger    *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(submitter JobSubmitter, poller StatusPoller, fetcher ResultFetcher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		submitter: submitter,
		poller:    poller,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Generate submits the job and returns the video bytes once it has finished.
func (o *Orchestrator) Generate(ctx context.Context, job Job, deadline time.Duration) ([]byte, error) {
	req, err := NewGenerationRequest(job.PromptText(), job.Options)
	if err != nil {
		return nil, err
	}

	handle, err := o.submitter.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	job.emit(Event{Kind: EventSubmitted, Handle: handle, Status: Status{Handle: handle, State: StatePending}})

	return o.complete(ctx, handle, deadline, job.emit)
}

// Resume waits for and downloads an operation that was submitted earlier, for
// example before a restart.
func (o *Orchestrator) Resume(ctx context.Context, handle OperationHandle, deadline time.Duration, observe func(Event)) ([]byte, error) {
	o.logger.InfoContext(ctx, "resuming video generation", "operation", handle)
	return o.complete(ctx, handle, deadline, Job{Observe: observe}.emit)
}

func (o *Orchestrator) complete(ctx context.Context, handle OperationHandle, deadline time.Duration, emit func(Event)) ([]byte, error) {
	status, err := o.poller.Watch(ctx, handle, deadline, func(s Status) {
		emit(Event{Kind: EventStatus, Handle: handle, Status: s})
	})
	if err != nil {
		return nil, err
	}
	emit(Event{Kind: EventStatus, Handle: handle, Status: status})

	if status.State == StateFailed {
		return nil, &ProviderFailure{Handle: handle, Message: status.Error}
	}

	data, err := o.fetcher.Download(ctx, status.Locator)
	if err != nil {
		return nil, err
	}
	emit(Event{Kind: EventDownloaded, Handle: handle, Status: status, Size: len(data)})

	return data, nil
}
