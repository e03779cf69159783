package veo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/promptreel/server/pkg/resilient"
)

// operation is the long-running operation resource returned by the provider.
type operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
			RAIMediaFilteredCount   int      `json:"raiMediaFilteredCount"`
			RAIMediaFilteredReasons []string `json:"raiMediaFilteredReasons"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (op *operation) status(handle OperationHandle) Status {
	if !op.Done {
		return Status{Handle: handle, State: StateProcessing}
	}

	if op.Error != nil {
		msg := op.Error.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return Status{Handle: handle, State: StateFailed, Error: msg}
	}

	if op.Response != nil && op.Response.GenerateVideoResponse != nil {
		resp := op.Response.GenerateVideoResponse
		if len(resp.GeneratedSamples) > 0 && resp.GeneratedSamples[0].Video.URI != "" {
			return Status{
				Handle:  handle,
				State:   StateCompleted,
				Locator: ArtifactLocator(resp.GeneratedSamples[0].Video.URI),
			}
		}
		if len(resp.RAIMediaFilteredReasons) > 0 {
			return Status{
				Handle: handle,
				State:  StateFailed,
				Error:  "video filtered: " + strings.Join(resp.RAIMediaFilteredReasons, "; "),
			}
		}
	}

	return Status{Handle: handle, State: StateFailed, Error: "operation finished without a video"}
}

// PollRecorder receives one call per status query.
type PollRecorder interface {
	RecordPoll(state string)
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollInterval sets the delay between status queries.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces the time source and the sleep function.
func WithClock(now func() time.Time, sleep resilient.SleepFunc) PollerOption {
	return func(p *Poller) {
		p.now = now
		p.sleep = sleep
	}
}

// WithPollRecorder reports every status query to r.
func WithPollRecorder(r PollRecorder) PollerOption {
	return func(p *Poller) {
		p.recorder = r
	}
}

// Poller queries operation status until it reaches a terminal state.
type Poller struct {
	client   *resilient.Client
	interval time.Duration
	logger   *slog.Logger
	recorder PollRecorder
	now      func() time.Time
	sleep    resilient.SleepFunc
}

// NewPoller creates a new poller.
func NewPoller(client *resilient.Client, logger *slog.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		client:   client,
		interval: DefaultPollInterval,
		logger:   logger,
		now:      time.Now,
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll performs a single status query.
func (p *Poller) Poll(ctx context.Context, handle OperationHandle) (Status, error) {
	var op operation
	err := p.client.DoJSON(ctx, &resilient.Request{
		Method: http.MethodGet,
		Path:   string(handle),
	}, &op)
	if err != nil {
		if p.recorder != nil {
			p.recorder.RecordPoll("error")
		}
		code, msg := describe(err)
		return Status{}, &PollError{Handle: handle, StatusCode: code, Message: msg, Err: err}
	}

	status := op.status(handle)
	if p.recorder != nil {
		p.recorder.RecordPoll(string(status.State))
	}
	return status, nil
}

// AwaitCompletion polls until the operation is terminal or the deadline passes.
func (p *Poller) AwaitCompletion(ctx context.Context, handle OperationHandle, deadline time.Duration) (Status, error) {
	return p.Watch(ctx, handle, deadline, nil)
}

// Watch is AwaitCompletion with a callback invoked for every non-terminal status.
//
// A poll that still fails with a retryable error after the client's own retries
// is logged and the loop continues; any other poll failure is returned. On timeout
// the remote operation is left running.
func (p *Poller) Watch(ctx context.Context, handle OperationHandle, deadline time.Duration, onStatus func(Status)) (Status, error) {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}

	start := p.now()
	polls := 0
	for {
		elapsed := p.now().Sub(start)
		if elapsed >= deadline {
			p.logger.WarnContext(ctx, "video generation deadline exceeded",
				"operation", handle,
				"deadline", deadline,
				"polls", polls)
			return Status{}, &TimeoutError{Handle: handle, Deadline: deadline, Elapsed: elapsed, Polls: polls}
		}

		status, err := p.Poll(ctx, handle)
		polls++
		if err != nil {
			if ctx.Err() != nil {
				return Status{}, ctx.Err()
			}
			if !p.transient(err) {
				return Status{}, err
			}
			p.logger.WarnContext(ctx, "operation poll failed, will retry",
				"operation", handle,
				"poll", polls,
				"error", err)
		} else {
			if status.IsTerminal() {
				p.logger.InfoContext(ctx, "video generation finished",
					"operation", handle,
					"state", status.State,
					"polls", polls,
					"elapsed", p.now().Sub(start))
				return status, nil
			}
			if onStatus != nil {
				onStatus(status)
			}
		}

		remaining := deadline - p.now().Sub(start)
		wait := min(p.interval, remaining)
		if wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return Status{}, err
			}
		}
	}
}

func (p *Poller) transient(err error) bool {
	var pollErr *PollError
	if !errors.As(err, &pollErr) {
		return false
	}
	return p.client.Policy().Classifier(pollErr.Err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
