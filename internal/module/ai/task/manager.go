package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptreel/server/internal/module/ai/veo"
)

// Generator runs provider jobs. It is implemented by *veo.Orchestrator.
type Generator interface {
	Generate(ctx context.Context, job veo.Job, deadline time.Duration) ([]byte, error)
	Resume(ctx context.Context, handle veo.OperationHandle, deadline time.Duration, observe func(veo.Event)) ([]byte, error)
}

// ArtifactStore persists finished videos.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// StatusCache keeps the latest view of running tasks. Get returns (nil, nil) on a miss.
type StatusCache interface {
	Get(ctx context.Context, id uuid.UUID) (*Task, error)
	Set(ctx context.Context, task *Task) error
}

// Guard suspends provider calls after repeated failures. Both methods return an
// error wrapping veo.ErrProviderUnavailable while calls are suspended.
type Guard interface {
	Allow() error
	Execute(fn func() error) error
}

// Recorder receives job metrics.
type Recorder interface {
	JobStarted()
	RecordJob(outcome string, duration time.Duration)
}

// VideoContentType is the content type of stored artifacts.
const VideoContentType = "video/mp4"

// Config contains manager configuration.
type Config struct {
	MaxConcurrent   int           `json:"max_concurrent" yaml:"max_concurrent"`
	DefaultDeadline time.Duration `json:"default_deadline" yaml:"default_deadline"`
	MaxDeadline     time.Duration `json:"max_deadline" yaml:"max_deadline"`
	ArtifactPrefix  string        `json:"artifact_prefix" yaml:"artifact_prefix"`
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:   10,
		DefaultDeadline: veo.DefaultDeadline,
		MaxDeadline:     30 * time.Minute,
		ArtifactPrefix:  "videos",
	}
}

// Manager runs video tasks in the background and records their progress.
type Manager struct {
	repo      Repository
	generator Generator
	store     ArtifactStore
	cache     StatusCache
	guard     Guard
	recorder  Recorder
	logger    *zap.Logger
	config    *Config
	now       func() time.Time

	// Concurrency control
	semaphore chan struct{}

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures optional manager collaborators.
type Option func(*Manager)

// WithStatusCache sets the status cache.
func WithStatusCache(c StatusCache) Option {
	return func(m *Manager) { m.cache = c }
}

// WithGuard sets the provider guard.
func WithGuard(g Guard) Option {
	return func(m *Manager) { m.guard = g }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new task manager.
func NewManager(repo Repository, generator Generator, store ArtifactStore, logger *zap.Logger, config *Config, opts ...Option) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	if config.DefaultDeadline <= 0 {
		config.DefaultDeadline = veo.DefaultDeadline
	}
	if config.MaxDeadline < config.DefaultDeadline {
		config.MaxDeadline = config.DefaultDeadline
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		repo:      repo,
		generator: generator,
		store:     store,
		logger:    logger.Named("task-manager"),
		config:    config,
		now:       time.Now,
		semaphore: make(chan struct{}, config.MaxConcurrent),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start recovers tasks left unfinished by a previous process. Submitted tasks
// resume polling their operation; the rest are queued again.
func (m *Manager) Start(ctx context.Context) error {
	m.logger.Info("starting task manager",
		zap.Int("max_concurrent", m.config.MaxConcurrent),
		zap.Duration("default_deadline", m.config.DefaultDeadline))

	tasks, err := m.repo.ListPendingOrRunning(ctx)
	if err != nil {
		return fmt.Errorf("recover pending tasks: %w", err)
	}

	m.logger.Info("recovering tasks", zap.Int("count", len(tasks)))

	for _, task := range tasks {
		if task.IsSubmitted() {
			if task.Remaining(m.now()) <= 0 {
				m.fail(ctx, task, &Error{
					Code:    CodeInterrupted,
					Message: fmt.Sprintf("operation %s was interrupted and its deadline has passed", task.OperationHandle),
				})
				continue
			}
			m.wg.Add(1)
			go m.run(task)
			continue
		}

		if task.Status == StatusRunning {
			task.Status = StatusPending
			task.UpdatedAt = m.now()
			if err := m.repo.Update(ctx, task); err != nil {
				m.logger.Warn("failed to reset task status",
					zap.String("task_id", task.ID.String()),
					zap.Error(err))
				continue
			}
		}

		m.wg.Add(1)
		go m.run(task)
	}

	return nil
}

// Stop interrupts running tasks and waits for them to return. Interrupted tasks
// keep their state and are recovered by the next Start.
func (m *Manager) Stop() {
	m.logger.Info("stopping task manager")
	m.cancel()
	m.wg.Wait()
	m.logger.Info("task manager stopped")
}

// Submit validates and persists a task, then runs it in the background.
func (m *Manager) Submit(ctx context.Context, in Input) (*Task, error) {
	deadline, err := m.deadline(in.DeadlineSeconds)
	if err != nil {
		return nil, err
	}

	job := in.Job()
	if _, err := veo.NewGenerationRequest(job.PromptText(), job.Options); err != nil {
		return nil, err
	}

	if m.guard != nil {
		if err := m.guard.Allow(); err != nil {
			return nil, err
		}
	}

	now := m.now()
	task := &Task{
		ID:              uuid.New(),
		Status:          StatusPending,
		Input:           in,
		DeadlineSeconds: int(deadline / time.Second),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	m.cacheTask(ctx, task)

	m.logger.Debug("task submitted",
		zap.String("task_id", task.ID.String()),
		zap.Int("deadline_seconds", task.DeadlineSeconds))

	result := task.Clone()

	m.wg.Add(1)
	go m.run(task)

	return result, nil
}

// Get retrieves a task by ID, preferring the status cache.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	if m.cache != nil {
		task, err := m.cache.Get(ctx, id)
		if err != nil {
			m.logger.Warn("status cache read failed", zap.String("task_id", id.String()), zap.Error(err))
		} else if task != nil {
			return task, nil
		}
	}

	task, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cacheTask(ctx, task)
	return task, nil
}

// List lists tasks.
func (m *Manager) List(ctx context.Context, filter *Filter) ([]*Task, error) {
	return m.repo.List(ctx, filter)
}

func (m *Manager) deadline(seconds int) (time.Duration, error) {
	switch {
	case seconds < 0:
		return 0, fmt.Errorf("%w: negative deadline", veo.ErrInvalidRequest)
	case seconds == 0:
		return m.config.DefaultDeadline, nil
	}
	d := time.Duration(seconds) * time.Second
	if d > m.config.MaxDeadline {
		return 0, fmt.Errorf("%w: deadline exceeds %s", veo.ErrInvalidRequest, m.config.MaxDeadline)
	}
	return d, nil
}

// run executes a task to completion.
func (m *Manager) run(task *Task) {
	defer m.wg.Done()

	// Acquire semaphore
	select {
	case <-m.ctx.Done():
		return
	case m.semaphore <- struct{}{}:
		defer func() { <-m.semaphore }()
	}

	ctx := m.ctx
	log := m.logger.With(zap.String("task_id", task.ID.String()))
	started := m.now()
	if m.recorder != nil {
		m.recorder.JobStarted()
	}

	task.Status = StatusRunning
	task.UpdatedAt = started
	if err := m.repo.Update(ctx, task); err != nil {
		log.Error("failed to update task status", zap.Error(err))
		m.record("error", started)
		return
	}
	m.cacheTask(ctx, task)

	data, err := m.execute(ctx, task, log)
	if err == nil {
		err = m.storeArtifact(ctx, task, data)
	}

	switch {
	case err == nil:
		now := m.now()
		task.Status = StatusCompleted
		task.ProviderState = veo.StateCompleted
		task.CompletedAt = &now
		task.UpdatedAt = now
		m.save(context.WithoutCancel(ctx), task)
		log.Info("task completed",
			zap.String("operation", task.OperationHandle),
			zap.Int64("size", task.ArtifactSize),
			zap.Duration("elapsed", now.Sub(started)))
		m.record("completed", started)

	case ctx.Err() != nil:
		// Shutdown: leave the task for recovery.
		log.Info("task interrupted by shutdown", zap.String("operation", task.OperationHandle))
		m.record("interrupted", started)

	default:
		taskErr := classify(err)
		m.fail(context.WithoutCancel(ctx), task, taskErr)
		log.Warn("task failed",
			zap.String("operation", task.OperationHandle),
			zap.String("code", taskErr.Code),
			zap.Error(err))
		m.record(taskErr.Code, started)
	}
}

func (m *Manager) execute(ctx context.Context, task *Task, log *zap.Logger) ([]byte, error) {
	observe := func(e veo.Event) {
		switch e.Kind {
		case veo.EventSubmitted:
			now := m.now()
			task.OperationHandle = string(e.Handle)
			task.ProviderState = veo.StatePending
			task.SubmittedAt = &now
			task.UpdatedAt = now
			m.save(ctx, task)
			log.Info("operation started", zap.String("operation", task.OperationHandle))
		case veo.EventStatus:
			if task.ProviderState == e.Status.State {
				return
			}
			task.ProviderState = e.Status.State
			task.UpdatedAt = m.now()
			m.save(ctx, task)
		}
	}

	var data []byte
	call := func() error {
		var err error
		if task.IsSubmitted() {
			remaining := task.Remaining(m.now())
			if remaining <= 0 {
				return &veo.TimeoutError{Handle: veo.OperationHandle(task.OperationHandle), Deadline: task.Deadline()}
			}
			data, err = m.generator.Resume(ctx, veo.OperationHandle(task.OperationHandle), remaining, observe)
		} else {
			job := task.Input.Job()
			job.Observe = observe
			data, err = m.generator.Generate(ctx, job, task.Deadline())
		}
		return err
	}

	if m.guard == nil {
		return data, call()
	}
	return data, m.guard.Execute(call)
}

func (m *Manager) storeArtifact(ctx context.Context, task *Task, data []byte) error {
	key := fmt.Sprintf("%s/%s.mp4", m.config.ArtifactPrefix, task.ID)
	if err := m.store.Put(ctx, key, data, VideoContentType); err != nil {
		return &StorageError{Key: key, Err: err}
	}
	task.ArtifactKey = key
	task.ArtifactSize = int64(len(data))
	return nil
}

// fail marks a task as failed.
func (m *Manager) fail(ctx context.Context, task *Task, taskErr *Error) {
	now := m.now()
	task.Status = StatusFailed
	task.Error = taskErr
	task.CompletedAt = &now
	task.UpdatedAt = now
	m.save(ctx, task)
}

func (m *Manager) save(ctx context.Context, task *Task) {
	if err := m.repo.Update(ctx, task); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("failed to update task",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}
	m.cacheTask(ctx, task)
}

func (m *Manager) cacheTask(ctx context.Context, task *Task) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, task.Clone()); err != nil {
		m.logger.Warn("status cache write failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}
}

func (m *Manager) record(outcome string, started time.Time) {
	if m.recorder != nil {
		m.recorder.RecordJob(outcome, m.now().Sub(started))
	}
}
