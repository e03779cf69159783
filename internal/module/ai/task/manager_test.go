package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptreel/server/internal/module/ai/veo"
)

// MockRepository implements Repository for testing.
type MockRepository struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*Task
	err     error
	created int
}

func NewMockRepository(tasks ...*Task) *MockRepository {
	m := &MockRepository{tasks: make(map[uuid.UUID]*Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t.Clone()
	}
	return m
}

func (m *MockRepository) Create(_ context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tasks[task.ID] = task.Clone()
	m.created++
	return nil
}

func (m *MockRepository) Get(_ context.Context, id uuid.UUID) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (m *MockRepository) GetByOperation(_ context.Context, handle string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		if task.OperationHandle == handle {
			return task.Clone(), nil
		}
	}
	return nil, ErrTaskNotFound
}

func (m *MockRepository) List(_ context.Context, filter *Filter) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Task
	for _, task := range m.tasks {
		if filter != nil && filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		result = append(result, task.Clone())
	}
	return result, nil
}

func (m *MockRepository) Update(_ context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

func (m *MockRepository) ListPendingOrRunning(_ context.Context) ([]*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Task
	for _, task := range m.tasks {
		if task.Status == StatusPending || task.Status == StatusRunning {
			result = append(result, task.Clone())
		}
	}
	return result, nil
}

// MockGenerator implements Generator for testing.
type MockGenerator struct {
	mu        sync.Mutex
	generate  func(ctx context.Context, job veo.Job) ([]byte, error)
	resume    func(ctx context.Context, handle veo.OperationHandle) ([]byte, error)
	generated []veo.Job
	resumed   []veo.OperationHandle
	deadlines []time.Duration
}

func (g *MockGenerator) Generate(ctx context.Context, job veo.Job, deadline time.Duration) ([]byte, error) {
	g.mu.Lock()
	g.generated = append(g.generated, job)
	g.deadlines = append(g.deadlines, deadline)
	g.mu.Unlock()
	return g.generate(ctx, job)
}

func (g *MockGenerator) Resume(ctx context.Context, handle veo.OperationHandle, deadline time.Duration, observe func(veo.Event)) ([]byte, error) {
	g.mu.Lock()
	g.resumed = append(g.resumed, handle)
	g.deadlines = append(g.deadlines, deadline)
	g.mu.Unlock()
	observe(veo.Event{Kind: veo.EventStatus, Handle: handle, Status: veo.Status{Handle: handle, State: veo.StateProcessing}})
	return g.resume(ctx, handle)
}

func (g *MockGenerator) calls() (generated int, resumed []veo.OperationHandle, deadlines []time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.generated), append([]veo.OperationHandle(nil), g.resumed...), append([]time.Duration(nil), g.deadlines...)
}

// succeed submits handle and returns data.
func succeed(handle veo.OperationHandle, data string) func(context.Context, veo.Job) ([]byte, error) {
	return func(_ context.Context, job veo.Job) ([]byte, error) {
		job.Observe(veo.Event{Kind: veo.EventSubmitted, Handle: handle})
		job.Observe(veo.Event{Kind: veo.EventStatus, Handle: handle, Status: veo.Status{Handle: handle, State: veo.StateProcessing}})
		return []byte(data), nil
	}
}

// MockStore implements ArtifactStore for testing.
type MockStore struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func NewMockStore() *MockStore {
	return &MockStore{items: make(map[string][]byte)}
}

func (s *MockStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items[key] = data
	return nil
}

func (s *MockStore) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	return data, ok
}

// MockCache implements StatusCache for testing.
type MockCache struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

func NewMockCache() *MockCache {
	return &MockCache{tasks: make(map[uuid.UUID]*Task)}
}

func (c *MockCache) Get(_ context.Context, id uuid.UUID) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.tasks[id]; ok {
		return t.Clone(), nil
	}
	return nil, nil
}

func (c *MockCache) Set(_ context.Context, task *Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[task.ID] = task.Clone()
	return nil
}

// MockGuard implements Guard for testing.
type MockGuard struct {
	open bool
}

func (g *MockGuard) Allow() error {
	if g.open {
		return veo.ErrProviderUnavailable
	}
	return nil
}

func (g *MockGuard) Execute(fn func() error) error {
	if g.open {
		return veo.ErrProviderUnavailable
	}
	return fn()
}

// MockRecorder implements Recorder for testing.
type MockRecorder struct {
	mu       sync.Mutex
	started  int
	outcomes []string
}

func (r *MockRecorder) JobStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *MockRecorder) RecordJob(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *MockRecorder) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, append([]string(nil), r.outcomes...)
}

func waitForStatus(t *testing.T, repo *MockRepository, id uuid.UUID, status Status) *Task {
	t.Helper()
	var task *Task
	require.Eventually(t, func() bool {
		var err error
		task, err = repo.Get(context.Background(), id)
		return err == nil && task.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return task
}

func TestManager_Submit(t *testing.T) {
	t.Run("runs the job and stores the artifact", func(t *testing.T) {
		repo := NewMockRepository()
		store := NewMockStore()
		recorder := &MockRecorder{}
		gen := &MockGenerator{generate: succeed("operations/op-1", "mp4-bytes")}
		manager := NewManager(repo, gen, store, nil, nil, WithRecorder(recorder))
		defer manager.Stop()

		doc := json.RawMessage(`{"subject":{"description":"a red fox"}}`)
		task, err := manager.Submit(context.Background(), Input{Prompt: doc})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, task.Status)
		assert.Equal(t, 360, task.DeadlineSeconds)

		done := waitForStatus(t, repo, task.ID, StatusCompleted)
		assert.Equal(t, "operations/op-1", done.OperationHandle)
		assert.Equal(t, veo.StateCompleted, done.ProviderState)
		assert.Equal(t, "videos/"+task.ID.String()+".mp4", done.ArtifactKey)
		assert.Equal(t, int64(len("mp4-bytes")), done.ArtifactSize)
		assert.NotNil(t, done.SubmittedAt)
		assert.NotNil(t, done.CompletedAt)
		assert.Nil(t, done.Error)

		data, ok := store.get(done.ArtifactKey)
		require.True(t, ok)
		assert.Equal(t, "mp4-bytes", string(data))

		require.Eventually(t, func() bool {
			started, outcomes := recorder.snapshot()
			return started == 1 && len(outcomes) == 1 && outcomes[0] == "completed"
		}, time.Second, 5*time.Millisecond)

		gen.mu.Lock()
		assert.Equal(t, "a red fox", gen.generated[0].PromptText())
		gen.mu.Unlock()
	})

	t.Run("rejects invalid input before persisting", func(t *testing.T) {
		tests := []struct {
			name string
			in   Input
		}{
			{"empty prompt", Input{}},
			{"blank text", Input{Text: "   "}},
			{"unsupported duration", Input{Text: "a fox", Options: veo.Options{DurationSeconds: 5}}},
			{"unsupported aspect ratio", Input{Text: "a fox", Options: veo.Options{AspectRatio: "4:3"}}},
			{"negative deadline", Input{Text: "a fox", DeadlineSeconds: -1}},
			{"deadline above maximum", Input{Text: "a fox", DeadlineSeconds: 3600}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := NewMockRepository()
				gen := &MockGenerator{generate: succeed("operations/x", "x")}
				manager := NewManager(repo, gen, NewMockStore(), nil, nil)
				defer manager.Stop()

				_, err := manager.Submit(context.Background(), tt.in)
				assert.ErrorIs(t, err, veo.ErrInvalidRequest)
				assert.Zero(t, repo.created)
			})
		}
	})

	t.Run("honors a custom deadline", func(t *testing.T) {
		repo := NewMockRepository()
		gen := &MockGenerator{generate: succeed("operations/op-2", "x")}
		manager := NewManager(repo, gen, NewMockStore(), nil, nil)
		defer manager.Stop()

		task, err := manager.Submit(context.Background(), Input{Text: "a fox", DeadlineSeconds: 600})
		require.NoError(t, err)
		waitForStatus(t, repo, task.ID, StatusCompleted)

		_, _, deadlines := gen.calls()
		assert.Equal(t, []time.Duration{10 * time.Minute}, deadlines)
	})

	t.Run("rejects new jobs while the provider is unavailable", func(t *testing.T) {
		repo := NewMockRepository()
		gen := &MockGenerator{generate: succeed("operations/x", "x")}
		manager := NewManager(repo, gen, NewMockStore(), nil, nil, WithGuard(&MockGuard{open: true}))
		defer manager.Stop()

		_, err := manager.Submit(context.Background(), Input{Text: "a fox"})
		assert.ErrorIs(t, err, veo.ErrProviderUnavailable)
		assert.Zero(t, repo.created)
	})

	t.Run("returns repository errors", func(t *testing.T) {
		repo := NewMockRepository()
		repo.err = errors.New("db down")
		gen := &MockGenerator{generate: succeed("operations/x", "x")}
		manager := NewManager(repo, gen, NewMockStore(), nil, nil)
		defer manager.Stop()

		_, err := manager.Submit(context.Background(), Input{Text: "a fox"})
		assert.ErrorContains(t, err, "db down")
	})
}

func TestManager_FailureCodes(t *testing.T) {
	handle := veo.OperationHandle("operations/op-err")
	tests := []struct {
		name     string
		err      error
		storeErr error
		code     string
	}{
		{"submission", &veo.SubmissionError{StatusCode: 400, Message: "bad"}, nil, CodeSubmissionFailed},
		{"poll", &veo.PollError{Handle: handle, StatusCode: 404, Message: "gone"}, nil, CodePollFailed},
		{"timeout", &veo.TimeoutError{Handle: handle, Deadline: time.Minute}, nil, CodeTimeout},
		{"provider failure", &veo.ProviderFailure{Handle: handle, Message: "filtered"}, nil, CodeProviderFailure},
		{"download", &veo.DownloadError{Locator: "https://x/v.mp4", StatusCode: 403}, nil, CodeDownloadFailed},
		{"storage", nil, errors.New("bucket missing"), CodeStorageFailed},
		{"unknown", errors.New("boom"), nil, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepository()
			store := NewMockStore()
			store.err = tt.storeErr
			recorder := &MockRecorder{}
			gen := &MockGenerator{generate: func(_ context.Context, job veo.Job) ([]byte, error) {
				job.Observe(veo.Event{Kind: veo.EventSubmitted, Handle: handle})
				if tt.err != nil {
					return nil, tt.err
				}
				return []byte("video"), nil
			}}
			manager := NewManager(repo, gen, store, nil, nil, WithRecorder(recorder))
			defer manager.Stop()

			task, err := manager.Submit(context.Background(), Input{Text: "a fox"})
			require.NoError(t, err)

			failed := waitForStatus(t, repo, task.ID, StatusFailed)
			require.NotNil(t, failed.Error)
			assert.Equal(t, tt.code, failed.Error.Code)
			assert.NotEmpty(t, failed.Error.Message)
			assert.Equal(t, string(handle), failed.OperationHandle)
			assert.Empty(t, failed.ArtifactKey)

			require.Eventually(t, func() bool {
				_, outcomes := recorder.snapshot()
				return len(outcomes) == 1 && outcomes[0] == tt.code
			}, time.Second, 5*time.Millisecond)
		})
	}
}

func TestManager_Start(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	submittedAt := now.Add(-time.Minute)
	expiredAt := now.Add(-time.Hour)

	submitted := &Task{
		ID: uuid.New(), Status: StatusRunning, Input: Input{Text: "a fox"},
		OperationHandle: "operations/resume-me", SubmittedAt: &submittedAt,
		DeadlineSeconds: 360, CreatedAt: submittedAt,
	}
	expired := &Task{
		ID: uuid.New(), Status: StatusRunning, Input: Input{Text: "a fox"},
		OperationHandle: "operations/too-late", SubmittedAt: &expiredAt,
		DeadlineSeconds: 360, CreatedAt: expiredAt,
	}
	queued := &Task{
		ID: uuid.New(), Status: StatusRunning, Input: Input{Text: "a cat"},
		DeadlineSeconds: 360, CreatedAt: now,
	}
	finished := &Task{ID: uuid.New(), Status: StatusCompleted, CreatedAt: now}

	repo := NewMockRepository(submitted, expired, queued, finished)
	gen := &MockGenerator{
		generate: succeed("operations/new", "fresh"),
		resume: func(_ context.Context, _ veo.OperationHandle) ([]byte, error) {
			return []byte("resumed"), nil
		},
	}
	store := NewMockStore()
	manager := NewManager(repo, gen, store, nil, nil, WithClock(func() time.Time { return now }))
	defer manager.Stop()

	require.NoError(t, manager.Start(context.Background()))

	resumedTask := waitForStatus(t, repo, submitted.ID, StatusCompleted)
	assert.Equal(t, "operations/resume-me", resumedTask.OperationHandle)
	data, _ := store.get(resumedTask.ArtifactKey)
	assert.Equal(t, "resumed", string(data))

	requeued := waitForStatus(t, repo, queued.ID, StatusCompleted)
	assert.Equal(t, "operations/new", requeued.OperationHandle)

	interrupted := waitForStatus(t, repo, expired.ID, StatusFailed)
	require.NotNil(t, interrupted.Error)
	assert.Equal(t, CodeInterrupted, interrupted.Error.Code)

	generated, resumed, deadlines := gen.calls()
	assert.Equal(t, 1, generated)
	assert.Equal(t, []veo.OperationHandle{"operations/resume-me"}, resumed)
	assert.Contains(t, deadlines, 5*time.Minute)
}

func TestManager_StopLeavesTasksRecoverable(t *testing.T) {
	repo := NewMockRepository()
	submitted := make(chan struct{})
	gen := &MockGenerator{generate: func(ctx context.Context, job veo.Job) ([]byte, error) {
		job.Observe(veo.Event{Kind: veo.EventSubmitted, Handle: "operations/long"})
		close(submitted)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	recorder := &MockRecorder{}
	manager := NewManager(repo, gen, NewMockStore(), nil, nil, WithRecorder(recorder))

	task, err := manager.Submit(context.Background(), Input{Text: "a fox"})
	require.NoError(t, err)
	<-submitted

	manager.Stop()

	stored, err := repo.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, stored.Status)
	assert.Equal(t, "operations/long", stored.OperationHandle)
	assert.Nil(t, stored.Error)

	_, outcomes := recorder.snapshot()
	assert.Equal(t, []string{"interrupted"}, outcomes)
}

func TestManager_Get(t *testing.T) {
	existing := &Task{ID: uuid.New(), Status: StatusCompleted}
	repo := NewMockRepository(existing)
	cache := NewMockCache()
	manager := NewManager(repo, &MockGenerator{}, NewMockStore(), nil, nil, WithStatusCache(cache))
	defer manager.Stop()

	t.Run("falls back to the repository and fills the cache", func(t *testing.T) {
		task, err := manager.Get(context.Background(), existing.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, task.Status)

		cached, _ := cache.Get(context.Background(), existing.ID)
		require.NotNil(t, cached)
	})

	t.Run("prefers the cache", func(t *testing.T) {
		running := &Task{ID: existing.ID, Status: StatusRunning, ProviderState: veo.StateProcessing}
		require.NoError(t, cache.Set(context.Background(), running))

		task, err := manager.Get(context.Background(), existing.ID)
		require.NoError(t, err)
		assert.Equal(t, veo.StateProcessing, task.ProviderState)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := manager.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTask_Remaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &Task{DeadlineSeconds: 360}
	assert.Equal(t, 6*time.Minute, task.Remaining(now))

	submittedAt := now.Add(-2 * time.Minute)
	task.SubmittedAt = &submittedAt
	assert.Equal(t, 4*time.Minute, task.Remaining(now))
	assert.False(t, task.IsSubmitted())
}
