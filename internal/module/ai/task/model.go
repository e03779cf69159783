package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/promptreel/server/internal/module/ai/prompt"
	"github.com/promptreel/server/internal/module/ai/veo"
)

// Status represents the status of a video task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Error codes recorded on failed tasks.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeSubmissionFailed    = "SUBMISSION_FAILED"
	CodePollFailed          = "POLL_FAILED"
	CodeTimeout             = "TIMEOUT"
	CodeProviderFailure     = "PROVIDER_FAILURE"
	CodeDownloadFailed      = "DOWNLOAD_FAILED"
	CodeStorageFailed       = "STORAGE_FAILED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeInterrupted         = "INTERRUPTED"
	CodeInternal            = "INTERNAL_ERROR"
)

// Error represents a task error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Input is what a client asked for. Prompt is kept as received and parsed
// leniently when the task runs.
type Input struct {
	Prompt          json.RawMessage `json:"prompt,omitempty" swaggertype:"object"`
	PromptID        uint            `json:"prompt_id,omitempty"`
	Text            string          `json:"text,omitempty"`
	Options         veo.Options     `json:"options"`
	DeadlineSeconds int             `json:"deadline_seconds,omitempty"`
}

// Job converts the input into an orchestrator job.
func (in Input) Job() veo.Job {
	return veo.Job{
		Prompt:  prompt.Parse(in.Prompt),
		Text:    in.Text,
		Options: in.Options,
	}
}

// Task represents a video generation task.
type Task struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Status          Status     `json:"status" gorm:"not null;index"`
	ProviderState   veo.State  `json:"provider_state,omitempty"`
	Input           Input      `json:"input" gorm:"type:jsonb;serializer:json;not null"`
	OperationHandle string     `json:"operation,omitempty" gorm:"column:operation_handle;index"`
	ArtifactKey     string     `json:"artifact_key,omitempty"`
	ArtifactSize    int64      `json:"artifact_size,omitempty"`
	Error           *Error     `json:"error,omitempty" gorm:"type:jsonb;serializer:json"`
	DeadlineSeconds int        `json:"deadline_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the table name for Task.
func (Task) TableName() string {
	return "video_tasks"
}

// IsTerminal checks if the task is in a terminal state.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// IsSubmitted reports whether the provider has accepted the task.
func (t *Task) IsSubmitted() bool {
	return t.OperationHandle != ""
}

// Deadline returns the overall deadline of the task.
func (t *Task) Deadline() time.Duration {
	return time.Duration(t.DeadlineSeconds) * time.Second
}

// Remaining returns how much of the deadline is left at now, counted from
// submission. A task that was never submitted has its whole deadline left.
func (t *Task) Remaining(now time.Time) time.Duration {
	if t.SubmittedAt == nil {
		return t.Deadline()
	}
	return t.Deadline() - now.Sub(*t.SubmittedAt)
}

// Clone returns a copy that shares no mutable state with t.
func (t *Task) Clone() *Task {
	c := *t
	if t.Error != nil {
		e := *t.Error
		c.Error = &e
	}
	if t.SubmittedAt != nil {
		s := *t.SubmittedAt
		c.SubmittedAt = &s
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	return &c
}

// Filter represents task filter options.
type Filter struct {
	Status   *Status
	Limit    int
	Offset   int
	OrderDir string
}
