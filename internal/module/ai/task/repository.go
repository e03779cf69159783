package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

// Repository defines the interface for task data access.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id uuid.UUID) (*Task, error)
	GetByOperation(ctx context.Context, handle string) (*Task, error)
	List(ctx context.Context, filter *Filter) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	ListPendingOrRunning(ctx context.Context) ([]*Task, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create creates a new task.
func (r *repository) Create(ctx context.Context, task *Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Get retrieves a task by ID.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// GetByOperation retrieves a task by its provider operation handle.
func (r *repository) GetByOperation(ctx context.Context, handle string) (*Task, error) {
	var task Task
	err := r.db.WithContext(ctx).First(&task, "operation_handle = ?", handle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by operation: %w", err)
	}
	return &task, nil
}

// List lists tasks with optional filters.
func (r *repository) List(ctx context.Context, filter *Filter) ([]*Task, error) {
	var tasks []*Task
	query := r.db.WithContext(ctx)

	orderDir := "DESC"
	if filter != nil {
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if strings.EqualFold(filter.OrderDir, "asc") {
			orderDir = "ASC"
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}
	query = query.Order("created_at " + orderDir)

	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update updates a task.
func (r *repository) Update(ctx context.Context, task *Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListPendingOrRunning lists all pending or running tasks, oldest first.
func (r *repository) ListPendingOrRunning(ctx context.Context) ([]*Task, error) {
	var tasks []*Task
	err := r.db.WithContext(ctx).
		Where("status IN ?", []Status{StatusPending, StatusRunning}).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list pending or running tasks: %w", err)
	}
	return tasks, nil
}
