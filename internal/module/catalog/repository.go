package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrPromptNotFound = errors.New("prompt not found")
)

// Repository defines the interface for prompt data access.
type Repository interface {
	List(ctx context.Context) ([]*Prompt, error)
	GetByID(ctx context.Context, id uint) (*Prompt, error)
	ListByCategory(ctx context.Context, category string) ([]*Prompt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new prompt repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// List returns every prompt ordered by number.
func (r *repository) List(ctx context.Context) ([]*Prompt, error) {
	var prompts []*Prompt
	if err := r.db.WithContext(ctx).Order("prompt_number ASC").Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return prompts, nil
}

// GetByID retrieves a prompt by ID.
func (r *repository) GetByID(ctx context.Context, id uint) (*Prompt, error) {
	var prompt Prompt
	err := r.db.WithContext(ctx).First(&prompt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return &prompt, nil
}

// ListByCategory returns the prompts of one category, matched case-insensitively.
func (r *repository) ListByCategory(ctx context.Context, category string) ([]*Prompt, error) {
	var prompts []*Prompt
	err := r.db.WithContext(ctx).
		Where("LOWER(category) = LOWER(?) OR ? = ANY(tags)", category, category).
		Order("prompt_number ASC").
		Find(&prompts).Error
	if err != nil {
		return nil, fmt.Errorf("list prompts by category: %w", err)
	}
	return prompts, nil
}
