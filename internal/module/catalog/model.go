// Package catalog serves the library of stored video prompts and generates
// LLM-backed variations of them.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Prompt is a stored structured prompt.
type Prompt struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Number          int            `json:"promptNumber" gorm:"column:prompt_number;uniqueIndex"`
	Title           string         `json:"title" gorm:"size:255;not null"`
	Description     string         `json:"description,omitempty" gorm:"type:text"`
	Category        string         `json:"category" gorm:"size:100;index;not null"`
	VisualStyle     string         `json:"visualStyle,omitempty" gorm:"column:visual_style;size:100"`
	Tags            pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	DurationSeconds int            `json:"durationSeconds,omitempty" gorm:"column:duration_seconds"`
	PromptJSON      string         `json:"promptJson" gorm:"column:prompt_json;type:jsonb;not null"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// TableName returns the table name.
func (Prompt) TableName() string {
	return "prompts"
}

// ListResult is a page of prompts.
type ListResult struct {
	Prompts []*Prompt `json:"prompts"`
	Total   int       `json:"total"`
}

// VariationParams selects the aspects a variation may change. No flag set
// means every aspect may change.
type VariationParams struct {
	Subject   bool `json:"subject,omitempty"`
	Location  bool `json:"location,omitempty"`
	Style     bool `json:"style,omitempty"`
	Equipment bool `json:"equipment,omitempty"`
	Lighting  bool `json:"lighting,omitempty"`
	Action    bool `json:"action,omitempty"`
	Audio     bool `json:"audio,omitempty"`
	Technical bool `json:"technical,omitempty"`
}

// VariationRequest asks for variations of a stored prompt.
type VariationRequest struct {
	PromptID   uint            `json:"promptId" binding:"required"`
	Variations VariationParams `json:"variations"`
	Count      int             `json:"count,omitempty"`
}

// Variation is one generated prompt.
type Variation struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data" swaggertype:"object"`
}

// VariationResult holds the generated variations and the source prompt.
type VariationResult struct {
	Variations []Variation     `json:"variations"`
	Original   json.RawMessage `json:"original" swaggertype:"object"`
}
