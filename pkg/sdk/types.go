package sdk

import "encoding/json"

// VariationParams selects which aspects of a prompt a variation may change.
// Leaving every flag unset lets the model change anything.
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

// GenerateVariationOptions asks for variations of a stored prompt.
type GenerateVariationOptions struct {
	PromptID   uint            `json:"promptId"`
	Variations VariationParams `json:"variations"`
	// Count is the number of variations, 1 to 5. Zero means 1.
	Count int `json:"count"`
}

// GeneratedVariation is one generated prompt document.
type GeneratedVariation struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// GenerateVariationResult holds the variations and the prompt they came from.
type GenerateVariationResult struct {
	Variations []GeneratedVariation `json:"variations"`
	Original   json.RawMessage      `json:"original"`
}

// Prompt is a stored prompt.
type Prompt struct {
	ID              uint     `json:"id"`
	Number          int      `json:"promptNumber,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category"`
	VisualStyle     string   `json:"visualStyle,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
	PromptJSON      string   `json:"promptJson"`
}

// PromptsListResult is a list of prompts with the total count.
type PromptsListResult struct {
	Prompts []Prompt `json:"prompts"`
	Total   int      `json:"total"`
}

type envelope[T any] struct {
	Result struct {
		Data T `json:"data"`
	} `json:"result"`
}
