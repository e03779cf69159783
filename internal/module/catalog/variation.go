package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/promptreel/server/internal/module/ai/llm"
	"github.com/promptreel/server/internal/shared/logger"
)

const (
	// MaxVariations is the largest count accepted in one request.
	MaxVariations = 5
)

var (
	ErrInvalidVariationRequest = errors.New("invalid variation request")
	ErrMalformedVariation      = errors.New("model returned a malformed variation")
)

// sections are the prompt sections sent to the model, in order.
var sections = []string{
	"shot",
	"subject",
	"action",
	"scene",
	"cinematography",
	"audio",
	"visual_rules",
	"technical_specifications",
}

const variationSystemPrompt = `You are an expert in video prompt generation for OpenAI Sora 2 and Google Veo 3. You generate a variation of an existing prompt by modifying certain aspects while keeping the complete JSON structure and professional coherence.

The JSON structure must contain exactly these 8 sections:
1. shot (type, angle, framing, movement)
2. subject (age, gender, ethnicity, physical, facial_features, clothing, emotional_state)
3. action (sequences array with timing/primary_motion/camera_follows, duration)
4. scene (location, time_of_day, weather, lighting with type/quality/direction, atmosphere)
5. cinematography (camera, lens, aperture, iso, shutter_speed, white_balance, color_profile, stabilization)
6. audio (ambient_sound, music_style, voice_over)
7. visual_rules (realism, continuity)
8. technical_specifications (resolution, fps, aspect_ratio, color_space, bit_depth, codec, duration_seconds)

Variations must be creative and coherent. If you move the location from a modern office to a beach, adapt the lighting, the clothing and the sound atmosphere to match.`

// Service provides prompt catalog operations.
type Service struct {
	repo    Repository
	invoker llm.Invoker
	logger  *logger.Logger
	newID   func() string
}

// NewService creates a new catalog service.
func NewService(repo Repository, invoker llm.Invoker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:    repo,
		invoker: invoker,
		logger:  log.Named("catalog"),
		newID:   func() string { return uuid.NewString() },
	}
}

// List returns every prompt.
func (s *Service) List(ctx context.Context) (*ListResult, error) {
	prompts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{Prompts: prompts, Total: len(prompts)}, nil
}

// Get returns one prompt.
func (s *Service) Get(ctx context.Context, id uint) (*Prompt, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCategory returns the prompts of a category.
func (s *Service) ListByCategory(ctx context.Context, category string) (*ListResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidVariationRequest)
	}
	prompts, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return &ListResult{Prompts: prompts, Total: len(prompts)}, nil
}

// GenerateVariations asks the model for count variations of a stored prompt,
// one call per variation.
func (s *Service) GenerateVariations(ctx context.Context, req *VariationRequest) (*VariationResult, error) {
	count := req.Count
	if count == 0 {
		count = 1
	}
	if count < 1 || count > MaxVariations {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidVariationRequest, MaxVariations)
	}

	stored, err := s.repo.GetByID(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}

	original, err := pickSections([]byte(stored.PromptJSON))
	if err != nil {
		return nil, fmt.Errorf("prompt %d: %w", stored.ID, err)
	}

	aspects := req.Variations.describe()
	result := &VariationResult{
		Variations: make([]Variation, 0, count),
		Original:   json.RawMessage(stored.PromptJSON),
	}

	for i := 0; i < count; i++ {
		resp, err := s.invoker.Invoke(ctx, &llm.Request{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: variationSystemPrompt},
				{Role: llm.RoleUser, Content: userPrompt(i, aspects, original)},
			},
			ResponseFormat: llm.FormatJSON,
		})
		if err != nil {
			return nil, fmt.Errorf("generate variation %d: %w", i+1, err)
		}

		data, err := extractObject(resp.Content)
		if err != nil {
			s.logger.WarnContext(ctx, "discarding malformed variation",
				"prompt_id", stored.ID,
				"index", i,
				logger.Err(err),
			)
			return nil, err
		}
		result.Variations = append(result.Variations, Variation{ID: s.newID(), Data: data})
	}

	s.logger.InfoContext(ctx, "generated prompt variations",
		"prompt_id", stored.ID,
		"count", count,
		"aspects", aspects,
	)
	return result, nil
}

// describe lists the aspects the model may change.
func (p VariationParams) describe() string {
	var parts []string
	if p.Subject {
		parts = append(parts, "the character (age, gender, ethnicity, appearance, clothing)")
	}
	if p.Location {
		parts = append(parts, "the location and scene (location, time of day, weather, atmosphere)")
	}
	if p.Style {
		parts = append(parts, "the cinematographic style (shot type, camera angle, framing, movement)")
	}
	if p.Equipment {
		parts = append(parts, "the equipment (camera, lens, technical settings)")
	}
	if p.Lighting {
		parts = append(parts, "the lighting (type, quality, direction)")
	}
	if p.Action {
		parts = append(parts, "the actions and sequences (timing, movements)")
	}
	if p.Audio {
		parts = append(parts, "the audio (ambient sound, music style)")
	}
	if p.Technical {
		parts = append(parts, "the technical specifications (resolution, FPS, format)")
	}
	if len(parts) == 0 {
		return "all aspects"
	}
	return strings.Join(parts, ", ")
}

func userPrompt(index int, aspects string, original []byte) string {
	var b strings.Builder
	b.WriteString("Generate a variation ")
	if index > 0 {
		b.WriteString("DIFFERENT from the previous ones ")
	}
	b.WriteString("of this prompt by modifying ")
	b.WriteString(aspects)
	b.WriteString(". ")
	if index > 0 {
		b.WriteString("Be creative and propose a completely different approach. ")
	}
	b.WriteString("Ensure all modifications are coherent with each other.\n\nOriginal prompt:\n")
	b.Write(original)
	b.WriteString("\n\nRespond ONLY with the complete JSON of the variation, no additional text.")
	return b.String()
}

// pickSections keeps the known sections of a stored prompt, indented.
func pickSections(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("stored prompt is not a JSON object: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	first := true
	for _, name := range sections {
		value, ok := doc[name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteString(",\n")
		}
		first = false

		var indented bytes.Buffer
		if err := json.Indent(&indented, value, "  ", "  "); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "  %q: %s", name, indented.Bytes())
	}
	buf.WriteString("\n}")
	return buf.Bytes(), nil
}

// extractObject returns the JSON object in a model reply, tolerating a
// surrounding markdown code fence.
func extractObject(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVariation, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedVariation)
	}
	return json.RawMessage(content), nil
}
