// Package prompt models structured video prompts and renders them into the
// free-text form accepted by the video provider.
package prompt

import (
	"bytes"
	"encoding/json"
)

// Document is a structured prompt. Every section is optional.
type Document struct {
	Shot           *Shot           `json:"shot,omitempty"`
	Subject        *Subject        `json:"subject,omitempty"`
	Action         *Action         `json:"action,omitempty"`
	Scene          *Scene          `json:"scene,omitempty"`
	Cinematography *Cinematography `json:"cinematography,omitempty"`
	Audio          *Audio          `json:"audio,omitempty"`
	VisualRules    *VisualRules    `json:"visual_rules,omitempty"`
}

// Shot describes the camera shot.
type Shot struct {
	Type    Text `json:"type,omitempty"`
	Framing Text `json:"framing,omitempty"`
	Angle   Text `json:"angle,omitempty"`
}

// Subject describes who or what is on screen.
type Subject struct {
	Description Text `json:"description,omitempty"`
}

// Action is the ordered list of beats in the clip.
type Action struct {
	Sequences List[Sequence] `json:"sequences,omitempty"`
}

// Sequence is one action beat.
type Sequence struct {
	Description Text `json:"description,omitempty"`
	Timing      Text `json:"timing,omitempty"`
}

// Scene describes the setting.
type Scene struct {
	Environment Text `json:"environment,omitempty"`
	Lighting    Text `json:"lighting,omitempty"`
	Atmosphere  Text `json:"atmosphere,omitempty"`
}

// Cinematography describes camera work and grading.
type Cinematography struct {
	CameraMovement Text `json:"camera_movement,omitempty"`
	LensEffects    Text `json:"lens_effects,omitempty"`
	ColorGrading   Text `json:"color_grading,omitempty"`
}

// Audio describes the soundtrack.
type Audio struct {
	Dialogue     List[Line]        `json:"dialogue,omitempty"`
	SoundEffects List[SoundEffect] `json:"sound_effects,omitempty"`
	AmbientSound Text              `json:"ambient_sound,omitempty"`
}

// Line is a spoken line of dialogue.
type Line struct {
	Text Text `json:"text,omitempty"`
}

// SoundEffect is a single sound cue.
type SoundEffect struct {
	Description Text `json:"description,omitempty"`
}

// VisualRules holds global style constraints.
type VisualRules struct {
	Style Text `json:"style,omitempty"`
}

// Text is a string field that decodes any non-string JSON value as empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = ""
		return nil
	}
	*t = Text(s)
	return nil
}

// List is a JSON array that drops elements which do not decode into T. A value
// that is not an array decodes as an empty list.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	items := make(List[T], 0, len(raw))
	for _, elem := range raw {
		if !isObject(elem) {
			continue
		}
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	*l = items
	return nil
}

// UnmarshalJSON decodes a document, treating any section that is not a JSON
// object as absent.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Shot           json.RawMessage `json:"shot"`
		Subject        json.RawMessage `json:"subject"`
		Action         json.RawMessage `json:"action"`
		Scene          json.RawMessage `json:"scene"`
		Cinematography json.RawMessage `json:"cinematography"`
		Audio          json.RawMessage `json:"audio"`
		VisualRules    json.RawMessage `json:"visual_rules"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{
		Shot:           section[Shot](raw.Shot),
		Subject:        section[Subject](raw.Subject),
		Action:         section[Action](raw.Action),
		Scene:          section[Scene](raw.Scene),
		Cinematography: section[Cinematography](raw.Cinematography),
		Audio:          section[Audio](raw.Audio),
		VisualRules:    section[VisualRules](raw.VisualRules),
	}
	return nil
}

func section[T any](raw json.RawMessage) *T {
	if !isObject(raw) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Parse decodes a structured prompt. Malformed input yields an empty document.
func Parse(data []byte) Document {
	var doc Document
	if !isObject(data) {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}
	}
	return doc
}

// IsEmpty reports whether the document renders to no text at all.
func (d Document) IsEmpty() bool {
	return Translate(d) == ""
}
