package prompt

import "strings"

const separator = ", "

// Translate renders a document into provider prompt text. Sections are emitted in
// a fixed order and empty values are skipped:
//
//	shot, subject, action, scene, cinematography, audio, visual rules
//
// The order is part of the output contract.
func Translate(doc Document) string {
	var parts []string
	add := func(values ...Text) {
		for _, v := range values {
			if v != "" {
				parts = append(parts, string(v))
			}
		}
	}

	if s := doc.Shot; s != nil {
		add(s.Type, s.Framing)
		if s.Angle != "" {
			add(s.Angle + " angle")
		}
	}

	if s := doc.Subject; s != nil {
		add(s.Description)
	}

	if a := doc.Action; a != nil {
		for _, seq := range a.Sequences {
			if seq.Description == "" {
				continue
			}
			if seq.Timing != "" {
				add(seq.Description + " (" + seq.Timing + ")")
				continue
			}
			add(seq.Description)
		}
	}

	if s := doc.Scene; s != nil {
		add(s.Environment, s.Lighting, s.Atmosphere)
	}

	if c := doc.Cinematography; c != nil {
		add(c.CameraMovement, c.LensEffects, c.ColorGrading)
	}

	if a := doc.Audio; a != nil {
		for _, line := range a.Dialogue {
			if line.Text != "" {
				add(`"` + line.Text + `"`)
			}
		}
		for _, fx := range a.SoundEffects {
			add(fx.Description)
		}
		add(a.AmbientSound)
	}

	if v := doc.VisualRules; v != nil {
		add(v.Style)
	}

	return strings.Join(parts, separator)
}
