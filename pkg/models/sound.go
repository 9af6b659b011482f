package models

import (
	"sort"
	"strconv"
)

// SoundParameters is the structured description of a sound effect produced
// by decomposing a brief. Influence fields are optional and override the
// configured defaults when present.
type SoundParameters struct {
	// Source names the object or event producing the sound.
	Source string `json:"source" yaml:"source" jsonschema:"the object or event that makes the sound"`
	// Timbre describes the tonal color.
	Timbre string `json:"timbre" yaml:"timbre" jsonschema:"tonal color, e.g. sharp, metallic"`
	// Dynamics describes the envelope.
	Dynamics string `json:"dynamics" yaml:"dynamics" jsonschema:"envelope, e.g. fast attack, short decay"`
	// Duration is the requested length in seconds.
	Duration *float64 `json:"duration,omitempty" yaml:"duration,omitempty" jsonschema:"length in seconds"`
	// Pitch describes the frequency range.
	Pitch string `json:"pitch" yaml:"pitch" jsonschema:"frequency range, e.g. low-frequency"`
	// Space describes the acoustic environment.
	Space string `json:"space" yaml:"space" jsonschema:"acoustic environment, e.g. medium hall reverb"`
	// Analogy is a familiar sound to compare against.
	Analogy string `json:"analogy" yaml:"analogy" jsonschema:"a familiar comparable sound"`
	// PromptInfluence is a single 0.0-1.0 influence value.
	PromptInfluence *float64 `json:"prompt_influence,omitempty" yaml:"prompt_influence,omitempty" jsonschema:"single influence value between 0 and 1"`
	// BatchInfluences lists one influence value per variation to render.
	BatchInfluences []float64 `json:"batch_influences,omitempty" yaml:"batch_influences,omitempty" jsonschema:"one influence value between 0 and 1 per variation"`
}

// Template field names recognised by SoundParameters.Fields.
const (
	FieldSource    = "source"
	FieldTimbre    = "timbre"
	FieldDynamics  = "dynamics"
	FieldDuration  = "duration"
	FieldPitch     = "pitch"
	FieldSpace     = "space"
	FieldAnalogy   = "analogy"
	FieldInfluence = "influence"
)

// Fields returns the template substitution values for one render. Empty
// descriptive fields are left out so that composition reports them as
// missing instead of rendering an empty phrase.
func (p *SoundParameters) Fields(duration, influence float64) map[string]string {
	fields := map[string]string{
		FieldDuration:  FormatNumber(duration),
		FieldInfluence: FormatNumber(influence),
	}
	for name, value := range map[string]string{
		FieldSource:   p.Source,
		FieldTimbre:   p.Timbre,
		FieldDynamics: p.Dynamics,
		FieldPitch:    p.Pitch,
		FieldSpace:    p.Space,
		FieldAnalogy:  p.Analogy,
	} {
		if value != "" {
			fields[name] = value
		}
	}
	return fields
}

// Missing returns the descriptive fields that are empty, sorted by name.
func (p *SoundParameters) Missing() []string {
	all := p.Fields(0, 0)
	var missing []string
	for _, name := range []string{FieldSource, FieldTimbre, FieldDynamics, FieldPitch, FieldSpace, FieldAnalogy} {
		if _, ok := all[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// FormatNumber renders a float with the shortest representation that
// round-trips (1.2 -> "1.2", 2 -> "2").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v. Useful for optional parameter fields.
func Float(v float64) *float64 {
	return &v
}
