package decompose

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ShayCichocki/sfxagent/pkg/models"
)

// decompositionPrompt is the instruction template for brief decomposition.
// The first verb is the output schema, the second the brief.
const decompositionPrompt = `You are a sound designer. Decompose the sound-effect brief below into structured synthesis parameters.

Return ONLY a single JSON object (no other text, no markdown) that conforms to this JSON Schema:
%s

Field guidance:
- source: the object or event producing the sound
- timbre: tonal color ("sharp, metallic", "warm, wooden")
- dynamics: envelope ("fast attack, short decay")
- duration: length in seconds as a number
- pitch: frequency range ("low-frequency", "bright")
- space: acoustic environment ("dry", "medium hall reverb")
- analogy: a familiar comparable sound
- prompt_influence: optional, a number between 0 and 1
- batch_influences: optional, a list of numbers between 0 and 1, one per variation

Brief: %q`

var (
	schemaOnce sync.Once
	schemaText string
)

// parametersSchema returns the JSON Schema describing SoundParameters.
func parametersSchema() string {
	schemaOnce.Do(func() {
		schema, err := jsonschema.For[models.SoundParameters](&jsonschema.ForOptions{})
		if err != nil {
			schemaText = `{"type":"object"}`
			return
		}
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			schemaText = `{"type":"object"}`
			return
		}
		schemaText = string(data)
	})
	return schemaText
}

// BuildInstruction renders the decomposition instruction for brief.
func BuildInstruction(brief string) string {
	return fmt.Sprintf(decompositionPrompt, parametersSchema(), brief)
}
