// Package compose renders sound parameters into synthesis prompts.
package compose

import (
	"fmt"
	"strings"
)

// DefaultTemplate is used when no template is configured.
const DefaultTemplate = "{source}: a {timbre} sound; {dynamics}, {duration}s, {pitch}; {space}; like {analogy}."

// MissingFieldError is returned when a template references a field that the
// parameters do not provide.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q required by prompt template", e.Field)
}

// TemplateError is returned for a malformed template.
type TemplateError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid prompt template at offset %d: %s", e.Offset, e.Reason)
}

// segment is either literal text or a placeholder name.
type segment struct {
	text        string
	placeholder bool
}

// parse splits a template into literal and placeholder segments.
// "{{" and "}}" are literal braces.
func parse(template string) ([]segment, error) {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end == -1 {
				return nil, &TemplateError{Template: template, Offset: i, Reason: "unterminated placeholder"}
			}
			name := strings.TrimSpace(template[i+1 : i+1+end])
			if name == "" {
				return nil, &TemplateError{Template: template, Offset: i, Reason: "empty placeholder"}
			}
			if strings.ContainsAny(name, "{") {
				return nil, &TemplateError{Template: template, Offset: i, Reason: "nested placeholder"}
			}
			flush()
			segs = append(segs, segment{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &TemplateError{Template: template, Offset: i, Reason: "unmatched '}'"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// Compose substitutes fields into template. An empty template selects
// DefaultTemplate. Every placeholder must have a value in fields.
func Compose(fields map[string]string, template string) (string, error) {
	if template == "" {
		template = DefaultTemplate
	}
	segs, err := parse(template)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range segs {
		if !s.placeholder {
			b.WriteString(s.text)
			continue
		}
		v, ok := fields[s.text]
		if !ok {
			return "", &MissingFieldError{Field: s.text}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Placeholders returns the field names referenced by template, in order of
// first appearance.
func Placeholders(template string) ([]string, error) {
	if template == "" {
		template = DefaultTemplate
	}
	segs, err := parse(template)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range segs {
		if s.placeholder && !seen[s.text] {
			seen[s.text] = true
			names = append(names, s.text)
		}
	}
	return names, nil
}

// Check reports the first placeholder in template that fields cannot
// satisfy, without rendering.
func Check(fields map[string]string, template string) error {
	names, err := Placeholders(template)
	if err != nil {
		return err
	}
	for _, n := range names {
		if _, ok := fields[n]; !ok {
			return &MissingFieldError{Field: n}
		}
	}
	return nil
}
