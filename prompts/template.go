package prompts

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingVariable = errors.New("prompts: missing template variable")
	ErrPromptNotFound  = errors.New("prompts: prompt not found")
)

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z0-9_]+)\}\}`)

// PromptTemplate represents a string template that can be formatted.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a new prompt template.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{Template: template}
}

// Format substitutes variables in the template string.
// Variables are in the format `{{.variable_name}}`.
func (p PromptTemplate) Format(vars map[string]string) string {
	prompt := p.Template
	for key, value := range vars {
		placeholder := "{{." + key + "}}"
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return prompt
}

// Variables lists the placeholder names in order of first appearance.
func (p PromptTemplate) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(p.Template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// FormatStrict is Format that fails when a placeholder has no value.
func (p PromptTemplate) FormatStrict(vars map[string]string) (string, error) {
	for _, name := range p.Variables() {
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
	}
	return p.Format(vars), nil
}

// LoadFile reads a YAML mapping of prompt name to template text.
func LoadFile(path string) (map[string]PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing prompts file %s: %w", path, err)
	}
	out := make(map[string]PromptTemplate, len(raw))
	for name, text := range raw {
		out[name] = NewPromptTemplate(text)
	}
	return out, nil
}

// Lookup loads the named prompt from path.
func Lookup(path, name string) (PromptTemplate, error) {
	all, err := LoadFile(path)
	if err != nil {
		return PromptTemplate{}, err
	}
	p, ok := all[name]
	if !ok {
		return PromptTemplate{}, fmt.Errorf("%w: %q in %s", ErrPromptNotFound, name, path)
	}
	return p, nil
}
