package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig holds the prompts and model parameters used by the notes writer
type PromptConfig struct {
	PatientNotes struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"patient_notes"`
}

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	prompts, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts.yaml is invalid: %v", err))
	}
	return prompts
}

// LoadPrompts loads prompt configuration from a YAML file.
// An empty path yields the built-in prompts.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	if promptsPath == "" {
		return DefaultPrompts(), nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parsePrompts(data)
}

func parsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if prompts.PatientNotes.UserTemplate == "" {
		return nil, fmt.Errorf("patient_notes.user_template is required")
	}
	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
