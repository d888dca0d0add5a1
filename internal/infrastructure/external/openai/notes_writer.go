package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

// Config configures the chat completion client
type Config struct {
	APIKey string
	// BaseURL points at any OpenAI-compatible endpoint; empty keeps the default
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NotesWriter implements port.TextGenerator using chat completions
type NotesWriter struct {
	client      *openai.Client
	prompts     *PromptConfig
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewNotesWriter creates a new notes writer. Zero temperature or max tokens
// in cfg fall back to the prompt configuration.
func NewNotesWriter(cfg Config, prompts *PromptConfig, logger *zap.Logger) *NotesWriter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = prompts.PatientNotes.Temperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = prompts.PatientNotes.MaxTokens
	}

	return &NotesWriter{
		client:      openai.NewClientWithConfig(clientConfig),
		prompts:     prompts,
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// GenerateNotes asks the model for a short patient-facing note.
// The text is returned as produced; callers trim and reject blank output.
func (w *NotesWriter) GenerateNotes(ctx context.Context, req port.NotesRequest) (string, error) {
	prompt, err := w.buildNotesPrompt(req)
	if err != nil {
		return "", err
	}

	w.logger.Debug("Requesting patient notes",
		zap.String("model", w.model),
		zap.Int("services", len(req.Services)))

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       w.model,
		Temperature: w.temperature,
		MaxTokens:   w.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: w.prompts.PatientNotes.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		w.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	w.logger.Info("Patient notes generated",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

func (w *NotesWriter) buildNotesPrompt(req port.NotesRequest) (string, error) {
	prompt, err := renderTemplate(w.prompts.PatientNotes.UserTemplate, req)
	if err != nil {
		return "", fmt.Errorf("failed to build notes prompt: %w", err)
	}
	return prompt, nil
}

// Verify interface compliance
var _ port.TextGenerator = (*NotesWriter)(nil)
