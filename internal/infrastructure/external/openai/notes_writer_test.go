package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

func completionServer(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-1",
			Object: "chat.completion",
			Model:  seen.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{TotalTokens: 42},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNotesWriter_GenerateNotes(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := completionServer(t, "  Thanks for visiting, Jane!  ", &seen)

	writer := NewNotesWriter(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-4o-mini",
	}, nil, zap.NewNop())

	text, err := writer.GenerateNotes(context.Background(), port.NotesRequest{
		ClinicName:  "Shade Dental Clinic",
		PatientName: "Jane",
		Services:    []string{"Routine Check-up & Cleaning", "X-Rays (Bitewing)"},
	})
	require.NoError(t, err)
	assert.Equal(t, "  Thanks for visiting, Jane!  ", text)

	assert.Equal(t, "gpt-4o-mini", seen.Model)
	assert.Equal(t, 200, seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	user := seen.Messages[1].Content
	assert.Contains(t, user, "Clinic Name: Shade Dental Clinic")
	assert.Contains(t, user, "Patient Name: Jane")
	assert.Contains(t, user, "- Routine Check-up & Cleaning\n")
	assert.Contains(t, user, "- X-Rays (Bitewing)\n")
	assert.Contains(t, user, "Do not mention prices")
}

func TestNotesWriter_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	writer := NewNotesWriter(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"}, nil, zap.NewNop())
	_, err := writer.GenerateNotes(context.Background(), port.NotesRequest{PatientName: "Jane"})
	assert.Error(t, err)
}

func TestNotesWriter_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	writer := NewNotesWriter(Config{APIKey: "k", BaseURL: srv.URL, Model: "m"}, nil, zap.NewNop())
	_, err := writer.GenerateNotes(context.Background(), port.NotesRequest{PatientName: "Jane"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API call failed")
}

func TestLoadPrompts(t *testing.T) {
	t.Run("empty path uses built-in prompts", func(t *testing.T) {
		prompts, err := LoadPrompts("")
		require.NoError(t, err)
		assert.NotEmpty(t, prompts.PatientNotes.System)
	})

	t.Run("file overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"patient_notes:\n  max_tokens: 64\n  system: short\n  user_template: \"Note for {{.PatientName}}\"\n"), 0644))

		prompts, err := LoadPrompts(path)
		require.NoError(t, err)
		assert.Equal(t, 64, prompts.PatientNotes.MaxTokens)

		rendered, err := renderTemplate(prompts.PatientNotes.UserTemplate, port.NotesRequest{PatientName: "Jane"})
		require.NoError(t, err)
		assert.Equal(t, "Note for Jane", rendered)
	})

	t.Run("missing template is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("patient_notes:\n  system: x\n"), 0644))
		_, err := LoadPrompts(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
