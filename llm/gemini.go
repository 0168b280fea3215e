package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

// DefaultGeminiModel is the default Gemini model name.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiModel is a ChatModel over the Gemini SDK. It exists as the
// alternative backend for deployments without DashScope access; the
// extraction flow is identical.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// GeminiOption configures a GeminiModel.
type GeminiOption func(*GeminiModel)

// WithGeminiModel overrides the model name.
func WithGeminiModel(model string) GeminiOption {
	return func(m *GeminiModel) {
		if model != "" {
			m.model = model
		}
	}
}

// NewGemini wraps an initialized genai client.
func NewGemini(client *genai.Client, opts ...GeminiOption) *GeminiModel {
	m := &GeminiModel{client: client, model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Complete implements ChatModel.
func (m *GeminiModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if m.client == nil {
		return "", failf(ReasonCredentials, nil, "Gemini client is not configured")
	}

	model := m.client.GenerativeModel(m.model)
	model.SetTemperature(req.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}

	resp, err := model.GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", failf(ReasonBackend, nil, "Gemini returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", failf(ReasonBackend, nil, "Gemini returned empty content")
	}
	return b.String(), nil
}

func classifyGeminiError(err error) *ExtractionError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return failf(ReasonCredentials, err, "Gemini rejected the API key")
		}
		return failf(ReasonBackend, err, "Gemini returned HTTP %d", apiErr.Code)
	}
	return failf(ReasonNetwork, err, "reach Gemini")
}
