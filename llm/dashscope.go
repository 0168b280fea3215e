package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultDashScopeBaseURL is Alibaba Cloud's OpenAI-compatible endpoint.
	DefaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	// DefaultDashScopeModel is the Qwen model the extraction prompt was
	// tuned against.
	DefaultDashScopeModel = "qwen3-235b-a22b-thinking-2507"

	defaultTimeout = 120 * time.Second
)

// DashScopeModel is a ChatModel over DashScope's OpenAI-compatible
// chat/completions API.
type DashScopeModel struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// DashScopeOption configures a DashScopeModel.
type DashScopeOption func(*DashScopeModel)

// WithDashScopeModel overrides the model name.
func WithDashScopeModel(model string) DashScopeOption {
	return func(m *DashScopeModel) {
		if model != "" {
			m.model = model
		}
	}
}

// WithDashScopeBaseURL overrides the endpoint, mainly for tests.
func WithDashScopeBaseURL(baseURL string) DashScopeOption {
	return func(m *DashScopeModel) {
		if baseURL != "" {
			m.baseURL = baseURL
		}
	}
}

// WithDashScopeHTTPClient overrides the HTTP client.
func WithDashScopeHTTPClient(c *http.Client) DashScopeOption {
	return func(m *DashScopeModel) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// NewDashScope creates a DashScope-backed chat model. The key is checked at
// call time so a keyless instance can still be constructed and wired.
func NewDashScope(apiKey string, opts ...DashScopeOption) *DashScopeModel {
	m := &DashScopeModel{
		apiKey:     apiKey,
		model:      DefaultDashScopeModel,
		baseURL:    DefaultDashScopeBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Complete implements ChatModel with one non-streaming completion.
func (m *DashScopeModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if m.apiKey == "" {
		return "", failf(ReasonCredentials, nil, "DashScope API key is not configured")
	}

	body := map[string]any{
		"model":       m.model,
		"temperature": req.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", failf(ReasonBackend, err, "encode request")
	}

	endpoint := strings.TrimRight(m.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", failf(ReasonBackend, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", failf(ReasonNetwork, err, "reach %s", endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", failf(ReasonNetwork, err, "read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", failf(ReasonCredentials, nil, "DashScope rejected the API key (HTTP %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", failf(ReasonBackend, nil, "DashScope returned HTTP %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", failf(ReasonDecode, err, "decode DashScope response envelope")
	}
	if len(cc.Choices) == 0 {
		return "", failf(ReasonBackend, nil, "DashScope response has no choices")
	}
	return cc.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:n], len(s))
}
