package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dashscopeServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultDashScopeModel, body.Model)
		assert.Zero(t, body.Temperature)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)

		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": content}},
				},
			})
		}
	}))
}

func TestDashScopeComplete(t *testing.T) {
	srv := dashscopeServer(t, http.StatusOK, "模型回复")
	defer srv.Close()

	model := NewDashScope("test-key", WithDashScopeBaseURL(srv.URL))
	reply, err := model.Complete(context.Background(), CompletionRequest{
		System: "系统指令",
		User:   "用户内容",
	})
	require.NoError(t, err)
	assert.Equal(t, "模型回复", reply)
}

func TestDashScopeRefusesWithoutKey(t *testing.T) {
	model := NewDashScope("")

	_, err := model.Complete(context.Background(), CompletionRequest{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonCredentials, xerr.Reason)
}

func TestDashScopeClassifiesRejectedKey(t *testing.T) {
	srv := dashscopeServer(t, http.StatusUnauthorized, "")
	defer srv.Close()

	model := NewDashScope("test-key", WithDashScopeBaseURL(srv.URL))
	_, err := model.Complete(context.Background(), CompletionRequest{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonCredentials, xerr.Reason)
}

func TestDashScopeClassifiesBackendFailure(t *testing.T) {
	srv := dashscopeServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	model := NewDashScope("test-key", WithDashScopeBaseURL(srv.URL))
	_, err := model.Complete(context.Background(), CompletionRequest{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonBackend, xerr.Reason)
}

func TestDashScopeClassifiesUnreachableBackend(t *testing.T) {
	srv := dashscopeServer(t, http.StatusOK, "")
	srv.Close() // connection refused from here on

	model := NewDashScope("test-key", WithDashScopeBaseURL(srv.URL))
	_, err := model.Complete(context.Background(), CompletionRequest{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonNetwork, xerr.Reason)
}
