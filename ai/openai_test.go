package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProviderComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected auth header, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gemini-test" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Tools) != 1 || req.Tools[0].Type != "function" || req.Tools[0].Function.Name != "scrap_meta" {
			t.Errorf("unexpected tools %+v", req.Tools)
		}
		if len(req.Messages) != 3 || len(req.Messages[1].ToolCalls) != 1 || req.Messages[2].ToolCallID != "call_0" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"scrap_meta","arguments":"{\"site\":\"https://example.com\"}"}}
		]},"finish_reason":"tool_calls"}]}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIURL: server.URL + "/", APIKey: "test-key", Model: "gemini-test"})
	completion, err := provider.Complete(context.Background(), []Message{
		{Role: "user", Content: "check example.com"},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "call_0", Name: "scrap_meta", Arguments: `{}`}}},
		{Role: "tool", Content: `{"title":"x"}`, Name: "scrap_meta", ToolCallID: "call_0"},
	}, []Tool{{Name: "scrap_meta", Parameters: map[string]any{"type": "object"}}})
	require.NoError(t, err)

	assert.Equal(t, "tool_calls", completion.FinishReason)
	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_1", Name: "scrap_meta", Arguments: `{"site":"https://example.com"}`}, completion.ToolCalls[0])
}

func TestOpenAIProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error status", http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, "429"},
		{"bad json", http.StatusOK, `not json`, "decode response"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			provider := NewOpenAIProvider(Config{APIURL: server.URL, Model: "m"})
			_, err := provider.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
			require.ErrorIs(t, err, ErrUpstream)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestOpenAIProviderRequiresModel(t *testing.T) {
	_, err := NewOpenAIProvider(Config{}).Complete(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(Config{Provider: "gemini"})
	require.NoError(t, err)
	gemini := provider.(*OpenAIProvider)
	assert.Equal(t, GeminiAPIURL, gemini.apiURL)
	assert.Equal(t, "gemini-2.0-flash", gemini.model)

	provider, err = NewProvider(Config{Provider: "OpenAI", Model: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, OpenAIAPIURL, provider.(*OpenAIProvider).apiURL)

	provider, err = NewProvider(Config{Provider: "gemini", APIURL: "http://localhost:9999/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1", provider.(*OpenAIProvider).apiURL)

	_, err = NewProvider(Config{Provider: "nope"})
	assert.Error(t, err)
}
