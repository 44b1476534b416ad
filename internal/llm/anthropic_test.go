package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kadirpekel/shesha/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProvider_Complete_SplitsSystemMessage(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: "part one "}, {Type: "text", Text: "part two"}},
			Usage:   anthropicUsage{InputTokens: 5, OutputTokens: 2},
		})
	}))
	defer srv.Close()

	cfg := config.LLMProviderConfig{Type: "anthropic", Model: "claude-3", APIKey: "test-key", BaseURL: srv.URL, Timeout: time.Second}
	cfg.SetDefaults()
	client, err := NewAnthropicProvider(cfg)
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "part one part two", resp.Content)
	require.Equal(t, "be terse", gotReq.System)
	require.Len(t, gotReq.Messages, 1, "system message must not also appear in the conversation list")
	require.Equal(t, "anthropic:claude-3", client.Name())
}

func TestAnthropicProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{Error: &struct {
			Message string `json:"message"`
		}{Message: "overloaded"}})
	}))
	defer srv.Close()

	cfg := config.LLMProviderConfig{Type: "anthropic", Model: "claude-3", APIKey: "k", BaseURL: srv.URL, Timeout: time.Second}
	cfg.SetDefaults()
	client, err := NewAnthropicProvider(cfg)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorContains(t, err, "overloaded")
}
