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

func TestOpenAIProvider_Complete(t *testing.T) {
	var gotReq openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(openAIChatResponse{
			Choices: []openAIChatChoice{{Message: openAIChatMessage{Role: "assistant", Content: "hello"}}},
			Usage:   openAIUsage{PromptTokens: 7, CompletionTokens: 3},
		})
	}))
	defer srv.Close()

	cfg := config.LLMProviderConfig{Type: "openai", Model: "gpt-4o", APIKey: "test-key", BaseURL: srv.URL, Timeout: time.Second}
	cfg.SetDefaults()

	client, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Content)
	require.Equal(t, 10, resp.TotalTokens())
	require.Equal(t, "gpt-4o", gotReq.Model)
	require.Equal(t, "openai:gpt-4o", client.Name())
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIChatResponse{Error: &struct {
			Message string `json:"message"`
		}{Message: "invalid api key"}})
	}))
	defer srv.Close()

	cfg := config.LLMProviderConfig{Type: "openai", Model: "gpt-4o", APIKey: "bad", BaseURL: srv.URL, Timeout: time.Second}
	cfg.SetDefaults()
	client, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.ErrorContains(t, err, "invalid api key")
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.LLMProviderConfig{Type: "openai", Model: "gpt-4o"})
	require.Error(t, err)
}
