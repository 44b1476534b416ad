package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kadirpekel/shesha/internal/config"
	"github.com/kadirpekel/shesha/internal/httpclient"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaProvider talks to a local or self-hosted Ollama server's /api/chat
// endpoint, adapted from the teacher's ollama.go field names
// (prompt_eval_count/eval_count) without its streaming/tool-calling
// surface. No APIKey is required: Ollama has no auth by default.
type ollamaProvider struct {
	httpClient *httpclient.Client
	baseURL    string
	model      string
}

// NewOllamaProvider builds a Client backed by an Ollama server.
func NewOllamaProvider(cfg config.LLMProviderConfig) (Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaProvider{
		httpClient: httpclient.New(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
		baseURL: baseURL,
		model:   cfg.Model,
	}, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message         ollamaChatMessage `json:"message"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
	Error           string            `json:"error,omitempty"`
}

func (p *ollamaProvider) Complete(ctx context.Context, messages []Message) (Response, error) {
	chatMessages := make([]ollamaChatMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}

	reqBody := ollamaChatRequest{
		Model:    p.model,
		Messages: chatMessages,
		Stream:   false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama: read response: %w", err)
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return Response{}, fmt.Errorf("llm: ollama: decode response: %w", err)
	}
	if chatResp.Error != "" {
		return Response{}, fmt.Errorf("llm: ollama: api error: %s", chatResp.Error)
	}

	return Response{
		Content:          chatResp.Message.Content,
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
	}, nil
}

func (p *ollamaProvider) Name() string {
	return "ollama:" + p.model
}
