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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIProvider is a non-streaming Chat Completions adapter, simplified
// from the teacher's OpenAIProvider (pkg/llms/openai.go), which targets the
// newer streaming Responses API. Shesha's driver loop only ever needs one
// blocking completion per turn (spec.md Non-goals: no streaming token
// delivery), so the simpler, stable Chat Completions endpoint is the
// better fit.
type openAIProvider struct {
	httpClient *httpclient.Client
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
}

// NewOpenAIProvider builds a Client backed by the OpenAI Chat Completions
// API.
func NewOpenAIProvider(cfg config.LLMProviderConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: openai: api_key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &openAIProvider{
		httpClient: httpclient.New(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model     string              `json:"model"`
	Messages  []openAIChatMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type openAIChatChoice struct {
	Message openAIChatMessage `json:"message"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIChatResponse struct {
	Choices []openAIChatChoice `json:"choices"`
	Usage   openAIUsage        `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *openAIProvider) Complete(ctx context.Context, messages []Message) (Response, error) {
	chatMessages := make([]openAIChatMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openAIChatMessage{Role: m.Role, Content: m.Content}
	}

	reqBody := openAIChatRequest{
		Model:     p.model,
		Messages:  chatMessages,
		MaxTokens: p.maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("llm: openai: read response: %w", err)
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return Response{}, fmt.Errorf("llm: openai: decode response: %w", err)
	}
	if chatResp.Error != nil {
		return Response{}, fmt.Errorf("llm: openai: api error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return Response{}, fmt.Errorf("llm: openai: empty response")
	}

	return Response{
		Content:          chatResp.Choices[0].Message.Content,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

func (p *openAIProvider) Name() string {
	return "openai:" + p.model
}
