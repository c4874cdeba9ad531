package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"promptlab/internal/config"

	"log/slog"
)

// OpenAIClient клиент hosted-бэкенда с chat-completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	defaults   Defaults
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIClient(cfg config.OpenAIConfig, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		defaults:   Defaults{Temperature: 0.7, MaxTokens: 1024},
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *OpenAIClient) Kind() string { return "openai" }

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

func (c *OpenAIClient) Defaults() Defaults { return c.defaults }

// Complete выполняет один запрос к chat-completions без повторов.
// История диалога фильтруется: берутся только user/assistant сообщения
// с непустым текстом, в исходном порядке.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Completion, error) {
	if !c.Configured() {
		return Completion{}, fmt.Errorf("%w: OPENAI_API_KEY is not set", ErrNotConfigured)
	}

	messages := make([]message, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, message{Role: "system", Content: req.System})
	}
	for _, msg := range req.History {
		if (msg.Role == "user" || msg.Role == "assistant") && msg.Content != "" {
			messages = append(messages, message{Role: msg.Role, Content: msg.Content})
		}
	}
	messages = append(messages, message{Role: "user", Content: req.User})

	body := openAIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		Seed:        req.Params.Seed,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(buf))
	if err != nil {
		return Completion{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, wrapTransportError(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, wrapTransportError(err)
	}

	if resp.StatusCode >= 300 {
		return Completion{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return Completion{}, fmt.Errorf("%w: decode: %v", ErrProtocol, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return Completion{}, fmt.Errorf("%w: empty choices", ErrProtocol)
	}

	choice := parsed.Choices[0]
	return Completion{
		Text:           choice.Message.Content,
		Model:          c.model,
		ParametersUsed: req.Params,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		FinishReason: choice.FinishReason,
	}, nil
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Seed        *int      `json:"seed,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
