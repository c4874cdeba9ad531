package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"promptlab/internal/config"

	"log/slog"
)

// Параметры разнообразия фиксированы, чтобы ответы локальной модели
// были сопоставимы с hosted-бэкендом.
const (
	ollamaTopK          = 50
	ollamaTopP          = 1.0
	ollamaRepeatPenalty = 1.0
	ollamaNumCtx        = 4096
)

// OllamaClient клиент локального Ollama-сервера (/api/chat).
type OllamaClient struct {
	baseURL    string
	model      string
	defaults   Defaults
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOllamaClient(cfg config.OllamaConfig, httpClient *http.Client, logger *slog.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		defaults:   Defaults{Temperature: 0.7, MaxTokens: 1024},
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *OllamaClient) Kind() string { return "ollama" }

func (c *OllamaClient) Model() string { return c.model }

func (c *OllamaClient) Configured() bool { return c.baseURL != "" && c.model != "" }

func (c *OllamaClient) Defaults() Defaults { return c.defaults }

// Complete выполняет один запрос к /api/chat без повторов.
// История диалога этим бэкендом не поддерживается: отправляются только
// system и user сообщения. Системное сообщение отправляется всегда,
// даже пустое, чтобы шаблон чата модели был одинаков для всех пресетов.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (Completion, error) {
	if !c.Configured() {
		return Completion{}, fmt.Errorf("%w: OLLAMA_BASE_URL or OLLAMA_MODEL is not set", ErrNotConfigured)
	}

	body := ollamaRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: ollamaOptions{
			Temperature:   req.Params.Temperature,
			NumPredict:    req.Params.MaxTokens,
			TopK:          ollamaTopK,
			TopP:          ollamaTopP,
			RepeatPenalty: ollamaRepeatPenalty,
			NumCtx:        ollamaNumCtx,
			Seed:          req.Params.Seed,
		},
		Stream: false,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(buf))
	if err != nil {
		return Completion{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

	var parsed ollamaResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return Completion{}, fmt.Errorf("%w: decode: %v", ErrProtocol, err)
	}
	if parsed.Message.Content == "" {
		return Completion{}, fmt.Errorf("%w: empty message", ErrProtocol)
	}

	completion := Completion{
		Text:           parsed.Message.Content,
		Model:          c.model,
		ParametersUsed: req.Params,
		Usage: Usage{
			PromptTokens:     parsed.PromptEvalCount,
			CompletionTokens: parsed.EvalCount,
			TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
		},
		FinishReason: parsed.DoneReason,
	}
	if parsed.EvalDuration > 0 {
		completion.TokensPerSecond = float64(parsed.EvalCount) / (float64(parsed.EvalDuration) / float64(time.Second))
	}
	return completion, nil
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []message     `json:"messages"`
	Options  ollamaOptions `json:"options"`
	Stream   bool          `json:"stream"`
}

type ollamaOptions struct {
	Temperature   float64 `json:"temperature"`
	NumPredict    int     `json:"num_predict"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NumCtx        int     `json:"num_ctx"`
	Seed          *int    `json:"seed,omitempty"`
}

type ollamaResponse struct {
	Message         message `json:"message"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	EvalDuration    int64   `json:"eval_duration"`
	TotalDuration   int64   `json:"total_duration"`
}
