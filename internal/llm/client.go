package llm

import "context"

// HistoryMessage одно сообщение истории диалога, переданной клиентом.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request канонический запрос на генерацию, не зависящий от бэкенда.
type Request struct {
	System  string
	User    string
	History []HistoryMessage
	Params  Params
}

// Usage счетчики токенов. Поля, которые бэкенд не вернул, остаются нулями.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion канонический ответ бэкенда.
type Completion struct {
	Text            string  `json:"text"`
	Model           string  `json:"model"`
	ParametersUsed  Params  `json:"parameters_used"`
	Usage           Usage   `json:"usage"`
	FinishReason    string  `json:"finish_reason,omitempty"`
	TokensPerSecond float64 `json:"tokens_per_second,omitempty"`
}

// Backend минимальный интерфейс инференс-бэкенда.
type Backend interface {
	// Kind возвращает тип бэкенда: "openai" или "ollama".
	Kind() string
	// Model возвращает идентификатор модели, с которой работает бэкенд.
	Model() string
	// Configured сообщает, достаточно ли конфигурации для запросов.
	Configured() bool
	// Defaults возвращает параметры генерации по умолчанию.
	Defaults() Defaults
	// Complete выполняет один запрос к бэкенду без повторов.
	Complete(ctx context.Context, req Request) (Completion, error)
}

// message сообщение чата в формате, общем для обоих бэкендов.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
