package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"promptlab/internal/llm"
	"promptlab/internal/prompt"

	"log/slog"
)

var (
	// ErrEmptyPrompt пользовательский промпт не задан.
	ErrEmptyPrompt = errors.New("user prompt is required")
	// ErrNoPresets не задан ни один пресет для сравнения.
	ErrNoPresets = errors.New("at least one system prompt id is required")
)

// Engine запускает один пользовательский промпт на нескольких пресетах
// и собирает итоговый отчет. Пресеты обрабатываются независимо:
// сбой одного не прерывает остальные.
type Engine struct {
	store   *prompt.Store
	backend llm.Backend
	timeout time.Duration
	logger  *slog.Logger
}

func NewEngine(store *prompt.Store, backend llm.Backend, timeout time.Duration, logger *slog.Logger) *Engine {
	return &Engine{
		store:   store,
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Result итог одного пресета: либо успешный ответ, либо ошибка.
type Result struct {
	Name         string      `json:"system_prompt_name,omitempty"`
	SystemPrompt string      `json:"system_prompt_text,omitempty"`
	Text         string      `json:"text,omitempty"`
	Usage        *llm.Usage  `json:"usage,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Parameters   *llm.Params `json:"parameters_used,omitempty"`
	ModulesUsed  []string    `json:"modules_used,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Report сводка по всем запрошенным пресетам.
type Report struct {
	UserPrompt   string            `json:"user_prompt"`
	Results      map[string]Result `json:"results"`
	TestCount    int               `json:"test_count"`
	SuccessCount int               `json:"success_count"`
	Model        string            `json:"model"`
}

// Compare выполняет сравнение. Запросы к бэкенду идут параллельно,
// по одной горутине на пресет; карта результатов защищена мьютексом.
func (e *Engine) Compare(ctx context.Context, userPrompt string, keys []string, opts llm.Options, orderOverride []string) (Report, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return Report{}, ErrEmptyPrompt
	}
	if len(keys) == 0 {
		return Report{}, ErrNoPresets
	}

	report := Report{
		UserPrompt: userPrompt,
		Results:    make(map[string]Result, len(keys)),
		TestCount:  len(keys),
		Model:      e.backend.Model(),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			result := e.runOne(ctx, key, userPrompt, opts, orderOverride)
			mu.Lock()
			report.Results[key] = result
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	for _, result := range report.Results {
		if result.Error == "" {
			report.SuccessCount++
		}
	}
	return report, nil
}

// runOne обрабатывает один пресет: сборка системного промпта,
// нормализация параметров и единственный запрос к бэкенду.
func (e *Engine) runOne(ctx context.Context, key, userPrompt string, opts llm.Options, orderOverride []string) Result {
	preset, err := e.store.Get(key)
	if err != nil {
		return Result{Error: fmt.Sprintf("System prompt '%s' not found", key)}
	}

	order := preset.Order
	if len(orderOverride) > 0 {
		order = orderOverride
	}
	systemText := prompt.Assemble(preset, orderOverride)
	params := llm.Normalize(opts, e.backend.Defaults())

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	completion, err := e.backend.Complete(callCtx, llm.Request{
		System: systemText,
		User:   userPrompt,
		Params: params,
	})
	if err != nil {
		e.logger.Warn("comparison dispatch failed",
			slog.String("preset", key),
			slog.String("error", err.Error()))
		return Result{Error: err.Error()}
	}

	usage := completion.Usage
	return Result{
		Name:         preset.Name,
		SystemPrompt: systemText,
		Text:         completion.Text,
		Usage:        &usage,
		FinishReason: completion.FinishReason,
		Parameters:   &completion.ParametersUsed,
		ModulesUsed:  order,
	}
}
