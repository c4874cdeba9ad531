package compare

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"promptlab/internal/llm"
	"promptlab/internal/prompt"

	"log/slog"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBackend управляемый бэкенд для тестов: reply вызывается на каждый
// запрос, все запросы записываются.
type stubBackend struct {
	mu       sync.Mutex
	requests []llm.Request
	reply    func(req llm.Request) (llm.Completion, error)
}

func (s *stubBackend) Kind() string { return "stub" }

func (s *stubBackend) Model() string { return "test-model" }

func (s *stubBackend) Configured() bool { return true }

func (s *stubBackend) Defaults() llm.Defaults {
	return llm.Defaults{Temperature: 0.7, MaxTokens: 1024}
}

func (s *stubBackend) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.reply != nil {
		return s.reply(req)
	}
	return llm.Completion{
		Text:           "stub answer",
		Model:          "test-model",
		ParametersUsed: req.Params,
		Usage:          llm.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		FinishReason:   "stop",
	}, nil
}

func newTestEngine(t *testing.T, backend llm.Backend) (*Engine, *prompt.Store) {
	t.Helper()
	store, err := prompt.NewStore(prompt.NewMemoryPersister(), testLogger())
	require.NoError(t, err)
	return NewEngine(store, backend, 30*time.Second, testLogger()), store
}

func TestCompareCountsAndUnknownKey(t *testing.T) {
	backend := &stubBackend{}
	engine, _ := newTestEngine(t, backend)

	report, err := engine.Compare(context.Background(), "Explain recursion",
		[]string{"default", "nonexistent"}, llm.Options{}, nil)
	require.NoError(t, err)

	require.Equal(t, "Explain recursion", report.UserPrompt)
	require.Equal(t, 2, report.TestCount)
	require.Equal(t, 1, report.SuccessCount)
	require.Equal(t, "test-model", report.Model)

	require.Equal(t, "System prompt 'nonexistent' not found", report.Results["nonexistent"].Error)

	success := report.Results["default"]
	require.Empty(t, success.Error)
	require.Equal(t, "Default Assistant", success.Name)
	require.Equal(t, "stub answer", success.Text)
	require.Equal(t, "stop", success.FinishReason)
	require.Equal(t, []string{"DEFAULT"}, success.ModulesUsed)
	require.NotNil(t, success.Usage)
	require.Equal(t, 5, success.Usage.TotalTokens)
	require.NotNil(t, success.Parameters)
	require.Equal(t, 0.7, success.Parameters.Temperature)
}

func TestCompareValidation(t *testing.T) {
	engine, _ := newTestEngine(t, &stubBackend{})

	_, err := engine.Compare(context.Background(), "   ", []string{"default"}, llm.Options{}, nil)
	require.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = engine.Compare(context.Background(), "hi", nil, llm.Options{}, nil)
	require.ErrorIs(t, err, ErrNoPresets)
}

func TestCompareIsolatesFailures(t *testing.T) {
	backend := &stubBackend{
		reply: func(req llm.Request) (llm.Completion, error) {
			if strings.Contains(req.System, "FAIL") {
				return llm.Completion{}, errors.New("backend exploded")
			}
			return llm.Completion{Text: "ok", Model: "test-model", ParametersUsed: req.Params}, nil
		},
	}
	engine, store := newTestEngine(t, backend)

	_, _, err := store.Create(prompt.CreateInput{
		ID:      "bad",
		Name:    "Bad",
		Modules: map[string]string{"ROLE": "FAIL on purpose"},
		Order:   []string{"ROLE"},
	})
	require.NoError(t, err)

	report, err := engine.Compare(context.Background(), "hi",
		[]string{"default", "bad"}, llm.Options{}, nil)
	require.NoError(t, err)

	require.Equal(t, 2, report.TestCount)
	require.Equal(t, 1, report.SuccessCount)
	require.Equal(t, "backend exploded", report.Results["bad"].Error)
	require.Empty(t, report.Results["default"].Error)
}

func TestCompareOrderOverride(t *testing.T) {
	backend := &stubBackend{}
	engine, store := newTestEngine(t, backend)

	_, _, err := store.Create(prompt.CreateInput{
		ID:   "layered",
		Name: "Layered",
		Modules: map[string]string{
			"A": "first",
			"B": "second",
		},
		Order: []string{"A", "B"},
	})
	require.NoError(t, err)

	report, err := engine.Compare(context.Background(), "hi",
		[]string{"layered"}, llm.Options{}, []string{"B", "A"})
	require.NoError(t, err)

	result := report.Results["layered"]
	require.Equal(t, "second\n\nfirst", result.SystemPrompt)
	require.Equal(t, []string{"B", "A"}, result.ModulesUsed)
}

func TestComparePassesNormalizedOptions(t *testing.T) {
	backend := &stubBackend{}
	engine, _ := newTestEngine(t, backend)

	temp := 0.1
	_, err := engine.Compare(context.Background(), "hi",
		[]string{"default"}, llm.Options{Temperature: &temp}, nil)
	require.NoError(t, err)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.Len(t, backend.requests, 1)
	require.Equal(t, 0.1, backend.requests[0].Params.Temperature)
	require.Equal(t, 1024, backend.requests[0].Params.MaxTokens)
	require.Equal(t, "hi", backend.requests[0].User)
}
