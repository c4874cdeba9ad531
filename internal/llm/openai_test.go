package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promptlab/internal/config"

	"log/slog"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOpenAITestClient(srv *httptest.Server) *OpenAIClient {
	return NewOpenAIClient(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-test",
	}, srv.Client(), testLogger())
}

func openAISuccessBody() string {
	return `{
		"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
	}`
}

func TestOpenAICompleteSuccess(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, openAISuccessBody())
	}))
	defer srv.Close()

	client := newOpenAITestClient(srv)
	completion, err := client.Complete(context.Background(), Request{
		System: "Be terse.",
		User:   "Explain recursion",
		History: []HistoryMessage{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
			{Role: "system", Content: "must be dropped"},
			{Role: "user", Content: ""},
		},
		Params: Params{Temperature: 0.3, MaxTokens: 128},
	})
	require.NoError(t, err)

	require.Equal(t, "hello", completion.Text)
	require.Equal(t, "gpt-test", completion.Model)
	require.Equal(t, "stop", completion.FinishReason)
	require.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17}, completion.Usage)
	require.Equal(t, 0.3, completion.ParametersUsed.Temperature)

	require.Equal(t, "gpt-test", captured["model"])
	require.Equal(t, 0.3, captured["temperature"])
	require.Equal(t, float64(128), captured["max_tokens"])
	_, hasSeed := captured["seed"]
	require.False(t, hasSeed, "seed must be omitted when not set")

	// system + две валидные записи истории + финальное user сообщение;
	// system-роль и пустой текст в истории отфильтрованы.
	messages := captured["messages"].([]any)
	require.Len(t, messages, 4)
	first := messages[0].(map[string]any)
	require.Equal(t, "system", first["role"])
	require.Equal(t, "Be terse.", first["content"])
	last := messages[3].(map[string]any)
	require.Equal(t, "user", last["role"])
	require.Equal(t, "Explain recursion", last["content"])
}

func TestOpenAICompleteOmitsEmptySystem(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, openAISuccessBody())
	}))
	defer srv.Close()

	client := newOpenAITestClient(srv)
	_, err := client.Complete(context.Background(), Request{
		User:   "hi",
		Params: Params{Temperature: 0.7, MaxTokens: 64},
	})
	require.NoError(t, err)

	messages := captured["messages"].([]any)
	require.Len(t, messages, 1)
	require.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestOpenAICompleteSendsExplicitZeroSeed(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, openAISuccessBody())
	}))
	defer srv.Close()

	seed := 0
	client := newOpenAITestClient(srv)
	_, err := client.Complete(context.Background(), Request{
		User:   "hi",
		Params: Params{Temperature: 0.7, MaxTokens: 64, Seed: &seed},
	})
	require.NoError(t, err)
	require.Equal(t, float64(0), captured["seed"])
}

func TestOpenAICompleteNotConfigured(t *testing.T) {
	client := NewOpenAIClient(config.OpenAIConfig{BaseURL: "http://unused"}, http.DefaultClient, testLogger())

	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAICompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newOpenAITestClient(srv)
	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAICompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json at all")
	}))
	defer srv.Close()

	client := newOpenAITestClient(srv)
	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestOpenAICompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": []}`)
	}))
	defer srv.Close()

	client := newOpenAITestClient(srv)
	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrProtocol)
}

func TestOpenAICompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, openAISuccessBody())
	}))
	defer srv.Close()

	client := NewOpenAIClient(config.OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gpt-test",
	}, &http.Client{Timeout: 20 * time.Millisecond}, testLogger())

	_, err := client.Complete(context.Background(), Request{User: "hi"})
	require.ErrorIs(t, err, ErrTimeout)
}
