package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptlab/internal/api"
	"promptlab/internal/compare"
	"promptlab/internal/config"
	"promptlab/internal/httpserver"
	"promptlab/internal/llm"
	"promptlab/internal/prompt"
	"promptlab/internal/transport"

	"log/slog"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	var backend llm.Backend
	switch cfg.Backend {
	case "ollama":
		backend = llm.NewOllamaClient(cfg.Ollama, transport.NewHTTPClient(cfg.Ollama.Timeout), logger)
	default:
		backend = llm.NewOpenAIClient(cfg.OpenAI, transport.NewHTTPClient(cfg.OpenAI.Timeout), logger)
	}
	if !backend.Configured() {
		logger.Warn("backend is not configured, completions will fail",
			slog.String("backend", backend.Kind()))
	}

	var persister prompt.Persister
	promptsFile := ""
	switch cfg.Store.Type {
	case "memory":
		persister = prompt.NewMemoryPersister()
	default:
		filePersister, err := prompt.NewFilePersister(cfg.Store.Path)
		if err != nil {
			log.Fatalf("failed to init file store: %v", err)
		}
		persister = filePersister
		promptsFile = filePersister.Path()
	}

	store, err := prompt.NewStore(persister, logger)
	if err != nil {
		log.Fatalf("failed to init preset store: %v", err)
	}

	engine := compare.NewEngine(store, backend, cfg.CompareTimeout, logger)

	apiHandler := api.NewHandler(api.Deps{
		Store:       store,
		Backend:     backend,
		Compare:     engine,
		Logger:      logger,
		PromptsFile: promptsFile,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger: logger,
		API:    apiHandler,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("backend", backend.Kind()),
			slog.String("model", backend.Model()),
			slog.Int("system_prompts", store.Count()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
