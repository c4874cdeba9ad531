package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	Backend        string
	Store          StoreConfig
	CompareTimeout time.Duration
	OpenAI         OpenAIConfig
	Ollama         OllamaConfig
}

type StoreConfig struct {
	Type string // "file" или "memory"
	Path string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func Load() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":4000")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.Backend = strings.ToLower(getEnv("LLM_BACKEND", "openai"))
	if cfg.Backend != "openai" && cfg.Backend != "ollama" {
		return Config{}, fmt.Errorf("unknown LLM_BACKEND %q", cfg.Backend)
	}

	cfg.Store = StoreConfig{
		Type: strings.ToLower(getEnv("STORE_TYPE", "file")),
		Path: getEnv("PROMPTS_FILE", "system_prompts.json"),
	}

	compareTimeout, err := parseDuration(getEnv("COMPARE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COMPARE_TIMEOUT: %w", err)
	}
	cfg.CompareTimeout = compareTimeout

	openAITimeout, err := parseDuration(getEnv("OPENAI_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENAI_TIMEOUT: %w", err)
	}
	cfg.OpenAI = OpenAIConfig{
		APIKey:  getEnv("OPENAI_API_KEY", ""),
		BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		Timeout: openAITimeout,
	}

	ollamaTimeout, err := parseDuration(getEnv("OLLAMA_TIMEOUT", "120s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OLLAMA_TIMEOUT: %w", err)
	}
	cfg.Ollama = OllamaConfig{
		BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		Model:   getEnv("OLLAMA_MODEL", "llama3.1"),
		Timeout: ollamaTimeout,
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
