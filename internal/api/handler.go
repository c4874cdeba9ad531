package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"promptlab/internal/compare"
	"promptlab/internal/httpserver"
	"promptlab/internal/llm"
	"promptlab/internal/prompt"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

// Deps зависимости HTTP-обработчиков.
type Deps struct {
	Store   *prompt.Store
	Backend llm.Backend
	Compare *compare.Engine
	Logger  *slog.Logger
	// PromptsFile путь к файлу хранилища для health-check;
	// пустая строка при STORE_TYPE=memory.
	PromptsFile string
}

// Handler реализует HTTP-поверхность сервиса поверх /api.
type Handler struct {
	store       *prompt.Store
	backend     llm.Backend
	compare     *compare.Engine
	logger      *slog.Logger
	promptsFile string
	router      chi.Router
}

func NewHandler(deps Deps) *Handler {
	h := &Handler{
		store:       deps.Store,
		backend:     deps.Backend,
		compare:     deps.Compare,
		logger:      deps.Logger,
		promptsFile: deps.PromptsFile,
	}

	r := chi.NewRouter()
	r.Post("/completions", h.completions)
	r.Get("/system-prompts", h.listPrompts)
	r.Post("/system-prompts", h.createPrompt)
	r.Get("/system-prompts/{id}", h.getPrompt)
	r.Put("/system-prompts/{id}", h.updatePrompt)
	r.Delete("/system-prompts/{id}", h.deletePrompt)
	r.Post("/test-prompts", h.testPrompts)
	r.Get("/presets", h.paramPresets)
	r.Get("/health", h.health)
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// completionRequest тело POST /api/completions. Если заданы и promptId,
// и systemPrompt, приоритет у promptId.
type completionRequest struct {
	SystemPrompt        string               `json:"systemPrompt"`
	PromptID            string               `json:"promptId"`
	UserPrompt          string               `json:"userPrompt"`
	ConversationHistory []llm.HistoryMessage `json:"conversationHistory"`
	Options             llm.Options          `json:"options"`
}

func (h *Handler) completions(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}

	userPrompt := strings.TrimSpace(req.UserPrompt)
	if userPrompt == "" {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "validation", "User prompt is required")
		return
	}

	systemText := strings.TrimSpace(req.SystemPrompt)
	if req.PromptID != "" {
		preset, err := h.store.Get(req.PromptID)
		if err != nil {
			httpserver.WriteJSONError(w, http.StatusNotFound, "not_found",
				fmt.Sprintf("System prompt '%s' not found", req.PromptID))
			return
		}
		systemText = prompt.Assemble(preset, nil)
	}

	completion, err := h.backend.Complete(r.Context(), llm.Request{
		System:  systemText,
		User:    userPrompt,
		History: req.ConversationHistory,
		Params:  llm.Normalize(req.Options, h.backend.Defaults()),
	})
	if err != nil {
		h.writeBackendError(w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, completion)
}

// presetResponse запись пресета вместе с ее ключом.
type presetResponse struct {
	ID string `json:"id"`
	prompt.Preset
}

func (h *Handler) listPrompts(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) getPrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	preset, err := h.store.Get(id)
	if err != nil {
		httpserver.WriteJSONError(w, http.StatusNotFound, "not_found", "System prompt not found")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, preset)
}

func (h *Handler) createPrompt(w http.ResponseWriter, r *http.Request) {
	var in prompt.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}

	key, created, err := h.store.Create(in)
	switch {
	case errors.Is(err, prompt.ErrValidation):
		httpserver.WriteJSONError(w, http.StatusBadRequest, "validation", err.Error())
		return
	case errors.Is(err, prompt.ErrExists):
		httpserver.WriteJSONError(w, http.StatusConflict, "conflict", "System prompt ID already exists")
		return
	case err != nil:
		httpserver.WriteJSONError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	httpserver.WriteJSON(w, http.StatusCreated, presetResponse{ID: key, Preset: created})
}

func (h *Handler) updatePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch prompt.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}

	updated, err := h.store.Update(id, patch)
	if err != nil {
		httpserver.WriteJSONError(w, http.StatusNotFound, "not_found", "System prompt not found")
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, presetResponse{ID: id, Preset: updated})
}

type deleteResponse struct {
	Message string         `json:"message"`
	Deleted presetResponse `json:"deleted"`
}

func (h *Handler) deletePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.store.Delete(id)
	switch {
	case errors.Is(err, prompt.ErrNotFound):
		httpserver.WriteJSONError(w, http.StatusNotFound, "not_found", "System prompt not found")
		return
	case errors.Is(err, prompt.ErrDefaultProtected):
		httpserver.WriteJSONError(w, http.StatusBadRequest, "forbidden", "Cannot delete the default system prompt")
		return
	case err != nil:
		httpserver.WriteJSONError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, deleteResponse{
		Message: fmt.Sprintf("System prompt '%s' deleted successfully", removed.Name),
		Deleted: presetResponse{ID: id, Preset: removed},
	})
}

// testRequest тело POST /api/test-prompts.
type testRequest struct {
	UserPrompt   string      `json:"userPrompt"`
	PromptIDs    []string    `json:"promptIds"`
	Options      llm.Options `json:"options"`
	ModulesOrder []string    `json:"modulesOrder"`
}

func (h *Handler) testPrompts(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}

	report, err := h.compare.Compare(r.Context(), req.UserPrompt, req.PromptIDs, req.Options, req.ModulesOrder)
	if err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) paramPresets(w http.ResponseWriter, r *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, llm.ParamPresets)
}

type healthResponse struct {
	Status             string `json:"status"`
	Backend            string `json:"backend"`
	Model              string `json:"model"`
	BackendConfigured  bool   `json:"backend_configured"`
	SystemPromptsCount int    `json:"system_prompts_count"`
	PromptsFile        string `json:"prompts_file,omitempty"`
	PromptsFileExists  bool   `json:"prompts_file_exists"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	fileExists := false
	if h.promptsFile != "" {
		_, err := os.Stat(h.promptsFile)
		fileExists = err == nil
	}

	httpserver.WriteJSON(w, http.StatusOK, healthResponse{
		Status:             "healthy",
		Backend:            h.backend.Kind(),
		Model:              h.backend.Model(),
		BackendConfigured:  h.backend.Configured(),
		SystemPromptsCount: h.store.Count(),
		PromptsFile:        h.promptsFile,
		PromptsFileExists:  fileExists,
	})
}

// writeBackendError переводит ошибки бэкенда в HTTP-статусы.
func (h *Handler) writeBackendError(w http.ResponseWriter, err error) {
	h.logger.Error("backend request failed", slog.String("error", err.Error()))
	switch {
	case errors.Is(err, llm.ErrTimeout):
		httpserver.WriteJSONError(w, http.StatusGatewayTimeout, "backend_timeout", "Request timed out")
	case errors.Is(err, llm.ErrProtocol):
		httpserver.WriteJSONError(w, http.StatusInternalServerError, "backend_protocol", err.Error())
	default:
		httpserver.WriteJSONError(w, http.StatusInternalServerError, "backend_unavailable", err.Error())
	}
}
