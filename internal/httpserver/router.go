package httpserver

import (
	"net/http"

	"promptlab/internal/middleware"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Logger *slog.Logger
	API    http.Handler
}

// NewRouter собирает chi-роутер с общими middleware и монтирует
// API-обработчики под /api.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Mount("/api", deps.API)

	return r
}
