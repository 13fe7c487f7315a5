package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Totarae/relay/internal/handlers"
	"github.com/Totarae/relay/internal/middleware"
)

// NewRouter создаёт и настраивает маршрутизатор.
// POST принимается на любом пути. metricsHandler может быть nil.
// maxBodySize ограничивает распакованное gzip-тело запроса.
func NewRouter(handler *handlers.Handler, logger *zap.Logger, metricsHandler http.Handler, maxBodySize int64) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.GzipMiddleware(handlers.InvalidInput, maxBodySize))

	r.Get("/ping", handler.Ping)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Post("/", handler.Relay)
	r.Post("/*", handler.Relay)
	return r
}
