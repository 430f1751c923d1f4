package health

import (
	"log/slog"
	"net/http"

	"academic-assist/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	checker *Checker
	logger  *slog.Logger
}

func NewHandler(checker *Checker, logger *slog.Logger) *Handler {
	return &Handler{
		checker: checker,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type Response struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, Response{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	failures := h.checker.Check(r.Context())

	resp := Response{
		Status: "ready",
		Dependencies: map[string]string{
			"database": "up",
			"storage":  "up",
		},
	}
	for name, err := range failures {
		h.logger.WarnContext(r.Context(), "readiness probe failed", "dependency", name, "error", err)
		resp.Dependencies[name] = "down"
	}

	if len(failures) > 0 {
		resp.Status = "not ready"
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}
