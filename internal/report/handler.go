package report

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"academic-assist/internal/httputil"
	"academic-assist/internal/request"
	"academic-assist/internal/web"

	"github.com/go-chi/chi/v5"
)

const contentTypePDF = "application/pdf"

type Handler struct {
	service *Service
	web     *web.Responder
	logger  *slog.Logger
}

func NewHandler(service *Service, responder *web.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		web:     responder,
		logger:  logger,
	}
}

// RegisterRoutes expects to be mounted behind auth.RequireAdmin.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/download-pdf/{kind}/{id}", h.DownloadSingle)
	router.Get("/download-all-pdf/{kind}", h.DownloadAll)
}

func (h *Handler) DownloadSingle(w http.ResponseWriter, r *http.Request) {
	category, err := request.ParseCategory(chi.URLParam(r, "kind"))
	if err != nil {
		h.web.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.web.NotFound(w, r)
		return
	}

	file, err := h.service.Single(r.Context(), category, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithAttachment(w, contentTypePDF, file.Name, file.Body)
}

func (h *Handler) DownloadAll(w http.ResponseWriter, r *http.Request) {
	category, err := request.ParseCategory(chi.URLParam(r, "kind"))
	if err != nil {
		h.web.NotFound(w, r)
		return
	}

	file, err := h.service.Bulk(r.Context(), category)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithAttachment(w, contentTypePDF, file.Name, file.Body)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, request.ErrNotFound) || errors.Is(err, request.ErrInvalidCategory) {
		h.logger.InfoContext(r.Context(), "report target not found", "path", r.URL.Path)
		h.web.NotFound(w, r)
		return
	}
	h.web.ServerError(w, r, err)
}
