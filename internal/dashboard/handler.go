package dashboard

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"academic-assist/internal/auth"
	"academic-assist/internal/httputil"
	"academic-assist/internal/request"
	"academic-assist/internal/upload"
	"academic-assist/internal/web"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	store   upload.Store
	web     *web.Responder
	logger  *slog.Logger
}

func NewHandler(service *Service, store upload.Store, responder *web.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		web:     responder,
		logger:  logger,
	}
}

// RegisterRoutes expects to be mounted behind auth.RequireAdmin.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/dashboard", h.Dashboard)
	router.Get("/download/{category}/{filename}", h.Download)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admin, _ := auth.AdminFromContext(ctx)

	asJSON := r.URL.Query().Get("format") == "json"

	overview, err := h.service.Overview(ctx)
	if err != nil {
		if asJSON {
			h.logger.ErrorContext(ctx, "failed to build dashboard", "error", err)
			httputil.RespondWithError(w, http.StatusInternalServerError, "failed to load dashboard")
			return
		}
		h.web.ServerError(w, r, err)
		return
	}
	h.logger.DebugContext(ctx, "dashboard loaded", "admin", admin, "total", overview.TotalRequests)

	if asJSON {
		httputil.RespondWithJSON(w, http.StatusOK, overview)
		return
	}

	sess := h.web.Sessions().Load(r)
	h.web.Page(w, r, sess, http.StatusOK, "dashboard", "Dashboard", overview)
}

// Download serves a stored upload. {category} is a request category in either
// form, or "payments" for proofs.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dir, ok := downloadDir(chi.URLParam(r, "category"))
	if !ok {
		h.web.NotFound(w, r)
		return
	}

	requested := chi.URLParam(r, "filename")
	name := upload.SanitizeFilename(requested)
	if name == "" || name != requested {
		h.logger.WarnContext(ctx, "rejected download name", "filename", requested)
		h.web.NotFound(w, r)
		return
	}

	f, err := h.store.Open(ctx, dir, name)
	if err != nil {
		if errors.Is(err, upload.ErrFileNotFound) {
			h.web.NotFound(w, r)
			return
		}
		h.web.ServerError(w, r, err)
		return
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		h.web.ServerError(w, r, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.logger.InfoContext(ctx, "file downloaded", "dir", dir, "name", name)
	httputil.RespondWithAttachment(w, contentType, name, body)
}

func downloadDir(param string) (string, bool) {
	if param == upload.DirPayments {
		return upload.DirPayments, true
	}
	category, err := request.ParseCategory(param)
	if err != nil {
		return "", false
	}
	return category.Dir(), true
}
