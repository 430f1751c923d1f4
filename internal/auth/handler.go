package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"academic-assist/internal/session"
	"academic-assist/internal/web"

	"github.com/go-chi/chi/v5"
)

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

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/login", h.LoginPage)
	router.Post("/login", h.Login)
	router.Get("/logout", h.Logout)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := h.web.Sessions().Load(r)
	h.web.Page(w, r, sess, http.StatusOK, "login", "Admin Login", "")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.web.Sessions().Load(r)

	creds := Credentials{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	admin, err := h.service.Login(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.WarnContext(ctx, "failed admin login", "username", creds.Username)
			sess.AddFlash(session.FlashDanger, "Invalid username or password")
			h.web.Page(w, r, sess, http.StatusUnauthorized, "login", "Admin Login", creds.Username)
			return
		}
		h.web.ServerError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "admin logged in", "username", admin.Username)
	sess.AdminID = admin.ID
	sess.Username = admin.Username
	sess.AddFlash(session.FlashSuccess, "Logged in successfully!")
	h.web.Redirect(w, r, sess, "/dashboard")
}

// Logout drops the whole session, pending submission included.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.web.Sessions().Load(r)
	if sess.IsAdmin() {
		h.logger.InfoContext(r.Context(), "admin logged out", "username", sess.Username)
	}
	sess.Clear()
	sess.AddFlash(session.FlashInfo, "You have been logged out.")
	h.web.Redirect(w, r, sess, "/login")
}
