package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"academic-assist/internal/httputil"
	"academic-assist/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"index",
	"assignment_assistance",
	"quiz_assistance",
	"exam_assistance",
	"payment",
	"queue_tracking",
	"login",
	"dashboard",
	"404",
	"500",
}

// Page is the data every template receives.
type Page struct {
	Title   string
	Flashes []session.Flash
	Admin   string
	Data    any
}

type Views struct {
	pages map[string]*template.Template
}

func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"lower": strings.ToLower,
	}

	v := &Views{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

// Render executes the named page into a buffer first so a template error
// never produces a half-written 200.
func (v *Views) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Responder renders pages for a session: pending flashes are consumed and
// the session cookie is written before the body.
type Responder struct {
	views    *Views
	sessions *session.Manager
	logger   *slog.Logger
}

func NewResponder(views *Views, sessions *session.Manager, logger *slog.Logger) *Responder {
	return &Responder{
		views:    views,
		sessions: sessions,
		logger:   logger,
	}
}

func (rs *Responder) Sessions() *session.Manager {
	return rs.sessions
}

func (rs *Responder) Page(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, name, title string, data any) {
	page := Page{
		Title:   title,
		Flashes: sess.PopFlashes(),
		Admin:   sess.Username,
		Data:    data,
	}
	if !sess.IsAdmin() {
		page.Admin = ""
	}

	if err := rs.sessions.Save(w, sess); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to save session", "error", err)
	}
	if err := rs.views.Render(w, status, name, page); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Redirect saves sess and sends a 303 to path.
func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, path string) {
	if err := rs.sessions.Save(w, sess); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to save session", "error", err)
	}
	httputil.Redirect(w, r, path)
}

func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	sess := rs.sessions.Load(r)
	rs.Page(w, r, sess, http.StatusNotFound, "404", "Page Not Found", nil)
}

func (rs *Responder) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rs.logger.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
	sess := rs.sessions.Load(r)
	rs.Page(w, r, sess, http.StatusInternalServerError, "500", "Server Error", nil)
}
