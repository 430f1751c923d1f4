package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"academic-assist/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestLogger(logger))
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	router.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fine"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"path":"/ok"`)
	assert.Contains(t, buf.String(), `"request_id"`)

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"status":500`)
}

func TestCORS(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.CORS([]string{"https://portal.example.com"}))
	router.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {})

	t.Run("AllowedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Origin", "https://portal.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("OtherOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("EmptyListSetsNoHeaders", func(t *testing.T) {
		closed := chi.NewRouter()
		closed.Use(middleware.CORS([]string{}))
		closed.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {})
		closed.Post("/delete/{category}/{id}", func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		closed.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

		preflight := httptest.NewRequest(http.MethodOptions, "/delete/assignment/1", nil)
		preflight.Header.Set("Origin", "https://evil.example.com")
		preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w = httptest.NewRecorder()
		closed.ServeHTTP(w, preflight)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})
}
