package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"academic-assist/internal/app"
	"academic-assist/internal/config"
	"academic-assist/internal/dashboard"
	"academic-assist/internal/logger"
	"academic-assist/internal/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:      "test",
		Location: "UTC",
		Server:   config.ServerConfig{Port: "0", MaxUploadBytes: 16 << 20},
		Database: config.DatabaseConfig{SQLitePath: filepath.Join(dir, "academic_assist.db")},
		Session:  config.SessionConfig{Secret: "e2e-secret", CookieName: "session", MaxAge: 3600},
		Uploads: config.UploadsConfig{
			Driver:            "local",
			Root:              filepath.Join(dir, "uploads"),
			AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg", "doc", "docx", "txt"},
		},
		Events: config.EventsConfig{Driver: "none"},
	}
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) postForm(path string, values url.Values) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(values.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postMultipart(path string, fields map[string]string, fileField, fileName, fileBody string) (*http.Response, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(b.t, err)
		_, err = fw.Write([]byte(fileBody))
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.base+path, &buf)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) overview() dashboard.Overview {
	b.t.Helper()
	resp, body := b.get("/dashboard?format=json")
	require.Equal(b.t, http.StatusOK, resp.StatusCode, body)
	var overview dashboard.Overview
	require.NoError(b.t, json.Unmarshal([]byte(body), &overview))
	return overview
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	application, err := app.NewWithConfig(ctx, testConfig(t), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { application.Shutdown(context.Background()) })

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	student := newBrowser(t, server.URL)
	admin := newBrowser(t, server.URL)

	t.Run("PublicPages", func(t *testing.T) {
		for _, path := range []string{"/", "/assignment-assistance", "/quiz-assistance", "/exam-assistance", "/payment", "/login", "/health", "/ready"} {
			resp, body := student.get(path)
			assert.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", path, body)
		}

		resp, body := student.get("/no-such-page")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "Page Not Found")
	})

	t.Run("AdminRoutesNeedLogin", func(t *testing.T) {
		for _, path := range []string{"/dashboard", "/download-all-pdf/assignments", "/download-pdf/assignment/1", "/download/payments/x.pdf"} {
			resp, _ := student.get(path)
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
			assert.Equal(t, "/login", resp.Header.Get("Location"), path)
		}

		resp, _ := student.postForm("/update-status/assignment/1", url.Values{"status": {"Hacked"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("AssignmentLifecycle", func(t *testing.T) {
		resp, body := student.postMultipart("/submit-assignment", map[string]string{
			"name":            "Jane Doe",
			"email":           "jane@example.com",
			"contact":         "0700000000",
			"university":      "State University",
			"assignment_type": "Essay",
			"subject":         "History",
			"due_date":        "2030-01-01",
			"details":         "Five pages on the industrial revolution.",
		}, "file", "brief.txt", "the brief")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, body)
		assert.Equal(t, "/payment", resp.Header.Get("Location"))

		resp, body = student.get("/payment")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Assignment submitted successfully!")

		resp, _ = student.postMultipart("/upload-proof", nil, "proof", "receipt.pdf", "%PDF-1.4 paid")
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/queue-tracking", resp.Header.Get("Location"))

		resp, body = student.get("/queue-tracking")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Payment proof uploaded successfully!")
		assert.Regexp(t, `AA-\d{8}-[0-9A-F]{6}`, body)

		// admin logs in
		resp, body = admin.postForm("/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, "Invalid username or password")

		resp, _ = admin.postForm("/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

		resp, body = admin.get("/dashboard")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Logged in successfully!")

		overview := admin.overview()
		assignments := overview.Sections[0]
		require.Equal(t, request.CategoryAssignment, assignments.Category)
		require.Len(t, assignments.Entries, 1)
		entry := assignments.Entries[0]
		assert.Equal(t, request.StatusPaymentSubmitted, entry.Status)
		assert.Equal(t, "receipt.pdf", entry.ProofOfPayment)
		assert.True(t, entry.FileExists)
		assert.True(t, entry.PaymentExists)
		assert.Equal(t, 1, assignments.Active)
		assert.Equal(t, 0, overview.PendingPayments)

		id := strconv.FormatInt(entry.ID, 10)

		resp, body = admin.get("/download/payments/receipt.pdf")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "%PDF-1.4 paid", body)

		resp, body = admin.get("/download-pdf/assignment/" + id)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.True(t, strings.HasPrefix(body, "%PDF-"))

		resp, _ = admin.get("/download-all-pdf/assignments")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "attachment; filename=all_assignments_report.pdf", resp.Header.Get("Content-Disposition"))

		resp, _ = admin.postForm("/update-status/assignment/"+id, url.Values{"status": {"Completed"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "Completed", admin.overview().Sections[0].Entries[0].Status)

		resp, _ = admin.postForm("/delete/assignment/"+id, nil)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Empty(t, admin.overview().Sections[0].Entries)

		resp, _ = admin.get("/download-pdf/assignment/" + id)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Logout", func(t *testing.T) {
		resp, _ := admin.get("/logout")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

		resp, _ = admin.get("/dashboard")
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})
}
