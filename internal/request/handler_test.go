package request_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"academic-assist/internal/config"
	"academic-assist/internal/logger"
	"academic-assist/internal/metrics"
	"academic-assist/internal/request"
	"academic-assist/internal/session"
	"academic-assist/internal/upload"
	"academic-assist/internal/web"
	"academic-assist/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	field, name, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func assignmentFields() map[string]string {
	return map[string]string{
		"name":            "Jane Doe",
		"email":           "jane@example.com",
		"contact":         "0700000000",
		"university":      "State University",
		"assignment_type": "Essay",
		"subject":         "History",
		"due_date":        "2030-01-01",
		"details":         "Five pages.",
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func withCookies(req *http.Request, w *httptest.ResponseRecorder) *http.Request {
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequestHandler(t *testing.T) {
	db := testdb.NewSQLite(t, request.Models()...)
	log := logger.Discard()
	store := upload.NewLocalStore(t.TempDir())
	uploader := upload.NewUploader(store, upload.NewPolicy([]string{"pdf", "png", "txt"}), log)
	svc := request.NewService(request.NewRepository(db, metrics.NewMock()), uploader, &recordingPublisher{}, metrics.NewMock(), log)

	views, err := web.NewViews()
	require.NoError(t, err)
	sessions, err := session.NewManager(config.SessionConfig{Secret: "test", CookieName: "session", MaxAge: 3600}, log)
	require.NoError(t, err)

	handler := request.NewHandler(svc, web.NewResponder(views, sessions, log), log)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterAdminRoutes(router)

	ctx := context.Background()

	t.Run("FormPage", func(t *testing.T) {
		for path, action := range map[string]string{
			"/assignment-assistance": "/submit-assignment",
			"/quiz-assistance":       "/submit-quiz",
			"/exam-assistance":       "/submit-exam",
		} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.Contains(t, w.Body.String(), `action="`+action+`"`)
		}
	})

	t.Run("SubmitAssignment_Success", func(t *testing.T) {
		testdb.CleanupTables(t, db, "assignments")

		body, contentType := multipartBody(t, assignmentFields(), formFile{"file", "brief.txt", "hello"})
		req := httptest.NewRequest(http.MethodPost, "/submit-assignment", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/payment", w.Header().Get("Location"))

		loaded := sessions.Load(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), w))
		require.NotNil(t, loaded.Submission)
		assert.Equal(t, "assignment", loaded.Submission.Category)
		assert.False(t, loaded.RequestTime.IsZero())

		stored, err := svc.Get(ctx, request.CategoryAssignment, loaded.Submission.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusPendingPayment, stored.Status)
		assert.Equal(t, "brief.txt", stored.File)

		// flash shows on the next page
		page := httptest.NewRecorder()
		router.ServeHTTP(page, withCookies(httptest.NewRequest(http.MethodGet, "/payment", nil), w))
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), "Assignment submitted successfully! Please proceed to payment.")
	})

	t.Run("SubmitAssignment_UrlEncoded", func(t *testing.T) {
		testdb.CleanupTables(t, db, "assignments")

		values := url.Values{}
		for k, v := range assignmentFields() {
			values.Set(k, v)
		}
		req := httptest.NewRequest(http.MethodPost, "/submit-assignment", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
	})

	t.Run("SubmitAssignment_ValidationError", func(t *testing.T) {
		testdb.CleanupTables(t, db, "assignments")

		fields := assignmentFields()
		delete(fields, "university")
		fields["due_date"] = "next tuesday"
		body, contentType := multipartBody(t, fields)
		req := httptest.NewRequest(http.MethodPost, "/submit-assignment", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "university is a required field")
		assert.Contains(t, w.Body.String(), "due_date must be a valid date in YYYY-MM-DD format")
		// entered values are kept
		assert.Contains(t, w.Body.String(), `value="Jane Doe"`)

		list, err := svc.List(ctx, request.CategoryAssignment)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("UploadProof_Success", func(t *testing.T) {
		testdb.CleanupTables(t, db, "quiz_requests")

		created, err := svc.Submit(ctx, &request.QuizForm{
			Name: "Sam", Email: "sam@example.com", Contact: "1", Subject: "Math", QuizType: "Online", TestDate: "2030-02-02",
		}, nil)
		require.NoError(t, err)

		seed := httptest.NewRecorder()
		require.NoError(t, sessions.Save(seed, &session.Session{
			Submission: &session.Submission{Category: "quiz", ID: created.ID},
		}))

		body, contentType := multipartBody(t, nil, formFile{"proof", "receipt.pdf", "paid"})
		req := withCookies(httptest.NewRequest(http.MethodPost, "/upload-proof", body), seed)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/queue-tracking", w.Header().Get("Location"))

		stored, err := svc.Get(ctx, request.CategoryQuiz, created.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusPaymentSubmitted, stored.Status)
		assert.Equal(t, "receipt.pdf", stored.ProofOfPayment)

		loaded := sessions.Load(withCookies(httptest.NewRequest(http.MethodGet, "/", nil), w))
		assert.False(t, loaded.PaymentTime.IsZero())
	})

	t.Run("UploadProof_DisallowedExtension", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, formFile{"proof", "receipt.exe", "x"})
		req := httptest.NewRequest(http.MethodPost, "/upload-proof", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/payment", w.Header().Get("Location"))
	})

	t.Run("UploadProof_NoSubmission", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, formFile{"proof", "orphan.png", "png"})
		req := httptest.NewRequest(http.MethodPost, "/upload-proof", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/queue-tracking", w.Header().Get("Location"))

		exists, err := store.Exists(ctx, upload.DirPayments, "orphan.png")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("QueueTracking_StickyID", func(t *testing.T) {
		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/queue-tracking", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		idPattern := regexp.MustCompile(`AA-\d{8}-[0-9A-F]{6}`)
		id := idPattern.FindString(first.Body.String())
		require.NotEmpty(t, id)

		second := httptest.NewRecorder()
		router.ServeHTTP(second, withCookies(httptest.NewRequest(http.MethodGet, "/queue-tracking", nil), first))
		assert.Equal(t, id, idPattern.FindString(second.Body.String()))
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		testdb.CleanupTables(t, db, "assignments")
		created, err := svc.Submit(ctx, validAssignment(), nil)
		require.NoError(t, err)

		form := url.Values{"status": {"Completed"}}
		req := httptest.NewRequest(http.MethodPost, "/update-status/assignment/"+itoa(created.ID), strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))

		stored, err := svc.Get(ctx, request.CategoryAssignment, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Completed", stored.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		for _, path := range []string{
			"/update-status/homework/1",
			"/update-status/assignment/abc",
			"/update-status/exam/999",
			"/delete/quiz/999",
		} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Contains(t, w.Body.String(), "Page Not Found", path)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		testdb.CleanupTables(t, db, "assignments")
		created, err := svc.Submit(ctx, validAssignment(), nil)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/delete/assignments/"+itoa(created.ID), nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)

		_, err = svc.Get(ctx, request.CategoryAssignment, created.ID)
		assert.ErrorIs(t, err, request.ErrNotFound)
	})
}
