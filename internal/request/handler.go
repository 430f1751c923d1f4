package request

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"academic-assist/internal/session"
	"academic-assist/internal/upload"
	"academic-assist/internal/web"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
	web     *web.Responder
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(service Service, responder *web.Responder, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		web:     responder,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes mounts the public intake, payment and tracking pages.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/assignment-assistance", h.FormPage(CategoryAssignment))
	router.Get("/quiz-assistance", h.FormPage(CategoryQuiz))
	router.Get("/exam-assistance", h.FormPage(CategoryExam))

	router.Post("/submit-assignment", h.Submit(CategoryAssignment))
	router.Post("/submit-quiz", h.Submit(CategoryQuiz))
	router.Post("/submit-exam", h.Submit(CategoryExam))

	router.Get("/payment", h.PaymentPage)
	router.Post("/upload-proof", h.UploadProof)
	router.Get("/queue-tracking", h.QueueTracking)
}

// RegisterAdminRoutes mounts the mutations that need an admin session.
func (h *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/update-status/{category}/{id}", h.UpdateStatus)
	router.Post("/delete/{category}/{id}", h.Delete)
}

type formPage struct {
	Values map[string]string
	Errors []FieldError
}

var formTemplates = map[Category]struct{ name, title string }{
	CategoryAssignment: {"assignment_assistance", "Assignment Assistance"},
	CategoryQuiz:       {"quiz_assistance", "Quiz Assistance"},
	CategoryExam:       {"exam_assistance", "Exam Assistance"},
}

func (h *Handler) FormPage(category Category) http.HandlerFunc {
	tmpl := formTemplates[category]
	return func(w http.ResponseWriter, r *http.Request) {
		sess := h.web.Sessions().Load(r)
		h.web.Page(w, r, sess, http.StatusOK, tmpl.name, tmpl.title, formPage{Values: map[string]string{}})
	}
}

func (h *Handler) Submit(category Category) http.HandlerFunc {
	tmpl := formTemplates[category]
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := h.web.Sessions().Load(r)

		if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			h.handleUploadError(w, r, err)
			return
		}

		form, err := NewForm(category)
		if err != nil {
			h.web.NotFound(w, r)
			return
		}
		if err := BindForm(r.Form, form); err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		file, closeFile, err := formFile(r, "file")
		if err != nil {
			h.web.ServerError(w, r, err)
			return
		}
		defer closeFile()

		h.logger.InfoContext(ctx, "submitting request", "category", category)
		created, err := h.service.Submit(ctx, form, file)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				h.logger.InfoContext(ctx, "intake validation failed", "category", category, "fields", len(verr.Fields))
				for _, f := range verr.Fields {
					sess.AddFlash(session.FlashDanger, f.Message)
				}
				values := make(map[string]string, len(r.Form))
				for k := range r.Form {
					values[k] = r.Form.Get(k)
				}
				h.web.Page(w, r, sess, http.StatusBadRequest, tmpl.name, tmpl.title, formPage{Values: values, Errors: verr.Fields})
				return
			}
			h.handleServiceError(w, r, err)
			return
		}

		sess.Submission = &session.Submission{Category: string(created.Category), ID: created.ID}
		sess.RequestTime = h.now()
		sess.AddFlash(session.FlashSuccess, submittedMessage(category))

		h.web.Redirect(w, r, sess, "/payment")
	}
}

func submittedMessage(category Category) string {
	switch category {
	case CategoryQuiz:
		return "Quiz request submitted successfully! Please proceed to payment."
	case CategoryExam:
		return "Exam request submitted successfully! Please proceed to payment."
	}
	return "Assignment submitted successfully! Please proceed to payment."
}

func (h *Handler) PaymentPage(w http.ResponseWriter, r *http.Request) {
	sess := h.web.Sessions().Load(r)
	h.web.Page(w, r, sess, http.StatusOK, "payment", "Payment", nil)
}

func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.web.Sessions().Load(r)

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.handleUploadError(w, r, err)
		return
	}

	proof, closeFile, err := formFile(r, "proof")
	if err != nil {
		h.web.ServerError(w, r, err)
		return
	}
	defer closeFile()

	var ref *Ref
	if sess.Submission != nil {
		category, err := ParseCategory(sess.Submission.Category)
		if err == nil {
			ref = &Ref{Category: category, ID: sess.Submission.ID}
		}
	}

	_, err = h.service.AttachPayment(ctx, ref, proof)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "payment proof attached", "category", ref.Category, "id", ref.ID)
		sess.AddFlash(session.FlashSuccess, "Payment proof uploaded successfully!")
	case errors.Is(err, ErrNoSubmission):
		h.logger.WarnContext(ctx, "payment proof stored without a submission in session")
	case errors.Is(err, ErrNoProof):
		sess.AddFlash(session.FlashWarning, "Please choose a proof of payment file to upload.")
		h.web.Redirect(w, r, sess, "/payment")
		return
	case errors.Is(err, upload.ErrExtensionNotAllowed), errors.Is(err, upload.ErrInvalidFilename):
		sess.AddFlash(session.FlashWarning, "File type not allowed. Please upload a pdf, png, jpg, jpeg, doc, docx or txt file.")
		h.web.Redirect(w, r, sess, "/payment")
		return
	default:
		h.handleServiceError(w, r, err)
		return
	}

	sess.PaymentTime = h.now()
	h.web.Redirect(w, r, sess, "/queue-tracking")
}

func (h *Handler) QueueTracking(w http.ResponseWriter, r *http.Request) {
	sess := h.web.Sessions().Load(r)
	now := h.now()

	if sess.RequestID == "" {
		sess.RequestID = NewTrackingID(now)
	}

	status := Estimate(sess.RequestID, sess.RequestTime, sess.PaymentTime, now)
	h.web.Page(w, r, sess, http.StatusOK, "queue_tracking", "Queue Tracking", status)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category, id, ok := h.target(w, r)
	if !ok {
		return
	}

	status := r.FormValue("status")
	h.logger.InfoContext(ctx, "updating request status", "category", category, "id", id, "status", status)
	if _, err := h.service.UpdateStatus(ctx, category, id, status); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sess := h.web.Sessions().Load(r)
	sess.AddFlash(session.FlashSuccess, category.Title()+" status updated successfully!")
	h.web.Redirect(w, r, sess, "/dashboard")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category, id, ok := h.target(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(ctx, "deleting request", "category", category, "id", id)
	if err := h.service.Delete(ctx, category, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sess := h.web.Sessions().Load(r)
	sess.AddFlash(session.FlashSuccess, category.Title()+" deleted successfully!")
	h.web.Redirect(w, r, sess, "/dashboard")
}

// target parses {category}/{id}; anything unparseable is a 404.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (Category, int64, bool) {
	category, err := ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		h.web.NotFound(w, r)
		return "", 0, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.web.NotFound(w, r)
		return "", 0, false
	}
	return category, id, true
}

func (h *Handler) handleUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.logger.WarnContext(r.Context(), "upload too large", "limit", maxErr.Limit)
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}
	h.logger.InfoContext(r.Context(), "malformed form", "error", err)
	http.Error(w, "Bad Request", http.StatusBadRequest)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCategory) {
		h.logger.InfoContext(r.Context(), "request not found")
		h.web.NotFound(w, r)
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		h.logger.InfoContext(r.Context(), "invalid input", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	h.web.ServerError(w, r, err)
}

// formFile returns the named upload, or nil when the field is empty.
func formFile(r *http.Request, field string) (*upload.File, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	if header.Filename == "" {
		f.Close()
		return nil, noop, nil
	}

	return fromHeader(f, header), func() { f.Close() }, nil
}

func fromHeader(f multipart.File, header *multipart.FileHeader) *upload.File {
	return &upload.File{
		Name:    header.Filename,
		Size:    header.Size,
		Content: f,
	}
}
