package request

import (
	"fmt"
	"strings"
	"time"

	"academic-assist/internal/upload"

	"github.com/uptrace/bun"
)

const (
	StatusPendingPayment   = "Pending Payment"
	StatusPaymentSubmitted = "Payment Submitted"
)

// DateLayout is the wire format of every request date.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryAssignment Category = "assignment"
	CategoryQuiz       Category = "quiz"
	CategoryExam       Category = "exam"
)

var Categories = []Category{CategoryAssignment, CategoryQuiz, CategoryExam}

// ParseCategory accepts the singular tag ("quiz") and the plural directory
// name ("quizzes").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "assignment", "assignments":
		return CategoryAssignment, nil
	case "quiz", "quizzes":
		return CategoryQuiz, nil
	case "exam", "exams":
		return CategoryExam, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Dir is the upload directory and the plural used in URLs.
func (c Category) Dir() string {
	switch c {
	case CategoryAssignment:
		return upload.DirAssignments
	case CategoryQuiz:
		return upload.DirQuizzes
	case CategoryExam:
		return upload.DirExams
	}
	return ""
}

func (c Category) Title() string {
	switch c {
	case CategoryAssignment:
		return "Assignment"
	case CategoryQuiz:
		return "Quiz"
	case CategoryExam:
		return "Exam"
	}
	return string(c)
}

func (c Category) table() string {
	switch c {
	case CategoryAssignment:
		return "assignments"
	case CategoryQuiz:
		return "quiz_requests"
	case CategoryExam:
		return "exam_requests"
	}
	return ""
}

func (c Category) dateColumn() string {
	switch c {
	case CategoryAssignment:
		return "due_date"
	case CategoryQuiz:
		return "test_date"
	case CategoryExam:
		return "exam_date"
	}
	return ""
}

// Record is implemented by the three persisted request models.
type Record interface {
	View() Request
}

type Assignment struct {
	bun.BaseModel `bun:"table:assignments,alias:a"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Name           string    `bun:"name,notnull,type:varchar(150)" json:"name"`
	Email          string    `bun:"email,notnull,type:varchar(150)" json:"email"`
	Contact        string    `bun:"contact,notnull,type:varchar(50)" json:"contact"`
	University     string    `bun:"university,notnull,type:varchar(150)" json:"university"`
	AssignmentType string    `bun:"assignment_type,notnull,type:varchar(100)" json:"assignmentType"`
	Subject        string    `bun:"subject,notnull,type:varchar(150)" json:"subject"`
	DueDate        time.Time `bun:"due_date,notnull,type:date" json:"dueDate"`
	Details        string    `bun:"details,notnull,type:text" json:"details"`
	AssignmentFile string    `bun:"assignment_file,nullzero,type:varchar(255)" json:"assignmentFile,omitempty"`
	ProofOfPayment string    `bun:"proof_of_payment,nullzero,type:varchar(255)" json:"proofOfPayment,omitempty"`
	Status         string    `bun:"status,notnull,type:varchar(50)" json:"status"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}

func (a *Assignment) View() Request {
	return Request{
		ID:             a.ID,
		Category:       CategoryAssignment,
		Name:           a.Name,
		Email:          a.Email,
		Contact:        a.Contact,
		University:     a.University,
		Type:           a.AssignmentType,
		Subject:        a.Subject,
		Date:           DateOf(a.DueDate.UTC()),
		Details:        a.Details,
		File:           a.AssignmentFile,
		ProofOfPayment: a.ProofOfPayment,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
	}
}

type QuizRequest struct {
	bun.BaseModel `bun:"table:quiz_requests,alias:q"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Name           string    `bun:"name,notnull,type:varchar(150)" json:"name"`
	Email          string    `bun:"email,notnull,type:varchar(150)" json:"email"`
	Contact        string    `bun:"contact,notnull,type:varchar(50)" json:"contact"`
	University     string    `bun:"university,nullzero,type:varchar(150)" json:"university,omitempty"`
	Subject        string    `bun:"subject,notnull,type:varchar(150)" json:"subject"`
	QuizType       string    `bun:"quiz_type,notnull,type:varchar(100)" json:"quizType"`
	TestDate       time.Time `bun:"test_date,notnull,type:date" json:"testDate"`
	Topics         string    `bun:"topics,nullzero,type:text" json:"topics,omitempty"`
	QuizFile       string    `bun:"quiz_file,nullzero,type:varchar(255)" json:"quizFile,omitempty"`
	ProofOfPayment string    `bun:"proof_of_payment,nullzero,type:varchar(255)" json:"proofOfPayment,omitempty"`
	Status         string    `bun:"status,notnull,type:varchar(50)" json:"status"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}

func (q *QuizRequest) View() Request {
	return Request{
		ID:             q.ID,
		Category:       CategoryQuiz,
		Name:           q.Name,
		Email:          q.Email,
		Contact:        q.Contact,
		University:     q.University,
		Type:           q.QuizType,
		Subject:        q.Subject,
		Date:           DateOf(q.TestDate.UTC()),
		Details:        q.Topics,
		File:           q.QuizFile,
		ProofOfPayment: q.ProofOfPayment,
		Status:         q.Status,
		CreatedAt:      q.CreatedAt,
	}
}

type ExamRequest struct {
	bun.BaseModel `bun:"table:exam_requests,alias:e"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Name           string    `bun:"name,notnull,type:varchar(150)" json:"name"`
	Email          string    `bun:"email,notnull,type:varchar(150)" json:"email"`
	Contact        string    `bun:"contact,notnull,type:varchar(50)" json:"contact"`
	University     string    `bun:"university,notnull,type:varchar(150)" json:"university"`
	Subject        string    `bun:"subject,notnull,type:varchar(150)" json:"subject"`
	ExamType       string    `bun:"exam_type,notnull,type:varchar(100)" json:"examType"`
	ExamDate       time.Time `bun:"exam_date,notnull,type:date" json:"examDate"`
	Topics         string    `bun:"topics,nullzero,type:text" json:"topics,omitempty"`
	ExamFile       string    `bun:"exam_file,nullzero,type:varchar(255)" json:"examFile,omitempty"`
	ProofOfPayment string    `bun:"proof_of_payment,nullzero,type:varchar(255)" json:"proofOfPayment,omitempty"`
	Status         string    `bun:"status,notnull,type:varchar(50)" json:"status"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}

func (e *ExamRequest) View() Request {
	return Request{
		ID:             e.ID,
		Category:       CategoryExam,
		Name:           e.Name,
		Email:          e.Email,
		Contact:        e.Contact,
		University:     e.University,
		Type:           e.ExamType,
		Subject:        e.Subject,
		Date:           DateOf(e.ExamDate.UTC()),
		Details:        e.Topics,
		File:           e.ExamFile,
		ProofOfPayment: e.ProofOfPayment,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
	}
}

// Models lists the tables created at startup.
func Models() []interface{} {
	return []interface{}{
		(*Assignment)(nil),
		(*QuizRequest)(nil),
		(*ExamRequest)(nil),
	}
}

// Request is the category-independent view of a record. Date is the due,
// test or exam date; Details holds assignment details or quiz/exam topics.
type Request struct {
	ID             int64     `json:"id"`
	Category       Category  `json:"category"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Contact        string    `json:"contact"`
	University     string    `json:"university,omitempty"`
	Type           string    `json:"type"`
	Subject        string    `json:"subject"`
	Date           time.Time `json:"date"`
	Details        string    `json:"details,omitempty"`
	File           string    `json:"file,omitempty"`
	ProofOfPayment string    `json:"proofOfPayment,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Active reports whether the request date is today or later.
func (r Request) Active(today time.Time) bool {
	return !r.Date.Before(DateOf(today))
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newModel(c Category) (Record, error) {
	switch c {
	case CategoryAssignment:
		return &Assignment{}, nil
	case CategoryQuiz:
		return &QuizRequest{}, nil
	case CategoryExam:
		return &ExamRequest{}, nil
	}
	return nil, ErrInvalidCategory
}
