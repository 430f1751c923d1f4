package request

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const notBlankTag = "notblank"

var formDecoder = newFormDecoder()

func newFormDecoder() *form.Decoder {
	decoder := form.NewDecoder()
	decoder.RegisterCustomTypeFunc(func(vals []string) (interface{}, error) {
		if len(vals) == 0 {
			return "", nil
		}
		return strings.TrimSpace(vals[0]), nil
	}, "")
	return decoder
}

// FieldError is a single translated validation failure keyed by form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Validator checks intake forms and renders English field messages.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() *Validator {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report form field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator, func(ut ut.Translator) error {
		return ut.Add(notBlankTag, "{0} is a required field", true)
	}, translateField)
	_ = validate.RegisterTranslation("datetime", translator, func(ut ut.Translator) error {
		return ut.Add("datetime", "{0} must be a valid date in YYYY-MM-DD format", true)
	}, translateField)

	return &Validator{
		validate:   validate,
		translator: translator,
	}
}

func translateField(ut ut.Translator, fe validator.FieldError) string {
	msg, err := ut.T(fe.Tag(), fe.Field())
	if err != nil {
		return fe.Error()
	}
	return msg
}

// Validate returns a *ValidationError listing every failing field, or nil.
func (v *Validator) Validate(form Form) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
		})
	}
	return out
}

// Form is an intake payload for one category.
type Form interface {
	Category() Category
	record(file string, now time.Time) (Record, error)
}

// NewForm returns an empty form for c.
func NewForm(c Category) (Form, error) {
	switch c {
	case CategoryAssignment:
		return &AssignmentForm{}, nil
	case CategoryQuiz:
		return &QuizForm{}, nil
	case CategoryExam:
		return &ExamForm{}, nil
	}
	return nil, ErrInvalidCategory
}

type AssignmentForm struct {
	Name           string `form:"name" validate:"notblank,max=150"`
	Email          string `form:"email" validate:"notblank,max=150"`
	Contact        string `form:"contact" validate:"notblank,max=50"`
	University     string `form:"university" validate:"notblank,max=150"`
	AssignmentType string `form:"assignment_type" validate:"notblank,max=100"`
	Subject        string `form:"subject" validate:"notblank,max=150"`
	DueDate        string `form:"due_date" validate:"notblank,datetime=2006-01-02"`
	Details        string `form:"details" validate:"notblank"`
}

func (f *AssignmentForm) Category() Category { return CategoryAssignment }

func (f *AssignmentForm) record(file string, now time.Time) (Record, error) {
	due, err := time.Parse(DateLayout, f.DueDate)
	if err != nil {
		return nil, err
	}
	return &Assignment{
		Name:           f.Name,
		Email:          f.Email,
		Contact:        f.Contact,
		University:     f.University,
		AssignmentType: f.AssignmentType,
		Subject:        f.Subject,
		DueDate:        due,
		Details:        f.Details,
		AssignmentFile: file,
		Status:         StatusPendingPayment,
		CreatedAt:      now,
	}, nil
}

type QuizForm struct {
	Name       string `form:"name" validate:"notblank,max=150"`
	Email      string `form:"email" validate:"notblank,max=150"`
	Contact    string `form:"contact" validate:"notblank,max=50"`
	University string `form:"university" validate:"max=150"`
	Subject    string `form:"subject" validate:"notblank,max=150"`
	QuizType   string `form:"quiz_type" validate:"notblank,max=100"`
	TestDate   string `form:"test_date" validate:"notblank,datetime=2006-01-02"`
	Topics     string `form:"topics"`
}

func (f *QuizForm) Category() Category { return CategoryQuiz }

func (f *QuizForm) record(file string, now time.Time) (Record, error) {
	date, err := time.Parse(DateLayout, f.TestDate)
	if err != nil {
		return nil, err
	}
	return &QuizRequest{
		Name:       f.Name,
		Email:      f.Email,
		Contact:    f.Contact,
		University: f.University,
		Subject:    f.Subject,
		QuizType:   f.QuizType,
		TestDate:   date,
		Topics:     f.Topics,
		QuizFile:   file,
		Status:     StatusPendingPayment,
		CreatedAt:  now,
	}, nil
}

type ExamForm struct {
	Name       string `form:"name" validate:"notblank,max=150"`
	Email      string `form:"email" validate:"notblank,max=150"`
	Contact    string `form:"contact" validate:"notblank,max=50"`
	University string `form:"university" validate:"notblank,max=150"`
	Subject    string `form:"subject" validate:"notblank,max=150"`
	ExamType   string `form:"exam_type" validate:"notblank,max=100"`
	ExamDate   string `form:"exam_date" validate:"notblank,datetime=2006-01-02"`
	Topics     string `form:"topics"`
}

func (f *ExamForm) Category() Category { return CategoryExam }

func (f *ExamForm) record(file string, now time.Time) (Record, error) {
	date, err := time.Parse(DateLayout, f.ExamDate)
	if err != nil {
		return nil, err
	}
	return &ExamRequest{
		Name:       f.Name,
		Email:      f.Email,
		Contact:    f.Contact,
		University: f.University,
		Subject:    f.Subject,
		ExamType:   f.ExamType,
		ExamDate:   date,
		Topics:     f.Topics,
		ExamFile:   file,
		Status:     StatusPendingPayment,
		CreatedAt:  now,
	}, nil
}

// BindForm decodes values into the fields of form tagged `form:"..."`,
// trimming surrounding whitespace.
func BindForm(values url.Values, form Form) error {
	if err := formDecoder.Decode(form, values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
