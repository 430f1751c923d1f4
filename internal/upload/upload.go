package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Upload directories under the storage root.
const (
	DirAssignments = "assignments"
	DirQuizzes     = "quizzes"
	DirExams       = "exams"
	DirPayments    = "payments"
)

// Dirs lists every directory the portal writes to.
var Dirs = []string{DirAssignments, DirQuizzes, DirExams, DirPayments}

var (
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrInvalidFilename     = errors.New("invalid filename")
	ErrFileNotFound        = errors.New("file not found")
	ErrUnknownDir          = errors.New("unknown upload directory")
)

// File is an uploaded file detached from the transport that carried it.
type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Store persists uploaded files under a directory/name pair.
type Store interface {
	Save(ctx context.Context, dir, name string, content io.Reader, size int64) error
	Open(ctx context.Context, dir, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, dir, name string) (bool, error)
	EnsureDirs(ctx context.Context, dirs ...string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces name to a flat ASCII filename that is safe to join
// onto a directory. Path separators become spaces, whitespace runs become a
// single underscore and anything outside [A-Za-z0-9_.-] is removed. The result
// may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Policy is the case-insensitive extension allow-list.
type Policy struct {
	allowed map[string]struct{}
}

func NewPolicy(extensions []string) *Policy {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Policy{allowed: allowed}
}

// Allowed reports whether name has an extension on the allow-list.
// A name without a dot is never allowed.
func (p *Policy) Allowed(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	_, ok := p.allowed[strings.ToLower(name[i+1:])]
	return ok
}

// Uploader applies the allow-list and filename sanitation before handing the
// file to a Store.
type Uploader struct {
	store  Store
	policy *Policy
	logger *slog.Logger
}

func NewUploader(store Store, policy *Policy, logger *slog.Logger) *Uploader {
	return &Uploader{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// Accept stores f under dir and returns the stored name. Same-named uploads
// overwrite each other.
func (u *Uploader) Accept(ctx context.Context, dir string, f *File) (string, error) {
	if f == nil || f.Name == "" {
		return "", ErrInvalidFilename
	}
	if !u.policy.Allowed(f.Name) {
		u.logger.WarnContext(ctx, "rejected upload", "dir", dir, "filename", f.Name)
		return "", ErrExtensionNotAllowed
	}

	name := SanitizeFilename(f.Name)
	if name == "" || !u.policy.Allowed(name) {
		return "", ErrInvalidFilename
	}

	if err := u.store.Save(ctx, dir, name, f.Content, f.Size); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	u.logger.InfoContext(ctx, "upload stored", "dir", dir, "filename", name)
	return name, nil
}

// ValidDir reports whether dir is one of the portal's upload directories.
func ValidDir(dir string) bool {
	for _, d := range Dirs {
		if d == dir {
			return true
		}
	}
	return false
}

func objectKey(dir, name string) string {
	return path.Join(dir, name)
}
