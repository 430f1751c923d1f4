package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps uploads in per-directory folders below root.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(dir, name string) (string, error) {
	if !ValidDir(dir) {
		return "", ErrUnknownDir
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.root, dir, name), nil
}

func (s *LocalStore) Save(ctx context.Context, dir, name string, content io.Reader, size int64) error {
	p, err := s.path(dir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return f.Close()
}

func (s *LocalStore) Open(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	p, err := s.path(dir, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Exists(ctx context.Context, dir, name string) (bool, error) {
	p, err := s.path(dir, name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *LocalStore) EnsureDirs(ctx context.Context, dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return nil
}
