package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"academic-assist/internal/config"
	"academic-assist/internal/metrics"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

type Service struct {
	repo    *Repository
	cfg     config.AdminConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(repo *Repository, cfg config.AdminConfig, m *metrics.Metrics, logger *slog.Logger) *Service {
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.Password == "" {
		cfg.Password = DefaultPassword
	}
	return &Service{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Login returns the admin whose stored password matches. Stored bcrypt
// hashes are verified with bcrypt, anything else is compared as-is.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Admin, error) {
	admin, err := s.repo.GetByUsername(ctx, creds.Username)
	if err != nil {
		s.metrics.RecordLogin(ctx, false)
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !passwordMatches(admin.Password, creds.Password) {
		s.metrics.RecordLogin(ctx, false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(ctx, true)
	return admin, nil
}

// SeedDefaultAdmin creates the configured admin account when no admin
// exists yet.
func (s *Service) SeedDefaultAdmin(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := s.cfg.Password
	if s.cfg.HashPasswords {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		password = string(hashed)
	} else {
		s.logger.WarnContext(ctx, "seeding admin with a plaintext password", "username", s.cfg.Username)
	}

	if err := s.repo.Create(ctx, &Admin{Username: s.cfg.Username, Password: password}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "default admin created", "username", s.cfg.Username)
	return nil
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
