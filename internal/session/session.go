package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"academic-assist/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Flash categories understood by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

var ErrInvalidSession = errors.New("invalid session cookie")

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Submission points at the request created most recently in this browser session.
type Submission struct {
	Category string `json:"category"`
	ID       int64  `json:"id"`
}

// Session is the per-browser state. Handlers load it from the request, mutate
// it and save it back before writing the response.
type Session struct {
	AdminID     int64       `json:"admin_id,omitempty"`
	Username    string      `json:"username,omitempty"`
	Submission  *Submission `json:"submission,omitempty"`
	RequestTime time.Time   `json:"request_time,omitzero"`
	PaymentTime time.Time   `json:"payment_time,omitzero"`
	RequestID   string      `json:"request_id,omitempty"`
	Flashes     []Flash     `json:"flashes,omitempty"`
}

func (s *Session) IsAdmin() bool {
	return s.AdminID != 0
}

func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns pending flashes and forgets them.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// Clear drops every key, flashes included.
func (s *Session) Clear() {
	*s = Session{}
}

type claims struct {
	Session Session `json:"sess"`
	jwt.RegisteredClaims
}

// Manager signs the session into an HS256 JWT stored in an HttpOnly cookie.
type Manager struct {
	secret     []byte
	cookieName string
	maxAge     time.Duration
	secure     bool
}

func NewManager(cfg config.SessionConfig, logger *slog.Logger) (*Manager, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		logger.Warn("SECRET_KEY not set, sessions will not survive a restart")
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "session"
	}

	maxAge := time.Duration(cfg.MaxAge) * time.Second
	if maxAge <= 0 {
		maxAge = 31 * 24 * time.Hour
	}

	return &Manager{
		secret:     secret,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     cfg.Secure,
	}, nil
}

// Load returns the session carried by r. A missing, expired or tampered
// cookie yields an empty session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return &Session{}
	}

	s, err := m.decode(cookie.Value)
	if err != nil {
		return &Session{}
	}
	return s
}

func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	token, err := m.encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
	})
	return nil
}

func (m *Manager) encode(s *Session) (string, error) {
	now := time.Now()
	c := claims{
		Session: *s,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

func (m *Manager) decode(value string) (*Session, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(value, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSession
	}
	return &c.Session, nil
}
