package auth

import (
	"errors"
	"fmt"
	"net/http"
	apperrors "rentacar/pkg/errors"
	"time"
)

// Manager ties the token issuer, the session cookie and the CSRF cookie
// together for login, signup and logout.
type Manager struct {
	tokens   *TokenIssuer
	sessions *SessionStore
	secure   bool
}

func NewManager(jwtSecret, cookieSecret string, secure bool) (*Manager, error) {
	sessions, err := NewSessionStore(cookieSecret, secure)
	if err != nil {
		return nil, err
	}
	return &Manager{
		tokens:   NewTokenIssuer(jwtSecret),
		sessions: sessions,
		secure:   secure,
	}, nil
}

// Start issues a token for userID and sets the session and CSRF cookies,
// both living for ttl.
func (m *Manager) Start(w http.ResponseWriter, userID string, ttl time.Duration) error {
	token, err := m.tokens.Issue(userID, ttl)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	csrfToken, err := NewCSRFToken()
	if err != nil {
		return fmt.Errorf("generate csrf token: %w", err)
	}
	if err := m.sessions.Save(w, token, ttl); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	SetCSRFCookie(w, csrfToken, ttl, m.secure)
	return nil
}

func (m *Manager) End(w http.ResponseWriter) {
	m.sessions.Clear(w)
	ClearCSRFCookie(w, m.secure)
}

// Authenticate resolves the user id behind the request's session cookie.
// Failures are 401 AppErrors.
func (m *Manager) Authenticate(r *http.Request) (string, error) {
	token, err := m.sessions.Load(r)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", apperrors.Unauthorized("No active session")
		}
		return "", apperrors.Unauthorized("Invalid or expired session")
	}

	userID, err := m.tokens.Verify(token)
	if err != nil {
		return "", apperrors.Unauthorized("Invalid or expired session")
	}
	return userID, nil
}
