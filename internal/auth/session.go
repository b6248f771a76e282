package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"rentacar/pkg/sealer"
	"time"
)

const SessionCookieName = "session"

var (
	ErrNoSession      = errors.New("no session cookie")
	ErrInvalidSession = errors.New("session cookie cannot be opened")
)

type sessionPayload struct {
	Token string `json:"token"`
}

// SessionStore keeps the signed token in an encrypted httpOnly cookie.
type SessionStore struct {
	sealer *sealer.Sealer
	secure bool
}

func NewSessionStore(cookieSecret string, secure bool) (*SessionStore, error) {
	s, err := sealer.New(cookieSecret)
	if err != nil {
		return nil, fmt.Errorf("create session sealer: %w", err)
	}
	return &SessionStore{sealer: s, secure: secure}, nil
}

func (s *SessionStore) Save(w http.ResponseWriter, token string, maxAge time.Duration) error {
	data, err := json.Marshal(sessionPayload{Token: token})
	if err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sealed,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load returns the token stored in the request's session cookie.
func (s *SessionStore) Load(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}

	data, err := s.sealer.Open(cookie.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		return "", ErrInvalidSession
	}
	return payload.Token, nil
}

func (s *SessionStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
