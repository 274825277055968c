// Package sessions keeps the signed-in runner in a signed cookie.
package sessions

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	cookieName  = "raceday-session"
	runnerIDKey = "runner_id"
	credKey     = "credential"
	maxAge      = 3600 * 24 * 14
)

type Store struct {
	store *sessions.CookieStore
}

// New builds a cookie store signed with key. Cookies are Secure unless
// running in development.
func New(key string, secure bool) (*Store, error) {
	if key == "" {
		return nil, errors.New("session key is not set")
	}
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{store: store}, nil
}

// Login stores the runner and their credential fingerprint in the session
// cookie.
func (s *Store) Login(w http.ResponseWriter, r *http.Request, runnerID uint, fingerprint string) error {
	session, _ := s.store.Get(r, cookieName)
	session.Values[runnerIDKey] = runnerID
	session.Values[credKey] = fingerprint
	return s.store.Save(r, w, session)
}

// Logout expires the session cookie
func (s *Store) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, cookieName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return s.store.Save(r, w, session)
}

// Current reads the signed-in runner. ok is false for anonymous requests
// and for cookies that fail verification.
func (s *Store) Current(r *http.Request) (runnerID uint, fingerprint string, ok bool) {
	session, err := s.store.Get(r, cookieName)
	if err != nil {
		return 0, "", false
	}
	id, ok := session.Values[runnerIDKey].(uint)
	if !ok || id == 0 {
		return 0, "", false
	}
	fingerprint, _ = session.Values[credKey].(string)
	if fingerprint == "" {
		return 0, "", false
	}
	return id, fingerprint, true
}
