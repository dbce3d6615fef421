// session.go - Cookie-based sessions backed by an in-process store.
//
// The store is not crash-durable: sessions live until explicit logout or
// process restart, and carry no expiry of their own.
package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
)

const defaultSessionCookie = "imd_session"

// sessionAuth maps opaque random ids to usernames. The id is the only thing
// the client holds; it proves nothing without the server-side entry.
type sessionAuth struct {
	cookieName string

	mu       sync.RWMutex
	sessions map[string]string // session id -> username
}

// NewSessionAuth returns the session transport. An empty cookieName uses
// the default cookie.
func NewSessionAuth(cookieName string) Authenticator {
	if cookieName == "" {
		cookieName = defaultSessionCookie
	}
	return &sessionAuth{
		cookieName: cookieName,
		sessions:   make(map[string]string),
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (a *sessionAuth) Issue(w http.ResponseWriter, username string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.sessions[id] = username
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Identify looks the cookie's session id up in the store. A missing cookie
// and an unknown or stale id are indistinguishable to the caller.
func (a *sessionAuth) Identify(r *http.Request) (string, error) {
	c, err := r.Cookie(a.cookieName)
	if err != nil || c.Value == "" {
		return "", errUnauthenticated
	}

	a.mu.RLock()
	username, ok := a.sessions[c.Value]
	a.mu.RUnlock()
	if !ok {
		return "", errUnauthenticated
	}
	return username, nil
}

// Clear purges the session entry and expires the cookie.
func (a *sessionAuth) Clear(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		a.mu.Lock()
		delete(a.sessions, c.Value)
		a.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
