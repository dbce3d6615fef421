// auth.go - Request authentication: transport-independent identity
// resolution plus the login/logout/verify handlers.
//
// Two interchangeable transports implement Authenticator: a stateless
// bearer JWT (token.go) and a server-held cookie session (session.go).
// Exactly one is active per process, chosen by configuration.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// Authenticator resolves a request to an authenticated username.
//
// Identify must collapse every failure mode - missing credential, malformed
// transport, bad signature, expiry - into errUnauthenticated so callers
// cannot probe which case they hit.
type Authenticator interface {
	// Issue emits a credential for username. The returned string is included
	// in the login response body; transports that ride on cookies also write
	// a Set-Cookie header.
	Issue(w http.ResponseWriter, username string) (string, error)
	// Identify returns the username carried by the request credential.
	Identify(r *http.Request) (string, error)
	// Clear revokes the request's credential where the transport supports
	// revocation, and clears any cookie.
	Clear(w http.ResponseWriter, r *http.Request)
}

const identityKey ctxKey = "identity"

// identityFromContext returns the authenticated username, set by requireAuth.
func identityFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(identityKey).(string); ok {
		return s
	}
	return ""
}

// requireAuth resolves the request identity once and stores it in the
// context. Every failure is the same 401 body.
func (cfg Config) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := cfg.Auth.Identify(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// loginHandler verifies credentials and issues a bearer token or session
// cookie depending on the configured transport.
func (cfg Config) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		body.Username = strings.TrimSpace(body.Username)

		if body.Username == "" || body.Password == "" {
			writeMessage(w, http.StatusBadRequest, "username and password are required")
			return
		}

		u, ok := authenticateUser(r.Context(), cfg.DB, body.Username, body.Password)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := cfg.Auth.Issue(w, u.Username)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=issue_credential_failed err=%v", rid, err)
			writeMessage(w, http.StatusInternalServerError, "server error")
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			ID:       u.ID,
			Username: u.Username,
			Token:    token,
		})
	}
}

// logoutHandler revokes the current credential. It succeeds regardless of
// whether a valid credential was presented.
func (cfg Config) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cfg.Auth.Clear(w, r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// verifyHandler reports the identity behind the presented credential.
func (cfg Config) verifyHandler() http.Handler {
	return cfg.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"user":          identityFromContext(r.Context()),
		})
	}))
}
