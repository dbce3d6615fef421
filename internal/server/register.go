package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
)

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is the JSON response after successful registration.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validateUsername checks username requirements.
func validateUsername(username string) (bool, string) {
	if len(username) < 3 {
		return false, "username must be at least 3 characters long"
	}
	if len(username) > 50 {
		return false, "username must be less than 50 characters"
	}
	if !usernameRegex.MatchString(username) {
		return false, "username can only contain letters, numbers, and underscores"
	}
	return true, ""
}

// validatePassword checks password strength requirements.
func validatePassword(password string) (bool, string) {
	if len(password) < 4 {
		return false, "password must be at least 4 characters long"
	}
	if len(password) > 128 {
		return false, "password must be less than 128 characters"
	}
	return true, ""
}

// registerHandler handles POST /register requests for user registration.
func (cfg Config) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)

		if req.Username == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "username and password are required")
			return
		}
		if valid, msg := validateUsername(req.Username); !valid {
			writeMessage(w, http.StatusBadRequest, msg)
			return
		}
		if valid, msg := validatePassword(req.Password); !valid {
			writeMessage(w, http.StatusBadRequest, msg)
			return
		}

		u, err := createUser(r.Context(), cfg.DB, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, errDuplicateUsername) {
				writeMessage(w, http.StatusBadRequest, "username already exists")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=register_failed err=%v", rid, err)
			writeMessage(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		log.Printf("msg=user_registered username=%s", u.Username)

		writeJSON(w, http.StatusCreated, RegisterResponse{
			ID:       u.ID,
			Username: u.Username,
		})
	}
}
