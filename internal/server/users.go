// users.go - Database-backed credential store and password verification.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// User is one row of the users table. Rows are immutable after creation.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// hashPassword generates a bcrypt hash of the password.
// bcrypt embeds a fresh salt per call, so equal passwords never share hashes.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword compares a password with its stored hash. A malformed hash
// is a plain verification failure, never an error surfaced to the caller.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// createUser inserts a new user and returns it. Username matching is
// case-sensitive and exact; a taken username yields errDuplicateUsername.
func createUser(ctx context.Context, db *sql.DB, username, password string) (User, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("db error: %w", err)
	}
	if exists {
		return User{}, errDuplicateUsername
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		// The EXISTS pre-check races with concurrent registrations; the
		// unique constraint is authoritative.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, errDuplicateUsername
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

// findUserByUsername returns the user row or errUserNotFound.
func findUserByUsername(ctx context.Context, db *sql.DB, username string) (User, error) {
	var u User
	err := db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, errUserNotFound
		}
		return User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// authenticateUser checks credentials against the database. It returns the
// user and true only when the row exists and the password matches; both
// failure modes are indistinguishable to the caller.
func authenticateUser(ctx context.Context, db *sql.DB, username, password string) (User, bool) {
	u, err := findUserByUsername(ctx, db, username)
	if err != nil {
		return User{}, false
	}
	if !verifyPassword(password, u.PasswordHash) {
		return User{}, false
	}
	return u, true
}
