package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Kept constant-time: compared against when the email is unknown so
// login timing does not reveal which accounts exist.
var dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")

// User is a vendor account that can claim listings and read its
// dashboard.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CreateUser registers a vendor account.
func (s *Store) CreateUser(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New().String()
	if _, err := s.db.ExecContext(context.Background(), `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
	`, id, email, hash); err != nil {
		if isUniqueViolation(err) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

// Authenticate validates credentials and returns a session token.
func (s *Store) Authenticate(email, password string) (string, error) {
	ctx := context.Background()
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		userID string
		hash   []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id)
		VALUES ($1, $2)
	`, token, userID); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// UserByToken resolves a session token to its account.
func (s *Store) UserByToken(token string) (User, error) {
	var u User
	err := s.db.QueryRowContext(context.Background(), `
		SELECT u.id, u.email
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
	`, token).Scan(&u.ID, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("lookup session: %w", err)
	}
	return u, nil
}
