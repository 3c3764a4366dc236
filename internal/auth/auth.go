// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package auth implements password hashing and account management on top
// of the store.
package auth // import "siteman/internal/auth"

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"siteman/internal/db"
	"siteman/internal/model"
)

// MinPasswordLength mirrors the framework's minimum length validator.
const MinPasswordLength = 8

// ErrInvalidCredentials is returned when a username/password pair does not
// match an active user.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateNewUser applies the account rules shared by superuser creation
// and any future signup path.
func ValidateNewUser(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username must not be empty")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// CreateSuperuser creates an administrative user. Duplicate usernames are
// reported as db.ErrDuplicate.
func CreateSuperuser(store db.Store, username, email, password string) (int, error) {
	if err := ValidateNewUser(username, password); err != nil {
		return 0, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := store.CreateUser(username, email, hash, true)
	if err != nil {
		return 0, err
	}
	_ = store.LogAction("CREATE_SUPERUSER", fmt.Sprintf("username: %s", username))
	return id, nil
}

// Authenticate checks a username/password pair against the store and
// returns the matching active user.
func Authenticate(store db.Store, username, password string) (*model.User, error) {
	user, err := store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
