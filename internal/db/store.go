// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"siteman/internal/model"
)

// Store defines the interface for all database operations. It exists so
// handlers and commands can be tested against fakes, and so every SQL
// engine is served by the same bun-backed implementation.
type Store interface {
	// User methods
	CreateUser(username, email, passwordHash string, superuser bool) (int, error)
	GetUserByID(id int) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetAllUsers() ([]model.User, error)
	SetPassword(userID int, passwordHash string) error

	// Session methods
	CreateSession(token string, userID int, createdAt, expiresAt time.Time) error
	GetSession(token string) (*model.Session, error)
	DeleteSession(token string) error
	DeleteExpiredSessions(now time.Time) (int, error)

	// Audit log methods
	LogAction(action, details string) error
	GetAllAuditLogEntries() ([]model.AuditLogEntry, error)

	// Ping verifies the connection is alive (readiness checks).
	Ping(ctx context.Context) error
	Close() error
}

// Default returns the package-level store installed by InitDB. It is nil
// until InitDB succeeds.
func Default() Store {
	return store
}

// CreateUser adds a new user through the package-level store.
func CreateUser(username, email, passwordHash string, superuser bool) (int, error) {
	return store.CreateUser(username, email, passwordHash, superuser)
}

// GetUserByUsername looks up a user by username.
func GetUserByUsername(username string) (*model.User, error) {
	return store.GetUserByUsername(username)
}

// GetAllUsers retrieves all users.
func GetAllUsers() ([]model.User, error) {
	return store.GetAllUsers()
}

// LogAction records an audit trail event.
func LogAction(action, details string) error {
	return store.LogAction(action, details)
}
