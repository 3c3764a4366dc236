// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"siteman/internal/model"
)

// UserModel maps the `users` table for bun queries.
type UserModel struct {
	bun.BaseModel `bun:"table:users"`
	ID            int       `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username"`
	Email         string    `bun:"email"`
	PasswordHash  string    `bun:"password_hash"`
	IsSuperuser   bool      `bun:"is_superuser"`
	IsActive      bool      `bun:"is_active"`
	CreatedAt     time.Time `bun:"created_at"`
}

// SessionModel maps the `sessions` table for bun queries.
type SessionModel struct {
	bun.BaseModel `bun:"table:sessions"`
	Token         string    `bun:"token,pk"`
	UserID        int       `bun:"user_id"`
	CreatedAt     time.Time `bun:"created_at"`
	ExpiresAt     time.Time `bun:"expires_at"`
}

// AuditLogModel maps the `audit_log` table for bun queries.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int       `bun:"id,pk,autoincrement"`
	Action        string    `bun:"action"`
	Details       string    `bun:"details"`
	Timestamp     time.Time `bun:"timestamp"`
}

// bunStore is the Store implementation shared by every SQL engine; the
// dialect differences live entirely inside the *bun.DB it wraps.
type bunStore struct {
	bun *bun.DB
}

func userModelToModel(m UserModel) model.User {
	return model.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsSuperuser:  m.IsSuperuser,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
	}
}

func (s *bunStore) CreateUser(username, email, passwordHash string, superuser bool) (int, error) {
	ctx := context.Background()
	u := &UserModel{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsSuperuser:  superuser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	// bun fills the autoincrement pk on the model after insert, via
	// RETURNING where the dialect supports it and LastInsertId elsewhere.
	if _, err := s.bun.NewInsert().Model(u).Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return u.ID, nil
}

func (s *bunStore) GetUserByID(id int) (*model.User, error) {
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u := userModelToModel(m)
	return &u, nil
}

func (s *bunStore) GetUserByUsername(username string) (*model.User, error) {
	var m UserModel
	err := s.bun.NewSelect().Model(&m).Where("username = ?", username).Limit(1).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u := userModelToModel(m)
	return &u, nil
}

func (s *bunStore) GetAllUsers() ([]model.User, error) {
	var ms []UserModel
	if err := s.bun.NewSelect().Model(&ms).Order("id ASC").Scan(context.Background()); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(ms))
	for _, m := range ms {
		users = append(users, userModelToModel(m))
	}
	return users, nil
}

func (s *bunStore) SetPassword(userID int, passwordHash string) error {
	res, err := s.bun.NewUpdate().Model((*UserModel)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("id = ?", userID).
		Exec(context.Background())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *bunStore) CreateSession(token string, userID int, createdAt, expiresAt time.Time) error {
	_, err := s.bun.NewInsert().Model(&SessionModel{
		Token:     token,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}).Exec(context.Background())
	return MapDBError(err)
}

func (s *bunStore) GetSession(token string) (*model.Session, error) {
	var m SessionModel
	err := s.bun.NewSelect().Model(&m).Where("token = ?", token).Limit(1).Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &model.Session{
		Token:     m.Token,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}, nil
}

func (s *bunStore) DeleteSession(token string) error {
	_, err := s.bun.NewDelete().Model((*SessionModel)(nil)).
		Where("token = ?", token).
		Exec(context.Background())
	return err
}

func (s *bunStore) DeleteExpiredSessions(now time.Time) (int, error) {
	res, err := s.bun.NewDelete().Model((*SessionModel)(nil)).
		Where("expires_at <= ?", now).
		Exec(context.Background())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *bunStore) LogAction(action, details string) error {
	_, err := s.bun.NewInsert().Model(&AuditLogModel{
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}).Exec(context.Background())
	return err
}

func (s *bunStore) GetAllAuditLogEntries() ([]model.AuditLogEntry, error) {
	var ms []AuditLogModel
	if err := s.bun.NewSelect().Model(&ms).Order("id DESC").Scan(context.Background()); err != nil {
		return nil, err
	}
	entries := make([]model.AuditLogEntry, 0, len(ms))
	for _, m := range ms {
		entries = append(entries, model.AuditLogEntry{
			ID:        m.ID,
			Action:    m.Action,
			Details:   m.Details,
			Timestamp: m.Timestamp,
		})
	}
	return entries, nil
}

func (s *bunStore) Ping(ctx context.Context) error {
	return s.bun.PingContext(ctx)
}

func (s *bunStore) Close() error {
	return s.bun.Close()
}
