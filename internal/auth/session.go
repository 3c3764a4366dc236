// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package auth

import (
	"time"

	"github.com/google/uuid"

	"siteman/internal/db"
	"siteman/internal/model"
)

// SessionTTL is how long an issued session stays valid (the framework's
// two-week session age).
const SessionTTL = 14 * 24 * time.Hour

// IssueSession creates a session for the given user and returns its token.
func IssueSession(store db.Store, userID int) (string, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	if err := store.CreateSession(token, userID, now, now.Add(SessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession resolves a session token to its user. Expired sessions
// are deleted lazily and treated as absent. The returned user is nil when
// the token is unknown, expired, or refers to a deactivated account.
func ValidateSession(store db.Store, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := store.GetSession(token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(time.Now().UTC()) {
		_ = store.DeleteSession(token)
		return nil, nil
	}
	user, err := store.GetUserByID(sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// RevokeSession deletes a session token. Unknown tokens are a no-op.
func RevokeSession(store db.Store, token string) error {
	return store.DeleteSession(token)
}
