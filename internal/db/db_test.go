// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// newTestStore opens a private in-memory SQLite database with migrations
// applied. The cache=shared DSN keeps the schema visible across the pooled
// connection.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrationsApplyAndAreIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	// Re-running migrations against the same database must be a no-op.
	s2, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	_ = s2.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser("alice", "alice@example.com", "hash1", true)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive user id, got %d", id)
	}

	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Username != "alice" || u.Email != "alice@example.com" || !u.IsSuperuser {
		t.Fatalf("unexpected user %+v", u)
	}
	if !u.IsActive {
		t.Fatal("new users should be active")
	}

	byName, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName == nil || byName.ID != id {
		t.Fatalf("expected user %d, got %+v", id, byName)
	}

	missing, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("lookup of missing user failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing user, got %+v", missing)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("bob", "bob@example.com", "hash", false); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	_, err := s.CreateUser("bob", "other@example.com", "hash", false)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser("carol", "carol@example.com", "old", false)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := s.SetPassword(id, "new"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if u.PasswordHash != "new" {
		t.Fatalf("expected updated hash, got %q", u.PasswordHash)
	}

	if err := s.SetPassword(9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser("dave", "dave@example.com", "hash", false)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := time.Now().UTC()
	if err := s.CreateSession("tok-1", id, now, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sess, err := s.GetSession("tok-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.Expired(now) {
		t.Fatal("session should not be expired")
	}

	if err := s.DeleteSession("tok-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	gone, err := s.GetSession("tok-1")
	if err != nil {
		t.Fatalf("GetSession after delete failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected nil after delete, got %+v", gone)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser("erin", "erin@example.com", "hash", false)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	now := time.Now().UTC()
	if err := s.CreateSession("live", id, now, now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := s.CreateSession("stale", id, now.Add(-2*time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	n, err := s.DeleteExpiredSessions(now)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", n)
	}

	live, err := s.GetSession("live")
	if err != nil || live == nil {
		t.Fatalf("live session should survive, got %+v err=%v", live, err)
	}
	stale, err := s.GetSession("stale")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stale != nil {
		t.Fatal("stale session should be gone")
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)

	if err := s.LogAction("SERVER_START", "addr=127.0.0.1:8000"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}
	if err := s.LogAction("CREATE_SUPERUSER", "username=alice"); err != nil {
		t.Fatalf("LogAction failed: %v", err)
	}

	entries, err := s.GetAllAuditLogEntries()
	if err != nil {
		t.Fatalf("GetAllAuditLogEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Action != "CREATE_SUPERUSER" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[0].Timestamp.IsZero() {
		t.Fatalf("entry missing timestamp: %+v", entries[0])
	}
}

func TestInitDBInstallsPackageStore(t *testing.T) {
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	if err := InitDB("sqlite", dsn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() {
		if store != nil {
			_ = store.Close()
			store = nil
		}
	})

	if !IsInitialized() {
		t.Fatal("expected package store installed")
	}
	if _, err := CreateUser("pkg", "pkg@example.com", "hash", false); err != nil {
		t.Fatalf("package-level CreateUser failed: %v", err)
	}
	u, err := GetUserByUsername("pkg")
	if err != nil || u == nil {
		t.Fatalf("package-level lookup failed: %+v err=%v", u, err)
	}
}

func TestRunDBMaintenance_SQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	s, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	// Keep the shared in-memory database alive while maintenance runs on a
	// second connection.
	t.Cleanup(func() { _ = s.Close() })

	if err := RunDBMaintenance("sqlite", dsn); err != nil {
		t.Fatalf("RunDBMaintenance failed: %v", err)
	}
}

func TestRunDBMaintenance_UnknownEngine(t *testing.T) {
	if err := RunDBMaintenance("oracle", "dsn"); err == nil {
		t.Fatal("expected error for unsupported engine")
	}
}
