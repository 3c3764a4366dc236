// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"siteman/internal/config"
)

// clearSiteEnv unsets every configuration variable so command tests run
// against a known environment.
func clearSiteEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DEBUG", "SECRET_KEY", "ALLOWED_HOSTS", "LOG_LEVEL", "GIT_SHA",
		"SITE_ADDR", "WORKER_COUNT", "STATIC_URL", "STATIC_ROOT", "STATIC_DIRS",
		"DATABASE_ENGINE", "DATABASE_NAME", "DATABASE_USER", "DATABASE_PASSWORD",
		"DATABASE_HOST", "DATABASE_PORT", "NO_MIGRATION", "NO_COLLECT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSettingsCommand_RedactsSecrets(t *testing.T) {
	clearSiteEnv(t)
	t.Setenv("SECRET_KEY", "prod-secret-value")
	t.Setenv("ALLOWED_HOSTS", "example.com")
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_NAME", "site")
	t.Setenv("DATABASE_USER", "site")
	t.Setenv("DATABASE_PASSWORD", "db-password")
	t.Setenv("DATABASE_PORT", "5432")

	out, err := execute(t, "settings")
	if err != nil {
		t.Fatalf("settings command failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "prod-secret-value") || strings.Contains(out, "db-password") {
		t.Fatalf("output leaks secrets:\n%s", out)
	}
	if !strings.Contains(out, "********") {
		t.Fatalf("expected redaction markers:\n%s", out)
	}
	if !strings.Contains(out, "engine: postgres") {
		t.Fatalf("expected database engine in dump:\n%s", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Fatalf("expected allowed hosts in dump:\n%s", out)
	}
}

func TestRootCommand_FailsWithoutSecretKey(t *testing.T) {
	clearSiteEnv(t)

	_, err := execute(t, "settings")
	if err == nil {
		t.Fatal("expected settings load failure in production mode")
	}
	if !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("error should name the missing variable: %v", err)
	}
}

func TestCreateSuperuser_RequiresUsernameFlag(t *testing.T) {
	clearSiteEnv(t)
	t.Setenv("DEBUG", "1")

	_, err := execute(t, "createsuperuser")
	if err == nil {
		t.Fatal("expected error for missing --username")
	}
	if !strings.Contains(err.Error(), "username") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDumpSettings(t *testing.T) {
	s := &config.Settings{
		Debug:     true,
		SecretKey: "hunter2-secret",
		Database: config.Database{
			Engine:   config.EnginePostgres,
			Password: "pw",
		},
	}
	d := dumpSettings(s)
	if d.SecretKey != redacted {
		t.Fatalf("secret key not redacted: %q", d.SecretKey)
	}
	if d.Database.Password != redacted {
		t.Fatalf("database password not redacted: %q", d.Database.Password)
	}

	s.Database.Password = ""
	if d := dumpSettings(s); d.Database.Password != "" {
		t.Fatalf("empty password should stay empty, got %q", d.Database.Password)
	}
}

func TestVersionString(t *testing.T) {
	clearSiteEnv(t)
	if got := versionString(); got != version {
		t.Fatalf("expected %q, got %q", version, got)
	}

	t.Setenv("GIT_SHA", "abc1234")
	if got := versionString(); got != version+" (abc1234)" {
		t.Fatalf("unexpected version string %q", got)
	}
}
