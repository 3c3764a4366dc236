// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want clog.Level
	}{
		{"debug", clog.DebugLevel},
		{"DEBUG", clog.DebugLevel},
		{"info", clog.InfoLevel},
		{"", clog.InfoLevel},
		{"warn", clog.WarnLevel},
		{"warning", clog.WarnLevel},
		{"error", clog.ErrorLevel},
		{" Error ", clog.ErrorLevel},
		{"verbose", clog.InfoLevel}, // unknown falls back to info
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitSetsLevel(t *testing.T) {
	prev := L.GetLevel()
	defer L.SetLevel(prev)

	Init("error")
	if got := L.GetLevel(); got != clog.ErrorLevel {
		t.Fatalf("expected error level, got %v", got)
	}
	Init("nonsense")
	if got := L.GetLevel(); got != clog.InfoLevel {
		t.Fatalf("expected fallback to info, got %v", got)
	}
}

// capture redirects the package logger into a buffer for the duration of
// the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	L.SetOutput(&buf)
	prevLevel := L.GetLevel()
	L.SetLevel(clog.DebugLevel)
	t.Cleanup(func() {
		L.SetOutput(os.Stderr)
		L.SetLevel(prevLevel)
	})
	return &buf
}

func TestInfo_KeepsPercentVerbatim(t *testing.T) {
	buf := capture(t)

	// Messages that were already interpolated may carry literal '%'
	// (URL-encoded paths, for one) and must not go through printf again.
	Info("Collected 3 static files into /tmp/www%20cache.")
	if got := buf.String(); !strings.Contains(got, "/tmp/www%20cache.") {
		t.Fatalf("message mangled: %q", got)
	}
	if strings.Contains(buf.String(), "MISSING") {
		t.Fatalf("printf reinterpreted the message: %q", buf.String())
	}

	buf.Reset()
	Warn("100% done")
	if !strings.Contains(buf.String(), "100% done") {
		t.Fatalf("message mangled: %q", buf.String())
	}

	buf.Reset()
	Error("rate is 5%s")
	if !strings.Contains(buf.String(), "rate is 5%s") {
		t.Fatalf("message mangled: %q", buf.String())
	}

	buf.Reset()
	Debug("debug %v untouched")
	if !strings.Contains(buf.String(), "debug %v untouched") {
		t.Fatalf("message mangled: %q", buf.String())
	}
}
