// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

// package logging provides the shared application logger. It wraps
// charmbracelet/log behind small package-level helpers so callers don't
// carry a logger handle through every function.
package logging

import (
	"fmt"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers should prefer the helper
// functions below; L is exported for the rare case that needs structured
// fields directly.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
})

// Init configures the logger level from a settings string. Unknown levels
// fall back to info. The match is case-insensitive so values coming
// straight from LOG_LEVEL env conventions ("INFO", "DEBUG") work as-is.
func Init(level string) {
	L.SetLevel(parseLevel(level))
}

func parseLevel(level string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return clog.DebugLevel
	case "info", "":
		return clog.InfoLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

// Debug logs a pre-formatted debug-level message verbatim.
func Debug(msg string) {
	L.Debug(msg)
}

// Info logs a pre-formatted info-level message verbatim. Use this for
// strings that were already interpolated (translations, file paths) so a
// literal '%' in them is not re-interpreted as a printf verb.
func Info(msg string) {
	L.Info(msg)
}

// Warn logs a pre-formatted warning-level message verbatim.
func Warn(msg string) {
	L.Warn(msg)
}

// Error logs a pre-formatted error-level message verbatim.
func Error(msg string) {
	L.Error(msg)
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}
