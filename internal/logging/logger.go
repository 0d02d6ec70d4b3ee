// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging provides the process-wide diagnostic logger. Output goes to
// standard error so it never mixes with interactive prompts on stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// DebugEnv is the environment toggle that enables diagnostic tracing.
const DebugEnv = "VAULTSETUP_DEBUG"

// L is the package-level logger. Callers should use the helper functions
// below rather than reaching for L directly.
var L = newLogger(os.Stderr)

func newLogger(w io.Writer) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{Prefix: "vaultsetup"})
	l.SetLevel(clog.InfoLevel)
	return l
}

// SetDebug enables or disables debug logging for the application.
func SetDebug(enabled bool) {
	if enabled {
		L.SetLevel(clog.DebugLevel)
		return
	}
	L.SetLevel(clog.InfoLevel)
}

// DebugFromEnv reports whether DebugEnv is set to a truthy value.
func DebugFromEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(DebugEnv))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// SetOutput redirects the logger, returning a func restoring the previous one.
func SetOutput(w io.Writer) (restore func()) {
	prev := L
	L = newLogger(w)
	L.SetLevel(prev.GetLevel())
	return func() { L = prev }
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

// With adds key/value context to every following log line and returns a
// func restoring the previous logger.
func With(keyvals ...any) (restore func()) {
	prev := L
	L = L.With(keyvals...)
	return func() { L = prev }
}
