// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cleanup tracks temporary files that may hold plaintext or vault
// blobs and guarantees their removal on every exit path, including signals.
package cleanup

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/toeirei/vaultsetup/internal/logging"
)

var (
	// Global registry of temporary paths awaiting removal.
	tracked    = make(map[string]struct{})
	trackedMux sync.Mutex

	signalHandlerInstalled bool
	signalHandlerMutex     sync.Mutex

	hooks    = make(map[int]func())
	hooksMux sync.Mutex
	nextHook int

	// exit is swapped in tests.
	exit = os.Exit
)

// Track registers path for removal by Release or RemoveAll.
func Track(path string) {
	trackedMux.Lock()
	defer trackedMux.Unlock()
	tracked[path] = struct{}{}
}

// Release removes path from disk and from the registry. A missing file is
// not an error.
func Release(path string) error {
	trackedMux.Lock()
	defer trackedMux.Unlock()
	delete(tracked, path)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove temp file %s: %w", path, err)
	}
	return nil
}

// Pending returns the currently tracked paths.
func Pending() []string {
	trackedMux.Lock()
	defer trackedMux.Unlock()
	out := make([]string, 0, len(tracked))
	for p := range tracked {
		out = append(out, p)
	}
	return out
}

// CreateTemp creates a 0600 temp file, registers it before returning and
// hands back a release func meant to be deferred by the caller.
func CreateTemp(dir, pattern string) (*os.File, func(), error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, func() {}, fmt.Errorf("create temp file: %w", err)
	}
	Track(f.Name())
	release := func() {
		_ = f.Close()
		if err := Release(f.Name()); err != nil {
			logging.Warnf("%v", err)
		}
	}
	if err := f.Chmod(0o600); err != nil {
		release()
		return nil, func() {}, fmt.Errorf("restrict temp file: %w", err)
	}
	return f, release, nil
}

// RemoveAll deletes every tracked path. It returns the last error seen but
// keeps going so one failure does not strand the others.
func RemoveAll() error {
	trackedMux.Lock()
	defer trackedMux.Unlock()

	var lastError error
	for p := range tracked {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			lastError = fmt.Errorf("remove temp file %s: %w", p, err)
			continue
		}
		logging.Debugf("removed temp file %s", p)
	}
	tracked = make(map[string]struct{})
	return lastError
}

// OnInterrupt registers fn to run when a signal ends the process, before
// tracked files are removed. The returned func unregisters it.
func OnInterrupt(fn func()) (remove func()) {
	hooksMux.Lock()
	defer hooksMux.Unlock()
	nextHook++
	id := nextHook
	hooks[id] = fn
	return func() {
		hooksMux.Lock()
		defer hooksMux.Unlock()
		delete(hooks, id)
	}
}

// InstallSignalHandler removes tracked files when the process is interrupted.
// It's safe to call this multiple times - subsequent calls are ignored.
func InstallSignalHandler() {
	signalHandlerMutex.Lock()
	defer signalHandlerMutex.Unlock()

	if signalHandlerInstalled {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		handleSignal(<-sigChan)
	}()

	signalHandlerInstalled = true
}

// handleSignal runs the interrupt hooks, removes tracked files and exits with
// the shell convention 128+signal (130 for SIGINT, 143 for SIGTERM).
func handleSignal(sig os.Signal) {
	hooksMux.Lock()
	fns := make([]func(), 0, len(hooks))
	for _, fn := range hooks {
		fns = append(fns, fn)
	}
	hooksMux.Unlock()
	for _, fn := range fns {
		fn()
	}

	if n := len(Pending()); n > 0 {
		logging.Debugf("%v received, removing %d temp file(s)", sig, n)
	}
	if err := RemoveAll(); err != nil {
		logging.Errorf("cleanup after %v: %v", sig, err)
	}
	code := 1
	if s, ok := sig.(syscall.Signal); ok {
		code = 128 + int(s)
	}
	exit(code)
}
