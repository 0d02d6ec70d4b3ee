// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package prompt is the operator-facing side of the setup workflow: line and
// secret input, yes/no questions and numbered menus.
package prompt

import (
	"errors"

	"github.com/toeirei/vaultsetup/internal/security"
)

var (
	// ErrClosed is returned when input ends before an answer was given.
	ErrClosed = errors.New("input closed")
	// ErrCanceled is returned when the operator aborts an interactive prompt.
	ErrCanceled = errors.New("input canceled")
	// ErrMismatch is returned when a repeated secret differs.
	ErrMismatch = errors.New("entries do not match")
	// ErrEmpty is returned by SecretTwice for blank input.
	ErrEmpty = errors.New("empty input")
)

// Prompter asks the operator for input.
type Prompter interface {
	// Line reads one line of visible input, trimmed.
	Line(question string) (string, error)
	// Secret reads one line without echo.
	Secret(question string) (security.Secret, error)
	// Confirm asks a yes/no question; anything but yes is no.
	Confirm(question string) (bool, error)
	// Choose shows a numbered menu and returns the index of the choice.
	Choose(question string, options []string) (int, error)
	// Printf writes a message for the operator.
	Printf(format string, args ...any)
}

// SecretTwice reads a secret and its confirmation. Blank input and a
// mismatch are reported as errors; the caller decides whether to ask again.
func SecretTwice(p Prompter, question, again string) (security.Secret, error) {
	first, err := p.Secret(question)
	if err != nil {
		return nil, err
	}
	if first.Empty() {
		return nil, ErrEmpty
	}
	second, err := p.Secret(again)
	if err != nil {
		first.Zero()
		return nil, err
	}
	defer second.Zero()
	if !first.Equal(second) {
		first.Zero()
		return nil, ErrMismatch
	}
	return first, nil
}
