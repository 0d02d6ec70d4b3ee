// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/security"
)

// Prompter replays scripted answers in order. Choose accepts either the
// option label or its 1-based number. When the script runs out every call
// returns prompt.ErrClosed.
type Prompter struct {
	Answers []string
	Asked   []string
	Out     bytes.Buffer

	// BeforeAnswer, if set, runs before each answer is handed out.
	BeforeAnswer func(question string)
}

// NewPrompter returns a Prompter that will give answers in order.
func NewPrompter(answers ...string) *Prompter {
	return &Prompter{Answers: answers}
}

func (p *Prompter) next(question string) (string, error) {
	p.Asked = append(p.Asked, question)
	if p.BeforeAnswer != nil {
		p.BeforeAnswer(question)
	}
	if len(p.Answers) == 0 {
		return "", prompt.ErrClosed
	}
	a := p.Answers[0]
	p.Answers = p.Answers[1:]
	return a, nil
}

func (p *Prompter) Line(question string) (string, error) {
	a, err := p.next(question)
	return strings.TrimSpace(a), err
}

func (p *Prompter) Secret(question string) (security.Secret, error) {
	a, err := p.next(question)
	if err != nil {
		return nil, err
	}
	return security.FromString(strings.TrimSpace(a)), nil
}

func (p *Prompter) Confirm(question string) (bool, error) {
	a, err := p.next(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(a) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (p *Prompter) Choose(question string, options []string) (int, error) {
	a, err := p.next(question)
	if err != nil {
		return 0, err
	}
	for i, o := range options {
		if o == a {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(a); err == nil && n >= 1 && n <= len(options) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("scripted answer %q is not one of %q", a, options)
}

func (p *Prompter) Printf(format string, args ...any) {
	fmt.Fprintf(&p.Out, format, args...)
}

// Remaining reports how many scripted answers were not consumed.
func (p *Prompter) Remaining() int { return len(p.Answers) }
