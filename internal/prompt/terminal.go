// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/toeirei/vaultsetup/internal/cleanup"
	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/security"
	"golang.org/x/term"
)

// Terminal prompts on a reader/writer pair. When the input is a terminal,
// secrets and menus run as small bubbletea programs; otherwise plain lines
// are read, which keeps pipes and tests working.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	tty   *os.File
	fd    int
	isTTY bool
}

// NewTerminal returns a Terminal reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.tty = f
		t.fd = int(f.Fd())
		t.isTTY = true
	}
	return t
}

// runProgram drives m on the terminal. The terminal state is saved first so
// a signal arriving mid-prompt does not leave echo switched off.
func (t *Terminal) runProgram(m tea.Model) (tea.Model, error) {
	if state, err := term.GetState(t.fd); err == nil {
		defer cleanup.OnInterrupt(func() { _ = term.Restore(t.fd, state) })()
	}
	final, err := tea.NewProgram(m, tea.WithInput(t.tty), tea.WithOutput(t.out)).Run()
	if err != nil {
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}

func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) ask(question string) {
	fmt.Fprint(t.out, questionStyle.Render(question)+" ")
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *Terminal) Line(question string) (string, error) {
	t.ask(question)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Secret(question string) (security.Secret, error) {
	if t.isTTY {
		final, err := t.runProgram(newSecretModel(question))
		if err != nil {
			return nil, err
		}
		m := final.(secretModel)
		if m.canceled {
			return nil, ErrCanceled
		}
		return security.FromString(m.value()), nil
	}
	t.ask(question)
	line, err := t.readLine()
	if err != nil {
		return nil, err
	}
	return security.FromString(strings.TrimSpace(line)), nil
}

func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.Line(question + " " + i18n.T("prompt.yes_no"))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) Choose(question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	if t.isTTY {
		final, err := t.runProgram(newMenuModel(question, options))
		if err != nil {
			return 0, err
		}
		m := final.(menuModel)
		if m.canceled {
			return 0, ErrCanceled
		}
		return m.chosen, nil
	}
	fmt.Fprintln(t.out, questionStyle.Render(question))
	for i, o := range options {
		fmt.Fprintf(t.out, "  %s %s\n", optionStyle.Render(strconv.Itoa(i+1)+")"), o)
	}
	for {
		answer, err := t.Line(i18n.T("prompt.choice", len(options)))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintln(t.out, Error(i18n.T("prompt.invalid_choice", answer)))
	}
}
