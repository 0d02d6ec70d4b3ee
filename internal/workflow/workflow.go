// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package workflow drives the interactive setup session: passphrase
// bootstrap, API token management, deploy key management and completion.
// Every step can be re-run safely; nothing changes unless the operator asks
// for an update, a removal or an overwrite.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/toeirei/vaultsetup/internal/credential"
	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/keysource"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/security"
	"github.com/toeirei/vaultsetup/internal/validator"
	"github.com/toeirei/vaultsetup/internal/vault"
)

// Step is a position in the session.
type Step int

const (
	StepVault Step = iota
	StepToken
	StepKeys
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepVault:
		return "vault"
	case StepToken:
		return "token"
	case StepKeys:
		return "keys"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Session is the transient state of one run. It is never persisted.
type Session struct {
	ID   string
	Step Step
}

// Options are the paths and switches the workflow needs besides its
// collaborators.
type Options struct {
	AnsibleConfigPath string
	// KeyPath is offered as the destination for generated keys.
	KeyPath   string
	Clipboard bool
}

// Workflow is one interactive setup session.
type Workflow struct {
	opts       Options
	passphrase vault.PassphraseFile
	fields     credential.Fields
	validator  validator.TokenValidator
	generator  keysource.Generator
	prompter   prompt.Prompter
	session    Session
}

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// New returns a workflow positioned at StepVault.
func New(opts Options, passphrase vault.PassphraseFile, fields credential.Fields, v validator.TokenValidator, g keysource.Generator, p prompt.Prompter) *Workflow {
	return &Workflow{
		opts:       opts,
		passphrase: passphrase,
		fields:     fields,
		validator:  v,
		generator:  g,
		prompter:   p,
		session:    Session{ID: uuid.NewString(), Step: StepVault},
	}
}

// Session returns the current session state.
func (w *Workflow) Session() Session { return w.session }

// Run executes the remaining steps in order. Any returned error is fatal for
// the whole run; recoverable conditions are handled inside the steps.
func (w *Workflow) Run(ctx context.Context) error {
	restore := logging.With("session", w.session.ID[:8])
	defer restore()

	for w.session.Step != StepDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.Debugf("entering step %s", w.session.Step)
		var err error
		switch w.session.Step {
		case StepVault:
			err = w.stepVault(ctx)
		case StepToken:
			err = w.stepToken(ctx)
		case StepKeys:
			err = w.stepKeys(ctx)
		default:
			return fmt.Errorf("unknown step %s", w.session.Step)
		}
		if err != nil {
			return fmt.Errorf("%s step: %w", w.session.Step, err)
		}
		w.session.Step++
	}

	w.prompter.Printf("\n%s\n", prompt.Success(i18n.T("workflow.done")))
	logging.Infof("setup complete")
	return nil
}

// Action is an operator choice for a field that already holds a value.
type Action int

const (
	ActionUpdate Action = iota
	ActionRemove
	ActionSkip
)

func (a Action) label() string {
	switch a {
	case ActionUpdate:
		return i18n.T("menu.update")
	case ActionRemove:
		return i18n.T("menu.remove")
	default:
		return i18n.T("menu.skip")
	}
}

// fieldMenu is the transition table for a field. A nil menu means the
// step goes straight to its update flow.
func fieldMenu(s credential.State) []Action {
	if s == credential.Present {
		return []Action{ActionUpdate, ActionRemove, ActionSkip}
	}
	return nil
}

// chooseAction resolves the field menu for state.
func (w *Workflow) chooseAction(question string, s credential.State) (Action, error) {
	menu := fieldMenu(s)
	if menu == nil {
		return ActionUpdate, nil
	}
	labels := make([]string, len(menu))
	for i, a := range menu {
		labels[i] = a.label()
	}
	idx, err := w.prompter.Choose(question, labels)
	if err != nil {
		return ActionSkip, err
	}
	return menu[idx], nil
}

// readState reads a field and warns about mirrors that disagree.
func (w *Workflow) readState(ctx context.Context, f *credential.Field) (credential.State, error) {
	snap, err := f.State(ctx)
	if err != nil {
		return credential.Absent, err
	}
	defer snap.Value.Zero()
	if snap.Drift {
		w.prompter.Printf("%s\n", prompt.Warning(i18n.T("workflow.drift", f.Name)))
		logging.Warnf("%s: store locations disagree", f.Name)
	}
	if snap.State == credential.Present {
		logging.Debugf("%s present: %s", f.Name, security.Preview(snap.Value))
	}
	return snap.State, nil
}

// isRecoverable reports errors that send the operator back to a prompt
// instead of ending the run.
func isRecoverable(err error) bool {
	return errors.Is(err, prompt.ErrEmpty) ||
		errors.Is(err, prompt.ErrMismatch) ||
		errors.Is(err, keysource.ErrFileNotFound) ||
		errors.Is(err, keysource.ErrInvalidKey) ||
		errors.Is(err, keysource.ErrKeyMismatch) ||
		errors.Is(err, keysource.ErrDeclined)
}
