// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package workflow

import (
	"context"

	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/validator"
)

func (w *Workflow) stepToken(ctx context.Context) error {
	w.prompter.Printf("\n%s\n", prompt.Title(i18n.T("token.title")))
	field := w.fields.Token

	state, err := w.readState(ctx, field)
	if err != nil {
		return err
	}
	w.prompter.Printf("%s\n", i18n.T("token.state", state))

	action, err := w.chooseAction(i18n.T("token.menu"), state)
	if err != nil {
		return err
	}
	switch action {
	case ActionUpdate:
		return w.updateToken(ctx)
	case ActionRemove:
		if err := field.Clear(ctx); err != nil {
			return err
		}
		w.prompter.Printf("%s\n", prompt.Success(i18n.T("token.removed")))
		logging.Infof("token cleared")
	case ActionSkip:
		logging.Debugf("token left unchanged")
	}
	return nil
}

// updateToken asks until the provider accepts a token, then stores it.
func (w *Workflow) updateToken(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		token, err := w.prompter.Secret(i18n.T("token.prompt"))
		if err != nil {
			return err
		}
		if token.Empty() {
			w.prompter.Printf("%s\n", prompt.Error(i18n.T("token.empty")))
			continue
		}

		switch w.validator.Validate(ctx, token) {
		case validator.Valid:
			err := w.fields.Token.Set(ctx, token)
			token.Zero()
			if err != nil {
				return err
			}
			w.prompter.Printf("%s\n", prompt.Success(i18n.T("token.saved")))
			return nil
		case validator.Invalid:
			w.prompter.Printf("%s\n", prompt.Error(i18n.T("token.invalid")))
		case validator.NetworkError:
			w.prompter.Printf("%s\n", prompt.Error(i18n.T("token.unreachable")))
		}
		token.Zero()
	}
}
