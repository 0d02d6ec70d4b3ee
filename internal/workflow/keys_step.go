// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package workflow

import (
	"context"
	"errors"

	"github.com/toeirei/vaultsetup/internal/credential"
	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/keysource"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/prompt"
	"github.com/toeirei/vaultsetup/internal/security"
)

// KeyAction is a choice in the key update menu.
type KeyAction int

const (
	KeyProvideFiles KeyAction = iota
	KeyGenerateNew
	KeyCancel
)

var keyMenu = []KeyAction{KeyProvideFiles, KeyGenerateNew, KeyCancel}

func (a KeyAction) label() string {
	switch a {
	case KeyProvideFiles:
		return i18n.T("keys.menu_files")
	case KeyGenerateNew:
		return i18n.T("keys.menu_generate")
	default:
		return i18n.T("keys.menu_cancel")
	}
}

// stepKeys manages the deploy key pair. The private key field stands in for
// the pair when reading the current state.
func (w *Workflow) stepKeys(ctx context.Context) error {
	w.prompter.Printf("\n%s\n", prompt.Title(i18n.T("keys.title")))

	state, err := w.readState(ctx, w.fields.PrivateKey)
	if err != nil {
		return err
	}
	if _, err := w.readState(ctx, w.fields.PublicKey); err != nil {
		return err
	}
	w.prompter.Printf("%s\n", i18n.T("keys.state", state))

	action, err := w.chooseAction(i18n.T("keys.menu"), state)
	if err != nil {
		return err
	}
	switch action {
	case ActionUpdate:
		return w.updateKeys(ctx)
	case ActionRemove:
		for _, f := range []*credential.Field{w.fields.PrivateKey, w.fields.PublicKey} {
			if err := f.Clear(ctx); err != nil {
				return err
			}
		}
		w.prompter.Printf("%s\n", prompt.Success(i18n.T("keys.removed")))
		logging.Infof("key pair cleared")
	case ActionSkip:
		logging.Debugf("key pair left unchanged")
	}
	return nil
}

// updateKeys runs the key menu until a pair is stored or the operator
// cancels. Problems with the input files send the operator back to it.
func (w *Workflow) updateKeys(ctx context.Context) error {
	labels := make([]string, len(keyMenu))
	for i, a := range keyMenu {
		labels[i] = a.label()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, err := w.prompter.Choose(i18n.T("keys.update_menu"), labels)
		if err != nil {
			return err
		}

		var pair keysource.Pair
		generated := false
		switch keyMenu[idx] {
		case KeyCancel:
			w.prompter.Printf("%s\n", i18n.T("keys.cancelled"))
			return nil
		case KeyProvideFiles:
			pair, err = w.pairFromFiles()
		case KeyGenerateNew:
			pair, err = w.generatePair(ctx)
			generated = err == nil
		}
		if isRecoverable(err) {
			w.prompter.Printf("%s\n", prompt.Error(keyProblem(err)))
			continue
		}
		if err != nil {
			return err
		}

		pub := security.FromString(pair.PublicKey)
		err = credential.SetPair(ctx, w.fields.PrivateKey, w.fields.PublicKey, pair.PrivateKey, pub)
		pair.PrivateKey.Zero()
		if err != nil {
			return err
		}
		w.prompter.Printf("%s\n", prompt.Success(i18n.T("keys.saved")))
		if generated {
			w.showPublicKey(pair.PublicKey)
		}
		return nil
	}
}

func (w *Workflow) pairFromFiles() (keysource.Pair, error) {
	privPath, err := w.prompter.Line(i18n.T("keys.private_path"))
	if err != nil {
		return keysource.Pair{}, err
	}
	if privPath == "" {
		return keysource.Pair{}, prompt.ErrEmpty
	}
	pubPath, err := w.prompter.Line(i18n.T("keys.public_path", privPath+".pub"))
	if err != nil {
		return keysource.Pair{}, err
	}
	if pubPath == "" {
		pubPath = privPath + ".pub"
	}
	return keysource.FromFiles(privPath, pubPath)
}

func (w *Workflow) generatePair(ctx context.Context) (keysource.Pair, error) {
	dest, err := w.prompter.Line(i18n.T("keys.destination", w.opts.KeyPath))
	if err != nil {
		return keysource.Pair{}, err
	}
	if dest == "" {
		dest = w.opts.KeyPath
	}
	return keysource.Generate(ctx, w.generator, dest, w.prompter.Confirm)
}

func (w *Workflow) showPublicKey(pub string) {
	w.prompter.Printf("%s\n%s\n", i18n.T("keys.public_key"), pub)
	if !w.opts.Clipboard {
		return
	}
	if err := copyToClipboard(pub); err != nil {
		logging.Debugf("clipboard unavailable: %v", err)
		return
	}
	w.prompter.Printf("%s\n", i18n.T("keys.copied"))
}

func keyProblem(err error) string {
	switch {
	case errors.Is(err, keysource.ErrDeclined):
		return i18n.T("keys.declined")
	case errors.Is(err, keysource.ErrFileNotFound):
		return i18n.T("keys.not_found", err)
	case errors.Is(err, keysource.ErrKeyMismatch):
		return i18n.T("keys.mismatch")
	case errors.Is(err, keysource.ErrInvalidKey):
		return i18n.T("keys.invalid", err)
	default:
		return i18n.T("keys.empty_path")
	}
}
