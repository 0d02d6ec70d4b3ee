// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/toeirei/vaultsetup/internal/i18n"
	"github.com/toeirei/vaultsetup/internal/keysource"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/prompt"
)

// stepVault creates the passphrase file when missing, tightens its mode and
// waits until the ansible configuration points at it.
func (w *Workflow) stepVault(ctx context.Context) error {
	w.prompter.Printf("%s\n", prompt.Title(i18n.T("vault.title")))

	exists, err := w.passphrase.Exists()
	if err != nil {
		return err
	}
	if !exists {
		if err := w.createPassphrase(ctx); err != nil {
			return err
		}
	} else {
		changed, err := w.passphrase.EnsurePrivate()
		if err != nil {
			return err
		}
		if changed {
			w.prompter.Printf("%s\n", prompt.Warning(i18n.T("vault.tightened", w.passphrase.Path)))
		}
		logging.Debugf("passphrase file %s already present", w.passphrase.Path)
	}

	for {
		ok, err := ConfigReferences(w.opts.AnsibleConfigPath, w.passphrase.Path)
		if err != nil {
			return err
		}
		if ok {
			w.prompter.Printf("%s\n", prompt.Success(i18n.T("vault.referenced", w.opts.AnsibleConfigPath)))
			return nil
		}
		w.prompter.Printf("%s\n", prompt.Warning(i18n.T("vault.not_referenced", w.opts.AnsibleConfigPath)))
		w.prompter.Printf("  vault_password_file = %s\n", w.passphrase.Path)
		if _, err := w.prompter.Line(i18n.T("vault.press_enter")); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (w *Workflow) createPassphrase(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pass, err := prompt.SecretTwice(w.prompter, i18n.T("vault.new_passphrase"), i18n.T("vault.repeat_passphrase"))
		if isRecoverable(err) {
			w.prompter.Printf("%s\n", prompt.Error(passphraseProblem(err)))
			continue
		}
		if err != nil {
			return err
		}
		err = w.passphrase.Create(pass)
		pass.Zero()
		if err != nil {
			return err
		}
		w.prompter.Printf("%s\n", prompt.Success(i18n.T("vault.created", w.passphrase.Path)))
		logging.Infof("created passphrase file %s", w.passphrase.Path)
		return nil
	}
}

func passphraseProblem(err error) string {
	if errors.Is(err, prompt.ErrMismatch) {
		return i18n.T("vault.mismatch")
	}
	return i18n.T("vault.empty")
}

var passwordFileSetting = regexp.MustCompile(`^vault_password_file\s*[=:]\s*(.+)$`)

// ConfigReferences reports whether the ansible configuration at cfgPath
// sets vault_password_file to passPath. Relative values are resolved
// against the configuration's directory. A missing file is not an error.
func ConfigReferences(cfgPath, passPath string) (bool, error) {
	f, err := os.Open(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", cfgPath, err)
	}
	defer f.Close()

	want, err := absPath(passPath, ".")
	if err != nil {
		return false, err
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		m := passwordFileSetting.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		if value == "" {
			continue
		}
		if filepath.Clean(value) == filepath.Clean(passPath) {
			return true, nil
		}
		got, err := absPath(value, filepath.Dir(cfgPath))
		if err != nil {
			return false, err
		}
		if got == want {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("read %s: %w", cfgPath, err)
	}
	return false, nil
}

func absPath(p, base string) (string, error) {
	p, err := keysource.ExpandHome(p)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}
