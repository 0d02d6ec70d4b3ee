// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toeirei/vaultsetup/internal/security"
)

var (
	// ErrNoPassphrase means the passphrase file does not exist yet.
	ErrNoPassphrase = errors.New("vault passphrase file not found")
	// ErrEmptyPassphrase rejects blank passphrases on write and read.
	ErrEmptyPassphrase = errors.New("vault passphrase is empty")
)

// PassphraseFile is the single-line, owner-only file ansible reads through
// vault_password_file.
type PassphraseFile struct {
	Path string
}

// Exists reports whether the file is present.
func (p PassphraseFile) Exists() (bool, error) {
	_, err := os.Stat(p.Path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p.Path, err)
}

// Create writes a new passphrase file with mode 0600. It never overwrites an
// existing file.
func (p PassphraseFile) Create(pass security.Secret) error {
	if pass.Empty() {
		return ErrEmptyPassphrase
	}
	if dir := filepath.Dir(p.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(p.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.Path, err)
	}
	err = pass.Use(func(b []byte) error {
		if _, err := f.Write(b); err != nil {
			return err
		}
		_, err := f.Write([]byte("\n"))
		return err
	})
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p.Path)
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	return nil
}

// Passphrase reads the file, trimming surrounding whitespace the same way
// ansible does.
func (p PassphraseFile) Passphrase() (security.Secret, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoPassphrase, p.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.Path, err)
	}
	defer clear(data)
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPassphrase, p.Path)
	}
	return security.FromString(trimmed), nil
}

// EnsurePrivate tightens the file to 0600 when group or other bits are set.
// It reports whether a change was made.
func (p PassphraseFile) EnsurePrivate() (bool, error) {
	info, err := os.Stat(p.Path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", p.Path, err)
	}
	if info.Mode().Perm()&0o077 == 0 {
		return false, nil
	}
	if err := os.Chmod(p.Path, 0o600); err != nil {
		return false, fmt.Errorf("chmod %s: %w", p.Path, err)
	}
	return true, nil
}
