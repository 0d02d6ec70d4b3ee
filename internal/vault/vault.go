// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault turns plaintext secrets into Ansible Vault envelopes and
// back. The envelope is what ends up under a `!vault |` tag in the variable
// files; the passphrase lives in a separate owner-only file.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/vaultsetup/internal/security"
)

// Cipher encrypts and decrypts single values.
type Cipher interface {
	// Encrypt returns an armored envelope. A non-empty vaultID labels the
	// envelope with that vault identity.
	Encrypt(ctx context.Context, plaintext security.Secret, vaultID string) (string, error)
	// Decrypt reverses Encrypt. Any failure is a *CipherError.
	Decrypt(ctx context.Context, armored string) (security.Secret, error)
	// Requires lists external executables the cipher depends on.
	Requires() []string
}

var (
	// ErrCipher matches every *CipherError.
	ErrCipher = errors.New("vault cipher failure")
	// ErrIntegrity means a well-formed envelope did not decrypt: wrong
	// passphrase or damaged ciphertext.
	ErrIntegrity = errors.New("integrity check failed (wrong vault passphrase or damaged data)")
	// ErrMalformed means the envelope could not be decoded.
	ErrMalformed = errors.New("malformed vault envelope")
)

// CipherError wraps encryption and decryption failures. It is never a
// synonym for "value absent".
type CipherError struct {
	Op  string
	Err error
}

func (e *CipherError) Error() string { return fmt.Sprintf("vault %s: %v", e.Op, e.Err) }

func (e *CipherError) Unwrap() error { return e.Err }

func (e *CipherError) Is(target error) bool { return target == ErrCipher }

func encryptErr(err error) error { return &CipherError{Op: "encrypt", Err: err} }

func decryptErr(err error) error { return &CipherError{Op: "decrypt", Err: err} }

const (
	headerMagic = "$ANSIBLE_VAULT"
	cipherName  = "AES256"
	lineWidth   = 80
)

type header struct {
	version string
	vaultID string
}

func (h header) String() string {
	if h.vaultID != "" {
		return strings.Join([]string{headerMagic, "1.2", cipherName, h.vaultID}, ";")
	}
	return strings.Join([]string{headerMagic, "1.1", cipherName}, ";")
}

func parseHeader(line string) (header, error) {
	f := strings.Split(strings.TrimSpace(line), ";")
	if len(f) < 3 || f[0] != headerMagic {
		return header{}, fmt.Errorf("%w: missing %s header", ErrMalformed, headerMagic)
	}
	if f[2] != cipherName {
		return header{}, fmt.Errorf("%w: unsupported cipher %q", ErrMalformed, f[2])
	}
	switch f[1] {
	case "1.1":
		return header{version: f[1]}, nil
	case "1.2":
		if len(f) < 4 || f[3] == "" {
			return header{}, fmt.Errorf("%w: 1.2 header without vault id", ErrMalformed)
		}
		return header{version: f[1], vaultID: f[3]}, nil
	}
	return header{}, fmt.Errorf("%w: unsupported version %q", ErrMalformed, f[1])
}

// LooksArmored reports whether s starts with a vault header. It is only used
// to check what an external tool handed back, never to classify stored data.
func LooksArmored(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), headerMagic+";")
}

// VaultID extracts the vault identity label of an envelope, if any.
func VaultID(armored string) (string, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(armored), "\n")
	h, err := parseHeader(first)
	if err != nil {
		return "", err
	}
	return h.vaultID, nil
}
