// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keysource supplies the deployment SSH key pair, either from two
// existing files or by generating a new ed25519 pair on disk.
package keysource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toeirei/vaultsetup/internal/crypto/ssh"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/security"
)

var (
	// ErrFileNotFound is returned when a key file is missing or unreadable.
	ErrFileNotFound = errors.New("key file not found")
	// ErrInvalidKey is returned when a file does not hold a usable key.
	ErrInvalidKey = errors.New("invalid key file")
	// ErrKeyMismatch is returned when the private key does not belong to
	// the public key.
	ErrKeyMismatch = errors.New("private key does not match public key")
	// ErrDeclined is returned by Generate when overwriting was refused.
	ErrDeclined = errors.New("overwrite declined")
)

// Pair is a private/public key pair read into memory.
type Pair struct {
	PrivateKey security.Secret
	PublicKey  string
}

// FromFiles reads a key pair. The public key must be a single
// authorized_keys line; an unencrypted private key must match it.
func FromFiles(privPath, pubPath string) (Pair, error) {
	privPath, err := ExpandHome(privPath)
	if err != nil {
		return Pair{}, err
	}
	pubPath, err = ExpandHome(pubPath)
	if err != nil {
		return Pair{}, err
	}

	priv, err := readKeyFile(privPath)
	if err != nil {
		return Pair{}, err
	}
	pubRaw, err := readKeyFile(pubPath)
	if err != nil {
		priv.Zero()
		return Pair{}, err
	}
	defer pubRaw.Zero()

	pk, _, err := ssh.ParsePublicKey(pubRaw.Reveal())
	if err != nil {
		priv.Zero()
		return Pair{}, fmt.Errorf("%w: %s: %v", ErrInvalidKey, pubPath, err)
	}
	match, checked, err := ssh.PrivateMatchesPublic(priv.Bytes(), pk)
	if err != nil {
		priv.Zero()
		return Pair{}, fmt.Errorf("%w: %s: %v", ErrInvalidKey, privPath, err)
	}
	if checked && !match {
		priv.Zero()
		return Pair{}, fmt.Errorf("%w: %s / %s", ErrKeyMismatch, privPath, pubPath)
	}
	if !checked {
		logging.Warnf("private key %s is passphrase protected; pairing with %s not verified", privPath, pubPath)
	}

	logging.Debugf("read key pair %s (%s)", pubPath, ssh.FingerprintSHA256(pk))
	return Pair{PrivateKey: priv, PublicKey: strings.TrimSpace(pubRaw.Reveal())}, nil
}

func readKeyFile(path string) (security.Secret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}
	s := security.FromBytes(data)
	clear(data)
	if s.Empty() {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidKey, path)
	}
	return s, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfirmFunc asks the operator a yes/no question.
type ConfirmFunc func(question string) (bool, error)

// Generator writes a new key pair to dest and dest.pub, replacing any
// existing files.
type Generator interface {
	Write(ctx context.Context, dest string) error
	// Requires lists external tools the generator needs on PATH.
	Requires() []string
}

// Generate creates a fresh pair at dest. If dest or dest.pub already exists
// confirm must approve the overwrite; otherwise ErrDeclined is returned and
// nothing on disk changes.
func Generate(ctx context.Context, g Generator, dest string, confirm ConfirmFunc) (Pair, error) {
	dest, err := ExpandHome(dest)
	if err != nil {
		return Pair{}, err
	}
	if existing := existingFiles(dest, dest+".pub"); len(existing) > 0 {
		if confirm == nil {
			return Pair{}, ErrDeclined
		}
		ok, err := confirm(fmt.Sprintf("%s already exists. Overwrite?", strings.Join(existing, " and ")))
		if err != nil {
			return Pair{}, err
		}
		if !ok {
			logging.Infof("kept existing key at %s", dest)
			return Pair{}, ErrDeclined
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return Pair{}, fmt.Errorf("could not create directory for %s: %w", dest, err)
	}
	if err := g.Write(ctx, dest); err != nil {
		return Pair{}, fmt.Errorf("generate key pair at %s: %w", dest, err)
	}
	logging.Infof("generated new key pair at %s", dest)
	return FromFiles(dest, dest+".pub")
}

func existingFiles(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Lstat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
