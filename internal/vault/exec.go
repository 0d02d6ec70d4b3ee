// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/toeirei/vaultsetup/internal/cleanup"
	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/security"
)

// DefaultBinary is the ansible-vault executable name.
const DefaultBinary = "ansible-vault"

// Exec delegates to the ansible-vault command. Values are staged through
// owner-only temp files that are removed on every exit path; plaintext never
// appears in argv or the environment.
type Exec struct {
	Binary         string
	PassphrasePath string
	// TempDir is where staging files go; empty means the OS default.
	TempDir string
}

// NewExec returns an Exec cipher for the given passphrase file.
func NewExec(binary, passphrasePath string) *Exec {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Exec{Binary: binary, PassphrasePath: passphrasePath}
}

func (e *Exec) Requires() []string { return []string{e.Binary} }

func (e *Exec) Encrypt(ctx context.Context, plaintext security.Secret, vaultID string) (string, error) {
	if plaintext.Empty() {
		return "", encryptErr(errors.New("refusing to encrypt an empty value"))
	}
	args := []string{"encrypt", "--vault-password-file", e.PassphrasePath}
	if vaultID != "" {
		args = []string{"encrypt", "--vault-id", vaultID + "@" + e.PassphrasePath, "--encrypt-vault-id", vaultID}
	}
	out, err := e.runStaged(ctx, plaintext, args)
	if err != nil {
		return "", encryptErr(err)
	}
	defer out.Zero()
	if !LooksArmored(out.Reveal()) {
		return "", encryptErr(fmt.Errorf("%s returned no vault envelope", e.Binary))
	}
	return strings.TrimSpace(out.Reveal()), nil
}

func (e *Exec) Decrypt(ctx context.Context, armored string) (security.Secret, error) {
	lines := strings.Fields(armored)
	if len(lines) < 2 {
		return nil, decryptErr(fmt.Errorf("%w: no payload", ErrMalformed))
	}
	if _, err := parseHeader(lines[0]); err != nil {
		return nil, decryptErr(err)
	}
	blob := security.FromString(strings.Join(lines, "\n") + "\n")
	out, err := e.runStaged(ctx, blob, []string{"decrypt", "--vault-password-file", e.PassphrasePath})
	if err != nil {
		return nil, decryptErr(err)
	}
	return out, nil
}

// runStaged writes input to a temp file, appends "--output - <file>" to args
// and returns the command's stdout.
func (e *Exec) runStaged(ctx context.Context, input security.Secret, args []string) (security.Secret, error) {
	f, release, err := cleanup.CreateTemp(e.TempDir, "vaultsetup-stage-*")
	if err != nil {
		return nil, err
	}
	defer release()

	if err := input.Use(func(b []byte) error { _, err := f.Write(b); return err }); err != nil {
		return nil, fmt.Errorf("stage value: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("stage value: %w", err)
	}

	args = append(args, "--output", "-", f.Name())
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logging.Debugf("running %s %s", e.Binary, args[0])
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", e.Binary, args[0], err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", e.Binary, args[0], err, msg)
	}
	out := security.FromBytes(stdout.Bytes())
	clear(stdout.Bytes())
	return out, nil
}
