// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package keysource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/toeirei/vaultsetup/internal/cleanup"
	"github.com/toeirei/vaultsetup/internal/crypto/ssh"
)

// DefaultComment is used when no key comment is configured.
const DefaultComment = "vaultsetup-deploy"

// Native generates ed25519 keys in process.
type Native struct {
	Comment string
}

func (n Native) Requires() []string { return nil }

func (n Native) Write(ctx context.Context, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	comment := n.Comment
	if comment == "" {
		comment = DefaultComment
	}
	pub, priv, err := ssh.GenerateAndMarshalEd25519Key(comment, "")
	if err != nil {
		return err
	}
	privBytes := []byte(priv)
	defer clear(privBytes)

	if err := replaceFile(dest, privBytes, 0o600); err != nil {
		return err
	}
	return replaceFile(dest+".pub", []byte(pub+"\n"), 0o644)
}

// replaceFile stages data next to path and renames it into place.
func replaceFile(path string, data []byte, perm os.FileMode) error {
	tmp, release, err := cleanup.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer release()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// DefaultKeygen is the ssh-keygen binary looked up on PATH.
const DefaultKeygen = "ssh-keygen"

// SSHKeygen shells out to ssh-keygen.
type SSHKeygen struct {
	Binary  string
	Comment string
}

func (s SSHKeygen) binary() string {
	if s.Binary == "" {
		return DefaultKeygen
	}
	return s.Binary
}

func (s SSHKeygen) Requires() []string { return []string{s.binary()} }

func (s SSHKeygen) Write(ctx context.Context, dest string) error {
	// ssh-keygen asks before overwriting; Generate already did.
	for _, p := range []string{dest, dest + ".pub"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	comment := s.Comment
	if comment == "" {
		comment = DefaultComment
	}
	cmd := exec.CommandContext(ctx, s.binary(), "-q", "-t", "ed25519", "-N", "", "-C", comment, "-f", dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", s.binary(), err, msg)
		}
		return fmt.Errorf("%s: %w", s.binary(), err)
	}
	return os.Chmod(dest, 0o600)
}
