// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	ansiblevault "github.com/sosedoff/ansible-vault-go"
	"github.com/toeirei/vaultsetup/internal/security"
)

// PassphraseSource supplies the vault passphrase on demand.
type PassphraseSource interface {
	Passphrase() (security.Secret, error)
}

// Native encrypts in-process through ansible-vault-go. Its envelopes are
// interchangeable with the ones produced by the ansible-vault command. It is
// opt-in (vault.backend: native); the default backend runs the real tool.
type Native struct {
	src PassphraseSource
}

// NewNative returns a Native cipher reading its passphrase from src.
func NewNative(src PassphraseSource) *Native {
	return &Native{src: src}
}

func (n *Native) Requires() []string { return nil }

func (n *Native) Encrypt(ctx context.Context, plaintext security.Secret, vaultID string) (string, error) {
	if strings.ContainsAny(vaultID, ";\n") {
		return "", encryptErr(fmt.Errorf("invalid vault id %q", vaultID))
	}
	pass, err := n.src.Passphrase()
	if err != nil {
		return "", encryptErr(err)
	}
	defer pass.Zero()

	out, err := ansiblevault.Encrypt(plaintext.Reveal(), pass.Reveal())
	if err != nil {
		return "", encryptErr(err)
	}
	lines := strings.Fields(out)
	if len(lines) < 2 {
		return "", encryptErr(fmt.Errorf("%w: no payload", ErrMalformed))
	}
	// the library only writes 1.1 headers; the body is the same for 1.2
	var b strings.Builder
	b.WriteString(header{vaultID: vaultID}.String())
	body := strings.Join(lines[1:], "")
	for len(body) > 0 {
		n := min(lineWidth, len(body))
		b.WriteString("\n")
		b.WriteString(body[:n])
		body = body[n:]
	}
	return b.String(), nil
}

func (n *Native) Decrypt(ctx context.Context, armored string) (security.Secret, error) {
	lines := strings.Fields(armored)
	if len(lines) < 2 {
		return nil, decryptErr(fmt.Errorf("%w: no payload", ErrMalformed))
	}
	if _, err := parseHeader(lines[0]); err != nil {
		return nil, decryptErr(err)
	}
	if err := checkBody(lines[1:]); err != nil {
		return nil, decryptErr(err)
	}

	pass, err := n.src.Passphrase()
	if err != nil {
		return nil, decryptErr(err)
	}
	defer pass.Zero()

	lines[0] = header{}.String()
	plain, err := ansiblevault.Decrypt(strings.Join(lines, "\n"), pass.Reveal())
	if err != nil {
		return nil, decryptErr(fmt.Errorf("%w: %v", ErrIntegrity, err))
	}
	return security.FromString(plain), nil
}

// checkBody verifies the hex(salt "\n" hmac "\n" ciphertext) layout so a
// damaged file is reported as malformed rather than as a wrong passphrase.
func checkBody(lines []string) error {
	inner, err := hex.DecodeString(strings.Join(lines, ""))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	parts := strings.Split(string(inner), "\n")
	if len(parts) != 3 {
		return fmt.Errorf("%w: expected 3 payload fields, got %d", ErrMalformed, len(parts))
	}
	for _, p := range parts {
		if _, err := hex.DecodeString(p); err != nil || p == "" {
			return fmt.Errorf("%w: payload field is not hex", ErrMalformed)
		}
	}
	if len(parts[2])%(2*16) != 0 {
		return fmt.Errorf("%w: ciphertext length %d", ErrMalformed, len(parts[2])/2)
	}
	return nil
}
