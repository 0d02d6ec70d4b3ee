// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ssh provides cryptographic helpers for SSH key operations.
// This file contains key pair generation and matching.
package ssh // import "github.com/toeirei/vaultsetup/internal/crypto/ssh"

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrNotAuthorizedKey is returned when a public key is not a single
// authorized_keys line.
var ErrNotAuthorizedKey = errors.New("not an authorized_keys public key")

// GenerateAndMarshalEd25519Key creates a new ed25519 key pair and returns them
// as formatted strings: the public key in authorized_keys format and the private
// key in OpenSSH PEM format. If a non-empty passphrase is provided, the private
// key will be encrypted with it.
func GenerateAndMarshalEd25519Key(comment string, passphrase string) (publicKeyString string, privateKeyString string, err error) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	sshPubKey, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to create SSH public key: %w", err)
	}
	publicKeyString = strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPubKey)))
	if comment != "" {
		publicKeyString += " " + comment
	}

	var pemBlock *pem.Block
	if passphrase == "" {
		pemBlock, err = ssh.MarshalPrivateKey(privKey, comment)
	} else {
		pemBlock, err = ssh.MarshalPrivateKeyWithPassphrase(privKey, comment, []byte(passphrase))
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal private key: %w", err)
	}

	privateKeyString = string(pem.EncodeToMemory(pemBlock))
	return publicKeyString, privateKeyString, nil
}

// ParsePublicKey parses a single authorized_keys line.
func ParsePublicKey(line string) (ssh.PublicKey, string, error) {
	pk, comment, _, rest, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(line)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotAuthorizedKey, err)
	}
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, "", fmt.Errorf("%w: more than one key", ErrNotAuthorizedKey)
	}
	return pk, comment, nil
}

// FingerprintSHA256 returns the OpenSSH style SHA256 fingerprint.
func FingerprintSHA256(pk ssh.PublicKey) string {
	return ssh.FingerprintSHA256(pk)
}

// PrivateMatchesPublic reports whether the private key in PEM form belongs
// to the given public key. checked is false when the private key is
// passphrase protected and could not be compared.
func PrivateMatchesPublic(privatePEM []byte, pub ssh.PublicKey) (match bool, checked bool, err error) {
	signer, err := ssh.ParsePrivateKey(privatePEM)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			if missing.PublicKey == nil {
				return false, false, nil
			}
			return bytes.Equal(missing.PublicKey.Marshal(), pub.Marshal()), true, nil
		}
		return false, false, fmt.Errorf("failed to parse private key: %w", err)
	}
	return bytes.Equal(signer.PublicKey().Marshal(), pub.Marshal()), true, nil
}
