// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the in-memory representation of secret material
// (API tokens, private keys, vault passphrases) handled by vaultsetup.
package security

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const redacted = "[SECRET]"

// Secret is a thin wrapper around a byte slice intended to hold sensitive
// material. It implements redaction helpers so accidental formatting or JSON
// marshaling does not reveal data.
type Secret []byte

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter to ensure `%v`, `%#v` and friends are redacted.
func (s Secret) Format(f fmt.State, c rune) {
	_, _ = io.WriteString(f, redacted)
}

// Bytes returns a copy of the underlying bytes. Callers are responsible for
// zeroing sensitive copies when done.
func (s Secret) Bytes() []byte {
	out := make([]byte, len(s))
	copy(out, s)
	return out
}

// Reveal returns the plaintext as a string. Only the cipher and the key
// writers should need this.
func (s Secret) Reveal() string { return string(s) }

// Empty reports whether the secret holds no non-whitespace content.
func (s Secret) Empty() bool { return strings.TrimSpace(string(s)) == "" }

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s, other) == 1
}

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// Use executes fn with the underlying bytes (not a copy).
func (s Secret) Use(fn func([]byte) error) error {
	return fn([]byte(s))
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// FromString creates a Secret from a string input.
func FromString(in string) Secret { return Secret([]byte(in)) }

// FromBytes creates a Secret from bytes (it makes a copy).
func FromBytes(in []byte) Secret {
	out := make([]byte, len(in))
	copy(out, in)
	return Secret(out)
}

// PreviewLen is the number of leading characters Preview shows.
const PreviewLen = 4

// Preview returns at most PreviewLen leading characters followed by an
// ellipsis. It is the only form in which secret material may reach debug logs.
func Preview(s Secret) string {
	if len(s) == 0 {
		return "<empty>"
	}
	var b strings.Builder
	rest := []byte(s)
	for i := 0; i < PreviewLen && len(rest) > 0; i++ {
		r, size := utf8.DecodeRune(rest)
		if r == '\n' || r == '\r' {
			break
		}
		b.WriteRune(r)
		rest = rest[size:]
	}
	b.WriteString("…")
	return b.String()
}
