// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import "strings"

// VaultTag is the YAML tag marking an encrypted entry.
const VaultTag = "!vault"

// Kind distinguishes plain scalars from armored vault blocks.
type Kind int

const (
	KindPlain Kind = iota
	KindArmored
)

func (k Kind) String() string {
	if k == KindArmored {
		return "armored"
	}
	return "plain"
}

// Value is what callers hand to Upsert. The caller decides the kind; the
// store never guesses from the text.
type Value struct {
	Kind Kind
	Text string
}

// Plain wraps a non-secret scalar.
func Plain(s string) Value { return Value{Kind: KindPlain, Text: s} }

// Armored wraps a vault envelope produced by the cipher.
func Armored(s string) Value { return Value{Kind: KindArmored, Text: normalizePayload(s)} }

// IsArmored reports whether v holds ciphertext.
func (v Value) IsArmored() bool { return v.Kind == KindArmored }

// normalizePayload strips indentation and blank lines from an armored block.
func normalizePayload(s string) string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
