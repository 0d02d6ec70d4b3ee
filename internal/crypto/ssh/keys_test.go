// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package ssh

import (
	"errors"
	"testing"

	xssh "golang.org/x/crypto/ssh"
)

func TestGenerateAndMarshalEd25519Key(t *testing.T) {
	pub, priv, err := GenerateAndMarshalEd25519Key("test-comment", "")
	if err != nil {
		t.Fatalf("GenerateAndMarshalEd25519Key failed: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("expected non-empty key strings")
	}

	pk, comment, _, _, err := xssh.ParseAuthorizedKey([]byte(pub))
	if err != nil {
		t.Fatalf("ParseAuthorizedKey failed: %v", err)
	}
	if comment != "test-comment" {
		t.Errorf("unexpected comment: got %q want %q", comment, "test-comment")
	}
	if pk.Type() != xssh.KeyAlgoED25519 {
		t.Errorf("unexpected key type %q", pk.Type())
	}

	if _, err := xssh.ParseRawPrivateKey([]byte(priv)); err != nil {
		t.Fatalf("ParseRawPrivateKey failed: %v", err)
	}
}

func TestGenerateAndMarshalEd25519Key_WithPassphrase(t *testing.T) {
	passphrase := "test-passphrase"
	_, priv, err := GenerateAndMarshalEd25519Key("test-comment-encrypted", passphrase)
	if err != nil {
		t.Fatalf("GenerateAndMarshalEd25519Key with passphrase failed: %v", err)
	}

	_, err = xssh.ParseRawPrivateKey([]byte(priv))
	if _, ok := err.(*xssh.PassphraseMissingError); !ok {
		t.Fatalf("expected PassphraseMissingError, got %T", err)
	}
	if _, err := xssh.ParseRawPrivateKeyWithPassphrase([]byte(priv), []byte(passphrase)); err != nil {
		t.Fatalf("failed to parse private key with correct passphrase: %v", err)
	}
}

func TestParsePublicKey(t *testing.T) {
	pub, _, err := GenerateAndMarshalEd25519Key("deploy@example", "")
	if err != nil {
		t.Fatal(err)
	}
	pk, comment, err := ParsePublicKey(pub + "\n")
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}
	if comment != "deploy@example" {
		t.Errorf("comment = %q", comment)
	}
	if FingerprintSHA256(pk) == "" {
		t.Error("expected non-empty fingerprint")
	}

	for _, bad := range []string{"", "not a key", pub + "\n" + pub} {
		if _, _, err := ParsePublicKey(bad); !errors.Is(err, ErrNotAuthorizedKey) {
			t.Errorf("ParsePublicKey(%q) error = %v, want ErrNotAuthorizedKey", bad, err)
		}
	}
}

func TestPrivateMatchesPublic(t *testing.T) {
	pubA, privA, err := GenerateAndMarshalEd25519Key("a", "")
	if err != nil {
		t.Fatal(err)
	}
	pubB, _, err := GenerateAndMarshalEd25519Key("b", "")
	if err != nil {
		t.Fatal(err)
	}
	pkA, _, _ := ParsePublicKey(pubA)
	pkB, _, _ := ParsePublicKey(pubB)

	match, checked, err := PrivateMatchesPublic([]byte(privA), pkA)
	if err != nil || !checked || !match {
		t.Fatalf("own key: match=%v checked=%v err=%v", match, checked, err)
	}
	match, checked, err = PrivateMatchesPublic([]byte(privA), pkB)
	if err != nil || !checked || match {
		t.Fatalf("foreign key: match=%v checked=%v err=%v", match, checked, err)
	}
	if _, _, err := PrivateMatchesPublic([]byte("garbage"), pkA); err == nil {
		t.Fatal("expected parse error for garbage private key")
	}
}
