// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil holds in-memory doubles shared by package tests.
package testutil

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/toeirei/vaultsetup/internal/security"
	"github.com/toeirei/vaultsetup/internal/store"
	"github.com/toeirei/vaultsetup/internal/vault"
)

// Documents is an in-memory document store. FailUpsert, if set, is
// consulted before every write.
type Documents struct {
	mu   sync.Mutex
	docs map[string]*store.Document

	FailUpsert func(path, key string) error
	Writes     []string
}

// NewDocuments returns an empty store.
func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]*store.Document)}
}

// Seed parses text into the document at path.
func (d *Documents) Seed(path, text string) error {
	doc, err := store.Parse([]byte(text))
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[path] = doc
	return nil
}

// Text renders the document at path; missing documents are empty.
func (d *Documents) Text(path string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if doc, ok := d.docs[path]; ok {
		return string(doc.Bytes())
	}
	return ""
}

func (d *Documents) Read(path, key string) (store.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[path]
	if !ok {
		return store.Value{}, fmt.Errorf("%w: %s", store.ErrNotFound, key)
	}
	return doc.Get(key)
}

func (d *Documents) Upsert(path, key string, v store.Value) error {
	if d.FailUpsert != nil {
		if err := d.FailUpsert(path, key); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[path]
	if !ok {
		doc = store.NewDocument()
		d.docs[path] = doc
	}
	if err := doc.Set(key, v); err != nil {
		return err
	}
	d.Writes = append(d.Writes, path+":"+key)
	return nil
}

// FailOn returns a FailUpsert func that rejects writes to path:key.
func FailOn(path, key string, err error) func(string, string) error {
	return func(p, k string) error {
		if p == path && k == key {
			return err
		}
		return nil
	}
}

const fakeHeader = "$ANSIBLE_VAULT;1.1;AES256"

// Cipher is a reversible stand-in for a vault backend. Payloads are the hex
// plaintext under a real vault header; it counts calls.
type Cipher struct {
	mu       sync.Mutex
	Encrypts int
	Decrypts int

	EncryptErr error
}

func (c *Cipher) Requires() []string { return nil }

func (c *Cipher) Encrypt(_ context.Context, plaintext security.Secret, vaultID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Encrypts++
	if c.EncryptErr != nil {
		return "", &vault.CipherError{Op: "encrypt", Err: c.EncryptErr}
	}
	header := fakeHeader
	if vaultID != "" {
		header = "$ANSIBLE_VAULT;1.2;AES256;" + vaultID
	}
	return header + "\n" + hex.EncodeToString(plaintext.Bytes()), nil
}

func (c *Cipher) Decrypt(_ context.Context, armored string) (security.Secret, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Decrypts++
	lines := strings.Split(strings.TrimSpace(armored), "\n")
	if len(lines) != 2 || !vault.LooksArmored(lines[0]) {
		return nil, &vault.CipherError{Op: "decrypt", Err: vault.ErrMalformed}
	}
	raw, err := hex.DecodeString(lines[1])
	if err != nil {
		return nil, &vault.CipherError{Op: "decrypt", Err: errors.Join(vault.ErrMalformed, err)}
	}
	return security.FromBytes(raw), nil
}
