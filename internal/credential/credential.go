// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package credential binds logical secrets (the API token, the deploy key
// pair) to one or more store locations and moves them between the absent,
// placeholder and present states.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/vaultsetup/internal/logging"
	"github.com/toeirei/vaultsetup/internal/security"
	"github.com/toeirei/vaultsetup/internal/store"
	"github.com/toeirei/vaultsetup/internal/vault"
)

// DefaultPlaceholder marks a value that was cleared on purpose.
const DefaultPlaceholder = "CHANGE_ME_VIA_VAULTSETUP"

// ErrEmptyValue is returned by Set for blank input.
var ErrEmptyValue = errors.New("value is empty")

// ErrNotEncrypted is wrapped in a cipher error when a location holds a
// plain value that is not the placeholder.
var ErrNotEncrypted = errors.New("value is stored unencrypted")

// Documents is the subset of store.FileStore used by fields.
type Documents interface {
	Read(path, key string) (store.Value, error)
	Upsert(path, key string, v store.Value) error
}

// Location is one (document, key) slot.
type Location struct {
	Path string
	Key  string
}

func (l Location) String() string { return l.Path + ":" + l.Key }

// State is the presence state of a field.
type State int

const (
	Absent State = iota
	Placeholder
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Placeholder:
		return "placeholder"
	case Present:
		return "present"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is the result of reading a field.
type Snapshot struct {
	State State
	// Value holds the decrypted plaintext when State is Present.
	Value security.Secret
	// Drift is set when a mirror location disagrees with the primary one.
	Drift bool
}

// Field is a named secret mirrored into every location in Locations. The
// first location is the primary one.
type Field struct {
	Name        string
	Locations   []Location
	Placeholder string
	VaultID     string

	docs   Documents
	cipher vault.Cipher
}

// New returns a field bound to docs and cipher.
func New(name string, docs Documents, cipher vault.Cipher, locations ...Location) *Field {
	return &Field{
		Name:        name,
		Locations:   locations,
		Placeholder: DefaultPlaceholder,
		docs:        docs,
		cipher:      cipher,
	}
}

type reading struct {
	state State
	value security.Secret
}

func (f *Field) read(ctx context.Context, loc Location) (reading, error) {
	v, err := f.docs.Read(loc.Path, loc.Key)
	if errors.Is(err, store.ErrNotFound) {
		return reading{state: Absent}, nil
	}
	if err != nil {
		return reading{}, err
	}
	if !v.IsArmored() {
		switch {
		case v.Text == f.Placeholder:
			return reading{state: Placeholder}, nil
		case strings.TrimSpace(v.Text) == "":
			return reading{state: Absent}, nil
		default:
			return reading{}, &vault.CipherError{Op: "decrypt", Err: fmt.Errorf("%w at %s", ErrNotEncrypted, loc)}
		}
	}
	plain, err := f.cipher.Decrypt(ctx, v.Text)
	if err != nil {
		return reading{}, fmt.Errorf("%s at %s: %w", f.Name, loc, err)
	}
	if id, err := vault.VaultID(v.Text); err == nil && id != f.VaultID {
		logging.Warnf("%s at %s carries vault id %q but %q is configured; the next update relabels it", f.Name, loc, id, f.VaultID)
	}
	return reading{state: Present, value: plain}, nil
}

// State reads the primary location and compares the mirrors against it.
// A decrypt failure anywhere is returned as an error, never as Absent.
func (f *Field) State(ctx context.Context) (Snapshot, error) {
	if len(f.Locations) == 0 {
		return Snapshot{}, fmt.Errorf("field %s has no locations", f.Name)
	}
	primary, err := f.read(ctx, f.Locations[0])
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{State: primary.state, Value: primary.value}
	for _, loc := range f.Locations[1:] {
		mirror, err := f.read(ctx, loc)
		if err != nil {
			snap.Value.Zero()
			return Snapshot{}, err
		}
		if mirror.state != primary.state || !mirror.value.Equal(primary.value) {
			snap.Drift = true
			logging.Debugf("%s: %s is %s, primary is %s", f.Name, loc, mirror.state, primary.state)
		}
		mirror.value.Zero()
	}
	logging.Debugf("%s is %s", f.Name, snap.State)
	return snap, nil
}

// prepared is a value ready to be written to a location.
type prepared struct {
	loc Location
	val store.Value
}

func (f *Field) encryptAll(ctx context.Context, value security.Secret) ([]prepared, error) {
	if value.Empty() {
		return nil, fmt.Errorf("%s: %w", f.Name, ErrEmptyValue)
	}
	out := make([]prepared, 0, len(f.Locations))
	for _, loc := range f.Locations {
		armored, err := f.cipher.Encrypt(ctx, value, f.VaultID)
		if err != nil {
			return nil, fmt.Errorf("%s for %s: %w", f.Name, loc, err)
		}
		out = append(out, prepared{loc: loc, val: store.Armored(armored)})
	}
	logging.Debugf("%s encrypted for %d location(s), value %s", f.Name, len(out), security.Preview(value))
	return out, nil
}

func (f *Field) placeholders() []prepared {
	out := make([]prepared, 0, len(f.Locations))
	for _, loc := range f.Locations {
		out = append(out, prepared{loc: loc, val: store.Plain(f.Placeholder)})
	}
	return out
}

// Set encrypts value for every location, then writes them in order. A
// cipher failure writes nothing.
func (f *Field) Set(ctx context.Context, value security.Secret) error {
	vals, err := f.encryptAll(ctx, value)
	if err != nil {
		return err
	}
	return writeAll(f.docs, f.Name, vals)
}

// Clear writes the placeholder marker in plain text to every location.
func (f *Field) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAll(f.docs, f.Name, f.placeholders())
}

// SetPair stores a private and public key together. Both are encrypted
// before either is written.
func SetPair(ctx context.Context, priv, pub *Field, privateKey, publicKey security.Secret) error {
	privVals, err := priv.encryptAll(ctx, privateKey)
	if err != nil {
		return err
	}
	pubVals, err := pub.encryptAll(ctx, publicKey)
	if err != nil {
		return err
	}
	vals := append(privVals, pubVals...)
	return writeAll(priv.docs, priv.Name+"+"+pub.Name, vals)
}

func writeAll(docs Documents, name string, vals []prepared) error {
	var written []Location
	for _, p := range vals {
		if err := docs.Upsert(p.loc.Path, p.loc.Key, p.val); err != nil {
			if len(written) == 0 {
				return fmt.Errorf("%s: write %s: %w", name, p.loc, err)
			}
			return &PartialWriteError{Field: name, Written: written, Failed: p.loc, Err: err}
		}
		written = append(written, p.loc)
		logging.Debugf("%s written to %s (%s)", name, p.loc, p.val.Kind)
	}
	return nil
}

// PartialWriteError reports that some locations were written before a later
// write failed, leaving the field in an indeterminate state.
type PartialWriteError struct {
	Field   string
	Written []Location
	Failed  Location
	Err     error
}

func (e *PartialWriteError) Error() string {
	done := make([]string, len(e.Written))
	for i, l := range e.Written {
		done[i] = l.String()
	}
	return fmt.Sprintf("%s is in an indeterminate state: wrote %s but failed to write %s: %v",
		e.Field, strings.Join(done, ", "), e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
