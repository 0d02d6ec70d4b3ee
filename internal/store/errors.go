// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key has no entry. It is benign.
	ErrNotFound = errors.New("key not found")
	// ErrDocumentCorrupt is matched by every *CorruptError.
	ErrDocumentCorrupt = errors.New("document corrupt")
	// ErrUnsupportedValue is returned when a key holds a mapping or sequence.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// CorruptError describes why a document could not be parsed.
type CorruptError struct {
	Path   string
	Line   int
	Reason string
}

func (e *CorruptError) Error() string {
	where := e.Path
	if where == "" {
		where = "document"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", where, e.Line, ErrDocumentCorrupt, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", where, ErrDocumentCorrupt, e.Reason)
}

func (e *CorruptError) Is(target error) bool { return target == ErrDocumentCorrupt }
