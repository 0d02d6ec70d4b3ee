// Copyright (c) 2026 Vaultsetup Team
// Vaultsetup - secrets setup for hardened web server provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/vaultsetup/internal/cleanup"
	"github.com/toeirei/vaultsetup/internal/logging"
)

// BackupSuffix is appended to a document path for its compressed snapshot.
const BackupSuffix = ".bak.zst"

// FileStore reads and upserts keys in YAML files on disk. Every write
// replaces the file atomically with owner-only permissions.
type FileStore struct {
	// Backup enables a zstd snapshot of each existing document before the
	// first write to it made by this FileStore.
	Backup bool

	backedUp map[string]bool
}

// NewFileStore returns a FileStore.
func NewFileStore(backup bool) *FileStore {
	return &FileStore{Backup: backup, backedUp: make(map[string]bool)}
}

// Load parses the document at path. A missing or empty file is an empty
// document; an unreadable or malformed one is an error.
func (s *FileStore) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var ce *CorruptError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Save writes doc to path through a temp file in the same directory.
func (s *FileStore) Save(path string, doc *Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", dir, err)
	}
	if err := s.backupOnce(path); err != nil {
		return err
	}

	tmp, release, err := cleanup.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	// After a successful rename the temp name no longer exists and release
	// is a no-op.
	defer release()

	if _, err := tmp.Write(doc.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	logging.Debugf("wrote %s", path)
	return nil
}

// Read returns the value for key in the document at path.
func (s *FileStore) Read(path, key string) (Value, error) {
	doc, err := s.Load(path)
	if err != nil {
		return Value{}, err
	}
	v, err := doc.Get(key)
	if err != nil {
		var ce *CorruptError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Value{}, err
	}
	return v, nil
}

// Upsert sets key in the document at path, creating the file if needed.
func (s *FileStore) Upsert(path, key string, v Value) error {
	doc, err := s.Load(path)
	if err != nil {
		return err
	}
	if err := doc.Set(key, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return s.Save(path, doc)
}

func (s *FileStore) backupOnce(path string) error {
	if !s.Backup || s.backedUp[path] {
		return nil
	}
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s for backup: %w", path, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path+BackupSuffix, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create backup of %s: %w", path, err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if s.backedUp == nil {
		s.backedUp = make(map[string]bool)
	}
	s.backedUp[path] = true
	logging.Debugf("backed up %s to %s", path, path+BackupSuffix)
	return nil
}

// readBackup decompresses the snapshot written for path.
func readBackup(path string) ([]byte, error) {
	f, err := os.Open(path + BackupSuffix)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
