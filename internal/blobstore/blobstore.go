// Package blobstore maps handler ids to compiled guest binaries on a
// local filesystem prefix.
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrAlreadyExists is returned by Create when a blob already exists at id.
var ErrAlreadyExists = errors.New("blobstore: already exists")

// ErrNotFound is returned by Read, Update and Delete when no blob exists at id.
var ErrNotFound = errors.New("blobstore: not found")

// Store is a content-addressed, single-writer-per-id blob store rooted at
// a directory prefix. One file per id, named "<id>.bin".
type Store struct {
	prefix string
}

// New creates the prefix directory (if absent) and returns a Store rooted
// there. The prefix is created eagerly so later operations never race on
// directory creation.
func New(prefix string) (*Store, error) {
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create prefix: %w", err)
	}
	return &Store{prefix: prefix}, nil
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return "", fmt.Errorf("blobstore: invalid id %q", id)
	}
	return filepath.Join(s.prefix, id+".bin"), nil
}

// Create writes bytes at id atomically (temp file + rename). Fails with
// ErrAlreadyExists if a blob already exists there.
func (s *Store) Create(id string, data []byte) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blobstore: stat %s: %w", id, err)
	}
	return s.writeAtomic(p, data)
}

// Update replaces the bytes at id atomically, creating the file if absent
// is NOT allowed by the caller's intended usage (spec requires the caller
// to know whether an old handler existed), but Update itself does not
// require the file to pre-exist — it is an atomic write regardless.
func (s *Store) Update(id string, data []byte) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	return s.writeAtomic(p, data)
}

func (s *Store) writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("blobstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("blobstore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("blobstore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blobstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("blobstore: rename into place: %w", err)
	}
	return nil
}

// Read returns the bytes stored at id. Fails with ErrNotFound if absent.
func (s *Store) Read(id string) ([]byte, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %s: %w", id, err)
	}
	return data, nil
}

// Delete removes the blob at id. Fails with ErrNotFound if absent.
func (s *Store) Delete(id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("blobstore: delete %s: %w", id, err)
	}
	return nil
}
