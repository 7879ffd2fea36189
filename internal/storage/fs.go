// Package storage provides blob-store collaborators that remove the backing
// blobs of deleted document rows.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSBlobStore removes blobs from a local directory tree. Storage refs are
// paths relative to Root.
type FSBlobStore struct {
	// Root is the base directory all storage refs resolve under.
	Root string
}

// NewFSBlobStore creates a filesystem blob store rooted at root.
func NewFSBlobStore(root string) *FSBlobStore {
	return &FSBlobStore{Root: root}
}

// DeleteBlob removes the blob at the given storage ref. A missing blob is an
// error so callers can report it; refs escaping the root are rejected.
func (s *FSBlobStore) DeleteBlob(_ context.Context, storageRef string) error {
	clean := filepath.Clean(storageRef)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid storage ref %q", storageRef)
	}
	if err := os.Remove(filepath.Join(s.Root, clean)); err != nil {
		return fmt.Errorf("delete blob %q: %w", storageRef, err)
	}
	return nil
}
