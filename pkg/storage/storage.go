package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore is the collaborator that takes care of the actual byte transfer
// for uploads. Handlers validate type and size before calling Save and only
// persist the resulting filename on the owning document.
type FileStore interface {
	Save(ctx context.Context, dir, name string, src io.Reader) error
}

// DiskStore implements FileStore on the local filesystem under a root path.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at the configured upload path.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

// Save writes src to <root>/<dir>/<name>, creating the directory if needed.
func (s *DiskStore) Save(ctx context.Context, dir, name string, src io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write upload file: %w", err)
	}
	return nil
}
