// Package localfs stores raw dataset uploads on the local filesystem.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store implements ports.FileStore with a directory on local disk.
type Store struct {
	root string
}

// New creates the upload directory if needed and returns a store rooted there.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

// Save writes the stream under a sanitized key and returns the stored path.
func (s *Store) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	// Rename last so a crash never leaves a half-written file under the key.
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return path, nil
}

// Open streams a stored file.
func (s *Store) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(filepath.Clean(path), s.root) {
		return nil, fmt.Errorf("path outside store root")
	}
	return os.Open(path)
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if !strings.HasPrefix(filepath.Clean(path), s.root) {
		return fmt.Errorf("path outside store root")
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) resolve(key string) (string, error) {
	name := filepath.Base(filepath.Clean(key))
	if name == "." || name == ".." || name == "" || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, name), nil
}
