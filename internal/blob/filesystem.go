package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"castingbase/pkg/platform/sentinel"
)

// Filesystem stores blobs as files under a single directory. Refs are the
// generated file names; the directory itself never leaves this type.
type Filesystem struct {
	dir string
}

// NewFilesystem creates the directory if needed and returns the store.
func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &Filesystem{dir: dir}, nil
}

func (s *Filesystem) Save(_ context.Context, name string, r io.Reader) (string, error) {
	ref := uuid.NewString() + "_" + sanitize(filepath.Base(name))
	path := filepath.Join(s.dir, ref)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close blob: %w", err)
	}
	return ref, nil
}

func (s *Filesystem) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	path, err := s.safePath(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *Filesystem) Resolve(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", sentinel.ErrNotFound
	}
	path, err := s.safePath(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("resolve blob: %w", err)
	}
	return path, nil
}

// safePath rejects refs that would escape the blob directory.
func (s *Filesystem) safePath(ref string) (string, error) {
	if strings.Contains(ref, "/") || strings.Contains(ref, "\\") || strings.Contains(ref, "..") {
		return "", fmt.Errorf("invalid blob ref %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" || name == "." {
		return "blob"
	}
	return name
}
