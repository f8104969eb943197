package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/usecase"
)

// Local keeps uploaded photos as flat files under one directory.
type Local struct {
	dir string
}

// NewLocal creates the directory when missing.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("storage: upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

// Save writes content atomically: a temp file is renamed into place.
func (l *Local) Save(_ context.Context, filename string, content []byte) error {
	path, err := l.path(filename)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", filename, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("storage: chmod %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", filename, err)
	}
	return nil
}

// Delete removes a file; a missing file is not an error.
func (l *Local) Delete(_ context.Context, filename string) error {
	path, err := l.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", filename, err)
	}
	return nil
}

func (l *Local) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", domain.Invalidf("invalid file name %q", filename)
	}
	return filepath.Join(l.dir, filename), nil
}

var _ usecase.PhotoStorage = (*Local)(nil)
