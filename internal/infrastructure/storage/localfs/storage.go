// Package localfs is the filesystem artifact store backend. Writes go
// through a temp file and rename, so a locator either resolves to complete
// bytes or to nothing.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	return &Store{basePath: abs}, nil
}

func (s *Store) Put(_ context.Context, key string, data io.Reader) (domain.StorageLocator, error) {
	path, err := s.resolve(key)
	if err != nil {
		return domain.StorageLocator{}, err
	}

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return domain.StorageLocator{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return domain.StorageLocator{}, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.StorageLocator{}, fmt.Errorf("flush artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return domain.StorageLocator{}, fmt.Errorf("publish artifact: %w", err)
	}

	return domain.StorageLocator{Backend: domain.BackendLocal, Path: path}, nil
}

func (s *Store) Get(_ context.Context, locator domain.StorageLocator) (io.ReadCloser, error) {
	path, err := s.locatorPath(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrArtifactNotFound, "open artifact", err)
		}
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Delete is idempotent: removing an already-absent artifact succeeds.
func (s *Store) Delete(_ context.Context, locator domain.StorageLocator) error {
	path, err := s.locatorPath(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

func (s *Store) locatorPath(locator domain.StorageLocator) (string, error) {
	if locator.Backend != domain.BackendLocal {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve locator",
			fmt.Errorf("locator backend %q does not belong to the local store", locator.Backend))
	}
	if err := locator.Validate(); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve locator", err)
	}
	return locator.Path, nil
}

func (s *Store) resolve(key string) (string, error) {
	path := filepath.Join(s.basePath, filepath.Base(key))
	if !strings.HasPrefix(path, s.basePath+string(os.PathSeparator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve key",
			errors.New("key escapes the storage directory"))
	}
	return path, nil
}
