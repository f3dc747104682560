// Package gcs is the object-store artifact backend on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type Store struct {
	bucket *storage.BucketHandle
	name   string
}

func New(ctx context.Context, bucket string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{bucket: client.Bucket(bucket), name: bucket}, nil
}

// Put uploads under the given key. Keys embed a fresh document id, so plain
// last-writer-wins semantics are enough; there is no concurrent writer for
// the same key in practice.
func (s *Store) Put(ctx context.Context, key string, data io.Reader) (domain.StorageLocator, error) {
	writer := s.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(writer, data); err != nil {
		_ = writer.Close()
		return domain.StorageLocator{}, wrapGCSError("write artifact", err)
	}
	if err := writer.Close(); err != nil {
		return domain.StorageLocator{}, wrapGCSError("finalize artifact", err)
	}
	return domain.StorageLocator{Backend: domain.BackendGCS, Bucket: s.name, Key: key}, nil
}

func (s *Store) Get(ctx context.Context, locator domain.StorageLocator) (io.ReadCloser, error) {
	if err := s.checkLocator(locator); err != nil {
		return nil, err
	}
	reader, err := s.bucket.Object(locator.Key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.WrapError(domain.ErrArtifactNotFound, "open artifact", err)
		}
		return nil, wrapGCSError("open artifact", err)
	}
	return reader, nil
}

func (s *Store) Delete(ctx context.Context, locator domain.StorageLocator) error {
	if err := s.checkLocator(locator); err != nil {
		return err
	}
	if err := s.bucket.Object(locator.Key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return wrapGCSError("delete artifact", err)
	}
	return nil
}

func (s *Store) checkLocator(locator domain.StorageLocator) error {
	if locator.Backend != domain.BackendGCS {
		return domain.WrapError(domain.ErrInvalidInput, "resolve locator",
			fmt.Errorf("locator backend %q does not belong to the gcs store", locator.Backend))
	}
	if err := locator.Validate(); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "resolve locator", err)
	}
	if locator.Bucket != s.name {
		return domain.WrapError(domain.ErrInvalidInput, "resolve locator",
			fmt.Errorf("locator bucket %q, store serves %q", locator.Bucket, s.name))
	}
	return nil
}

// wrapGCSError marks server-side failures as temporary so callers can retry
// the whole operation later.
func wrapGCSError(operation string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= http.StatusInternalServerError || apiErr.Code == http.StatusTooManyRequests {
			return domain.WrapError(domain.ErrTemporary, operation, err)
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}
