package domain

import (
	"errors"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusExtracting DocumentStatus = "extracting"
	StatusExtracted  DocumentStatus = "extracted"
	StatusFailed     DocumentStatus = "failed"
)

type StorageBackend string

const (
	BackendLocal StorageBackend = "local"
	BackendGCS   StorageBackend = "gcs"
)

// StorageLocator is a discriminated reference to stored bytes: either a local
// path or a bucket/key pair. The backend is fixed when the document is created
// and never changes for its lifetime.
type StorageLocator struct {
	Backend StorageBackend `json:"backend"`
	Path    string         `json:"path,omitempty"`
	Bucket  string         `json:"bucket,omitempty"`
	Key     string         `json:"key,omitempty"`
}

func (l StorageLocator) Validate() error {
	switch l.Backend {
	case BackendLocal:
		if l.Path == "" {
			return errors.New("local locator requires a path")
		}
		if l.Bucket != "" || l.Key != "" {
			return errors.New("local locator must not carry object-store fields")
		}
	case BackendGCS:
		if l.Bucket == "" || l.Key == "" {
			return errors.New("object-store locator requires bucket and key")
		}
		if l.Path != "" {
			return errors.New("object-store locator must not carry a local path")
		}
	default:
		return errors.New("unknown storage backend")
	}
	return nil
}

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	ByteSize    int64          `json:"byte_size"`
	Locator     StorageLocator `json:"locator"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}
