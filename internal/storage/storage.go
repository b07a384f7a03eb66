package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no content
var ErrNotFound = errors.New("content not found")

// ErrPathTraversal is returned when a key escapes the storage root
var ErrPathTraversal = errors.New("invalid key: path traversal detected")

// Reader provides read access to stored content
type Reader interface {
	// GetReader returns a reader for the content at the given key
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if content exists at the given key
	Exists(ctx context.Context, key string) (bool, error)
}

// Writer provides write access to stored content
type Writer interface {
	// Put stores the content of r under key, replacing any previous content
	Put(ctx context.Context, key string, r io.Reader) error

	// Path returns where key is stored
	Path(key string) string
}

// Metadata describes an input before it is read. Size is -1 when unknown.
type Metadata struct {
	Size        int64
	ContentType string
	ETag        string
}

// ReaderWithMetadata provides read access with metadata
type ReaderWithMetadata interface {
	Reader

	// GetMetadata returns metadata for content at the given key
	GetMetadata(ctx context.Context, key string) (*Metadata, error)
}
