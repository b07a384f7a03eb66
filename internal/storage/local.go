package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// LocalSource reads input files by path, relative to the working directory
type LocalSource struct{}

// NewLocalSource creates a local file source
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// GetReader opens the file at path
func (s *LocalSource) GetReader(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks if a regular file exists at path
func (s *LocalSource) Exists(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// GetMetadata returns the size of the file at path
func (s *LocalSource) GetMetadata(ctx context.Context, path string) (*Metadata, error) {
	return statMetadata(path, path)
}
