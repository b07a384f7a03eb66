package storage

import (
	"context"
	"io"
)

// SourceRouter sends URLs to an HTTP source and everything else to the local filesystem
type SourceRouter struct {
	local ReaderWithMetadata
	http  ReaderWithMetadata
}

// NewSourceRouter creates a router over the given sources
func NewSourceRouter(local, http ReaderWithMetadata) *SourceRouter {
	return &SourceRouter{local: local, http: http}
}

// NewDefaultSources routes to LocalSource and HTTPSource
func NewDefaultSources() *SourceRouter {
	return NewSourceRouter(NewLocalSource(), NewHTTPSource())
}

func (r *SourceRouter) pick(key string) ReaderWithMetadata {
	if IsURL(key) && r.http != nil {
		return r.http
	}
	return r.local
}

// GetReader implements Reader
func (r *SourceRouter) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	return r.pick(key).GetReader(ctx, key)
}

// Exists implements Reader
func (r *SourceRouter) Exists(ctx context.Context, key string) (bool, error) {
	return r.pick(key).Exists(ctx, key)
}

// GetMetadata implements ReaderWithMetadata
func (r *SourceRouter) GetMetadata(ctx context.Context, key string) (*Metadata, error) {
	return r.pick(key).GetMetadata(ctx, key)
}
