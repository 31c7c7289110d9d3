// Package blobstore adapts object storage backends (S3, MinIO, a local bbolt
// file, memory) to the small key/value contract the sharing core depends on.
package blobstore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// DefaultContentType is reported for objects stored without a content type.
const DefaultContentType = "application/octet-stream"

// Store is a flat key/value object store. Get returns common.ErrorNotFound
// for absent keys; every other failure is an upstream error.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*models.Blob, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]*models.Object, error)
}

// Backend names accepted by New.
const (
	BackendS3     = "s3"
	BackendMinIO  = "minio"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Options carries backend settings. Path is used by the bolt backend only.
type Options struct {
	Backend   string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Path      string
}

// New builds the Store selected by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendS3:
		return NewS3Store(ctx, opts)
	case BackendMinIO:
		return NewMinioStore(opts)
	case BackendBolt:
		return NewBoltStore(opts.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return DefaultContentType
	}
	return ct
}
