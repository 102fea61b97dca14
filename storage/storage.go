package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"lexai-backend/config"
)

// ErrNotFound is returned when a key does not exist in the backend
var ErrNotFound = errors.New("object not found")

// Storage holds the source dataset and the ingestion checkpoint
type Storage interface {
	// Open streams the object stored under key
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put replaces the object stored under key
	Put(ctx context.Context, key string, data io.Reader) error

	// Delete removes the object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStorageFromConfig maps the application config onto a backend
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	return NewStorage(ctx, StorageConfig{
		Type:         StorageType(cfg.Type),
		LocalPath:    cfg.LocalPath,
		S3Bucket:     cfg.S3Bucket,
		S3Region:     cfg.S3Region,
		AWSAccessKey: cfg.AccessKeyID,
		AWSSecretKey: cfg.SecretAccessKey,
	})
}

// cleanKey normalises a key to a relative slash path that cannot climb above the root
func cleanKey(key string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return cleaned, nil
}

// contentType determines content type from the key's extension
func contentType(key string) string {
	switch path.Ext(key) {
	case ".jsonl":
		return "application/x-ndjson"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
