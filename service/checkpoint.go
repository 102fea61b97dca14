package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"lexai-backend/logger"
	"lexai-backend/storage"
)

// StorageCheckpointStore keeps the cursor as a single object in file or object storage
type StorageCheckpointStore struct {
	storage storage.Storage
	key     string
}

// NewStorageCheckpointStore creates a checkpoint store at key
func NewStorageCheckpointStore(s storage.Storage, key string) *StorageCheckpointStore {
	return &StorageCheckpointStore{storage: s, key: key}
}

// Load returns the stored URL. A missing, empty or unreadable object counts as
// no checkpoint; restarting from the top is safe because inserts are idempotent.
func (c *StorageCheckpointStore) Load(ctx context.Context) (*string, error) {
	log := logger.FromContext(ctx)

	rc, err := c.storage.Open(ctx, c.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("Checkpoint unreadable, starting fresh", "key", c.key, "error", err)
		}
		return nil, nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		log.Warn("Checkpoint unreadable, starting fresh", "key", c.key, "error", err)
		return nil, nil
	}

	url := strings.TrimSpace(string(data))
	if url == "" {
		return nil, nil
	}
	return &url, nil
}

// Save overwrites the stored URL
func (c *StorageCheckpointStore) Save(ctx context.Context, url string) error {
	return c.storage.Put(ctx, c.key, strings.NewReader(url))
}
