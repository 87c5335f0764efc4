package images

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/blobs"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"golang.org/x/crypto/blake2b"
)

// Cache is the local byte cache for images, keyed by entity id.
type Cache struct {
	repo   blobs.Repository
	now    func() time.Time
	logger logging.Logger
}

func NewCache(repo blobs.Repository, logger logging.Logger) *Cache {
	return &Cache{repo: repo, now: time.Now, logger: logger}
}

func checksum(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

func (c *Cache) Save(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image %s", key)
	}
	return c.repo.Put(ctx, blobs.Blob{Key: key, Data: data, Checksum: checksum(data), CachedAt: c.now()})
}

// Load returns nil, nil when key is not cached or the blob is corrupted.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := c.repo.Get(ctx, key)
	if err != nil || b == nil {
		return nil, err
	}
	if !bytes.Equal(checksum(b.Data), b.Checksum) {
		c.logger.Warn(ctx, "dropping corrupted image blob", "key", key)
		if err := c.repo.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return b.Data, nil
}
