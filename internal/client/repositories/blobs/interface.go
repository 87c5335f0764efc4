// Package blobs stores downloaded image bytes in the local cache database.
package blobs

import (
	"context"
	"time"
)

// Blob is a cached object together with the checksum taken when it was stored.
type Blob struct {
	Key      string
	Data     []byte
	Checksum []byte
	CachedAt time.Time
}

type Repository interface {
	// Get returns nil, nil when key is not cached.
	Get(ctx context.Context, key string) (*Blob, error)
	Put(ctx context.Context, b Blob) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
