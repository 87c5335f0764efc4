package images

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

// ObjectPutter stores objects in the photo bucket.
type ObjectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Helper runs bounded batches of downloads and uploads. A failed item is
// logged and left out of the result; it never fails the batch.
type Helper struct {
	fetcher *Fetcher
	cache   *Cache
	objects ObjectPutter
	newKey  func(carID string) string
	limit   int
	logger  logging.Logger
}

func NewHelper(fetcher *Fetcher, cache *Cache, objects ObjectPutter, newKey func(string) string, limit int, logger logging.Logger) *Helper {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Helper{fetcher: fetcher, cache: cache, objects: objects, newKey: newKey, limit: limit, logger: logger}
}

// FetchAndCache downloads refs (cache key → reference) and stores them.
// It returns the keys that were cached, sorted.
func (h *Helper) FetchAndCache(ctx context.Context, refs map[string]string) []string {
	var (
		mu     sync.Mutex
		cached []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.limit)

	for key, ref := range refs {
		g.Go(func() error {
			data := h.fetcher.Download(gctx, ref)
			if data == nil {
				return nil
			}
			if err := h.cache.Save(gctx, key, data); err != nil {
				if gctx.Err() == nil {
					h.logger.Warn(gctx, "failed to cache image", "key", key, "error", err)
				}
				return nil
			}
			mu.Lock()
			cached = append(cached, key)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(cached)
	return cached
}

// UploadAll stores photos of carID and returns the keys of the stored
// ones in input order.
func (h *Helper) UploadAll(ctx context.Context, carID string, photos [][]byte) []string {
	keys := make([]string, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.limit)

	for i, data := range photos {
		g.Go(func() error {
			key := h.newKey(carID)
			if err := h.objects.Put(gctx, key, data, http.DetectContentType(data)); err != nil {
				if gctx.Err() != nil {
					h.logger.Debug(gctx, "photo upload cancelled", "car", carID)
				} else {
					h.logger.Warn(gctx, "photo upload failed", "car", carID, "error", err)
				}
				return nil
			}
			keys[i] = key
			return nil
		})
	}
	_ = g.Wait()

	stored := keys[:0]
	for _, k := range keys {
		if k != "" {
			stored = append(stored, k)
		}
	}
	return stored
}

// Load returns cached bytes for key, or nil when they are not cached.
func (h *Helper) Load(ctx context.Context, key string) ([]byte, error) {
	return h.cache.Load(ctx, key)
}
