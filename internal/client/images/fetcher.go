package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// maxImageSize bounds a single download.
const maxImageSize = 16 << 20

// downloadTimeout bounds a shared download once it no longer follows the
// context of the caller that started it.
const downloadTimeout = time.Minute

var errTooLarge = fmt.Errorf("image exceeds %d bytes", maxImageSize)

// ObjectGetter reads objects from the photo bucket.
type ObjectGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Fetcher struct {
	httpClient *http.Client
	objects    ObjectGetter
	limiter    *rate.Limiter
	group      singleflight.Group
	logger     logging.Logger
}

// NewFetcher allows rps downloads per second with bursts of the same size.
// A non-positive rps disables throttling.
func NewFetcher(objects ObjectGetter, httpClient *http.Client, rps float64, logger logging.Logger) *Fetcher {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		httpClient: httpClient,
		objects:    objects,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Download returns the bytes behind ref, or nil on any failure.
func (f *Fetcher) Download(ctx context.Context, ref string) []byte {
	if ref == "" || ctx.Err() != nil {
		return nil
	}

	// The shared download outlives any single caller; each caller still
	// stops waiting when its own context ends.
	ch := f.group.DoChan(ref, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), downloadTimeout)
		defer cancel()

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if isURL(ref) {
			return f.get(ctx, ref)
		}
		if f.objects == nil {
			return nil, fmt.Errorf("no object storage configured")
		}
		return f.objects.Get(ctx, ref)
	})

	var v interface{}
	select {
	case <-ctx.Done():
		f.logger.Debug(ctx, "image download cancelled", "ref", ref)
		return nil
	case res := <-ch:
		if res.Err != nil {
			f.logger.Warn(ctx, "image download failed", "ref", ref, "error", res.Err)
			return nil
		}
		v = res.Val
	}

	data, _ := v.([]byte)
	if len(data) == 0 {
		return nil
	}
	return data
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxImageSize {
		return nil, errTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageSize {
		return nil, errTooLarge
	}
	return data, nil
}
