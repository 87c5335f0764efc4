// Package paging extends the read-through policy of package syncmed to
// lists loaded one page at a time.
//
// Mediator decides whether cached pages are fresh enough to show and loads
// remote pages into the cache on request. Pager keeps the growing window a
// consumer renders, reading pages from the cache and asking the Mediator to
// load from the backend when the cache runs out.
package paging

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
)

const DefaultPageSize = 20

// Source binds a Mediator to one entity family.
type Source[T any] interface {
	// PushPending sends local changes to the backend before a refresh.
	PushPending(ctx context.Context) error

	// FetchRemotePage returns the zero-based page of the given size.
	FetchRemotePage(ctx context.Context, page, size int) ([]T, error)

	// SavePage stores fetched items. With clear set, cached rows without
	// local changes are dropped first.
	SavePage(ctx context.Context, items []T, clear bool) error
}

type Config struct {
	PageSize int
	// TTL is how long a synced page counts as fresh.
	TTL   time.Duration
	Order Order
	Clock func() time.Time
}

type Mediator[T models.Syncable] struct {
	src    Source[T]
	cfg    Config
	logger logging.Logger
}

func NewMediator[T models.Syncable](src Source[T], cfg Config, logger logging.Logger) *Mediator[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Mediator[T]{src: src, cfg: cfg, logger: logger}
}

func (m *Mediator[T]) PageSize() int {
	return m.cfg.PageSize
}

func (m *Mediator[T]) Initialize(ctx context.Context, cachedFirstPage []T) InitializeAction {
	if m.ShouldRefresh(cachedFirstPage) {
		return LaunchInitialRefresh
	}
	return SkipInitialRefresh
}

// ShouldRefresh reports whether cached is stale. An empty page is always
// stale; otherwise the oldest LastSyncedAt decides, and a row that was never
// synced counts as the oldest.
func (m *Mediator[T]) ShouldRefresh(cached []T) bool {
	if len(cached) == 0 {
		return true
	}

	var oldest time.Time
	for i, item := range cached {
		synced := item.Meta().LastSyncedAt
		if synced == nil {
			return true
		}
		if i == 0 || synced.Before(oldest) {
			oldest = *synced
		}
	}
	return m.cfg.Clock().Sub(oldest) > m.cfg.TTL
}

// Load performs one page load. It never panics and never retries; every
// failure is reported through Result.Err.
func (m *Mediator[T]) Load(ctx context.Context, loadType LoadType, state State) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("page %s panicked: %v", loadType, p)
			m.logger.Error(ctx, "page load failed", "type", loadType.String(), "error", err)
			res = Error(err)
		}
	}()

	size := m.cfg.PageSize

	switch loadType {
	case Refresh:
		if err := m.src.PushPending(ctx); err != nil {
			if ctx.Err() != nil {
				m.logger.Debug(ctx, "pending push cancelled", "error", err)
			} else {
				m.logger.Warn(ctx, "pending push failed, refreshing anyway", "error", err)
			}
		}
		return m.loadPage(ctx, loadType, 0, size, true)

	case Append:
		return m.loadPage(ctx, loadType, state.FirstPage+state.Pages, size, false)

	case Prepend:
		if m.cfg.Order == Descending || state.FirstPage <= 0 {
			return Success(true)
		}
		res := m.loadPage(ctx, loadType, state.FirstPage-1, size, false)
		if res.IsError() {
			return res
		}
		return Success(state.FirstPage-1 == 0)
	}

	return Error(fmt.Errorf("unknown load type %d", loadType))
}

func (m *Mediator[T]) loadPage(ctx context.Context, loadType LoadType, page, size int, clear bool) Result {
	items, err := m.src.FetchRemotePage(ctx, page, size)
	if err != nil {
		m.logFailure(ctx, loadType, page, err)
		return Error(err)
	}
	if err := m.src.SavePage(ctx, items, clear); err != nil {
		m.logFailure(ctx, loadType, page, err)
		return Error(err)
	}
	return Success(len(items) < size)
}

func (m *Mediator[T]) logFailure(ctx context.Context, loadType LoadType, page int, err error) {
	if ctx.Err() != nil {
		m.logger.Debug(ctx, "page load cancelled", "type", loadType.String(), "page", page)
		return
	}
	m.logger.Error(ctx, "page load failed", "type", loadType.String(), "page", page, "error", err)
}
