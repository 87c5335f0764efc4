package paging

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

// LocalPages reads cached rows in the list's order.
type LocalPages[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Pager is the in-memory window over a paged list. It is safe for
// concurrent use; loads are serialized.
type Pager[T models.Syncable] struct {
	mu    sync.Mutex
	m     *Mediator[T]
	local LocalPages[T]
	items []T
	seen  map[string]struct{}
	end   bool
}

func NewPager[T models.Syncable](m *Mediator[T], local LocalPages[T]) *Pager[T] {
	return &Pager[T]{m: m, local: local, seen: make(map[string]struct{})}
}

// Init shows the cached first page, refreshing it from the backend first
// when it is stale. On a failed refresh the cached rows are still shown and
// the error is returned.
func (p *Pager[T]) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	first, err := p.local(ctx, 0, p.m.PageSize())
	if err != nil {
		return err
	}
	if p.m.Initialize(ctx, first) == LaunchInitialRefresh {
		return p.refresh(ctx)
	}
	p.reset(first)
	return nil
}

// Refresh pushes local changes, reloads the first page from the backend and
// resets the window to it.
func (p *Pager[T]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh(ctx)
}

func (p *Pager[T]) refresh(ctx context.Context) error {
	res := p.m.Load(ctx, Refresh, State{PageSize: p.m.PageSize()})

	first, err := p.local(ctx, 0, p.m.PageSize())
	if err != nil {
		return err
	}
	p.reset(first)
	if res.IsError() {
		return res.Err
	}
	p.end = res.EndOfPaginationReached
	return nil
}

// LoadMore extends the window by one page, from the cache when it holds
// the page and from the backend otherwise.
func (p *Pager[T]) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.end {
		return nil
	}

	size := p.m.PageSize()
	offset := len(p.items)

	cached, err := p.local(ctx, offset, size)
	if err != nil {
		return err
	}
	if len(cached) == size {
		p.append(cached)
		return nil
	}

	res := p.m.Load(ctx, Append, State{Pages: offset / size, PageSize: size})
	if res.IsError() {
		p.append(cached)
		return res.Err
	}

	cached, err = p.local(ctx, offset, size)
	if err != nil {
		return err
	}
	p.append(cached)
	p.end = res.EndOfPaginationReached
	return nil
}

// Items returns a copy of the window.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager[T]) EndReached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.end
}

func (p *Pager[T]) reset(first []T) {
	p.items = nil
	p.seen = make(map[string]struct{}, len(first))
	p.end = false
	p.append(first)
}

func (p *Pager[T]) append(items []T) {
	for _, it := range items {
		id := it.Meta().IDRemote
		if _, ok := p.seen[id]; ok {
			continue
		}
		p.seen[id] = struct{}{}
		p.items = append(p.items, it)
	}
}
