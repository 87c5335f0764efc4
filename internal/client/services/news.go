package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/paging"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/news"
	"github.com/dmitrijs2005/wheelvault/internal/client/syncmed"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
)

// NewsService reads the curated video feed.
type NewsService interface {
	List(ctx context.Context, force bool) ([]models.News, error)
	Get(ctx context.Context, id string, force bool) (*models.News, error)
	// Thumbnail returns the cached thumbnail of an article, or nil.
	Thumbnail(ctx context.Context, id string) ([]byte, error)
	Pager() *paging.Pager[models.News]
}

type newsService struct {
	med      *syncmed.Mediator
	repo     news.Repository
	remote   NewsRemote
	photos   PhotoStore
	pageSize int
	ttl      time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewNewsService(med *syncmed.Mediator, repo news.Repository, remote NewsRemote, photos PhotoStore,
	pageSize int, ttl time.Duration, logger logging.Logger) NewsService {
	return &newsService{med: med, repo: repo, remote: remote, photos: photos,
		pageSize: pageSize, ttl: ttl, logger: logger, now: time.Now}
}

func (s *newsService) List(ctx context.Context, force bool) ([]models.News, error) {
	return syncmed.FetchList(ctx, s.med, force, syncmed.Ops[[]models.News]{
		Name:   "news",
		Local:  s.repo.GetAll,
		Remote: s.remote.FetchAll,
		Save:   s.save,
	})
}

func (s *newsService) Get(ctx context.Context, id string, force bool) (*models.News, error) {
	n, err := syncmed.Fetch(ctx, s.med, force, syncmed.Ops[*models.News]{
		Name: "news_item",
		Local: func(ctx context.Context) (*models.News, error) {
			return absent(s.repo.GetByID(ctx, id))
		},
		Remote: func(ctx context.Context) (*models.News, error) {
			return absent(s.remote.Fetch(ctx, id))
		},
		Save: func(ctx context.Context, n *models.News) error {
			return s.save(ctx, []models.News{*n})
		},
	})
	return found(n, err, "news", id)
}

func (s *newsService) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	return s.photos.Load(ctx, newsThumbKey(id))
}

// save stores articles as SYNCED and caches their thumbnails. Thumbnails
// that fail to download are skipped.
func (s *newsService) save(ctx context.Context, list []models.News) error {
	now := s.now()
	synced := make([]models.News, len(list))
	thumbs := make(map[string]string)
	for i, n := range list {
		n.MarkSynced(now)
		synced[i] = n
		if n.ThumbnailURL != "" {
			thumbs[newsThumbKey(n.IDRemote)] = n.ThumbnailURL
		}
	}
	if err := s.repo.UpsertAll(ctx, synced); err != nil {
		return err
	}
	if len(thumbs) > 0 {
		s.photos.FetchAndCache(ctx, thumbs)
	}
	return nil
}

func (s *newsService) Pager() *paging.Pager[models.News] {
	m := paging.NewMediator[models.News](newsPagingSource{s}, paging.Config{
		PageSize: s.pageSize,
		TTL:      s.ttl,
		Order:    paging.Descending,
		Clock:    s.now,
	}, s.logger)
	return paging.NewPager(m, s.repo.Page)
}

// newsPagingSource pages the feed by publication date, newest first. The
// feed is read-only, so there is nothing to push.
type newsPagingSource struct {
	s *newsService
}

func (newsPagingSource) PushPending(context.Context) error { return nil }

func (p newsPagingSource) FetchRemotePage(ctx context.Context, page, size int) ([]models.News, error) {
	return p.s.remote.FetchPage(ctx, page, size)
}

func (p newsPagingSource) SavePage(ctx context.Context, items []models.News, clear bool) error {
	if clear {
		if err := p.s.repo.Clear(ctx); err != nil {
			return err
		}
	}
	return p.s.save(ctx, items)
}
