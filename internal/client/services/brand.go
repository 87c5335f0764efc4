package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/brands"
	"github.com/dmitrijs2005/wheelvault/internal/client/syncmed"
)

// BrandService reads the shared brand catalog.
type BrandService interface {
	List(ctx context.Context, force bool) ([]models.Brand, error)
	// Get returns common.ErrNotFound when neither the cache nor the backend
	// knows the brand.
	Get(ctx context.Context, id string, force bool) (*models.Brand, error)
	// Search queries the backend only.
	Search(ctx context.Context, query string) ([]models.Brand, error)
	// Stale reports whether the cached catalog is older than the brand TTL.
	Stale(ctx context.Context) (bool, error)
}

type brandService struct {
	med    *syncmed.Mediator
	repo   brands.Repository
	remote BrandRemote
	photos PhotoStore
	ttl    time.Duration
	now    func() time.Time
}

func NewBrandService(med *syncmed.Mediator, repo brands.Repository, remote BrandRemote, photos PhotoStore, ttl time.Duration) BrandService {
	return &brandService{med: med, repo: repo, remote: remote, photos: photos, ttl: ttl, now: time.Now}
}

func (s *brandService) List(ctx context.Context, force bool) ([]models.Brand, error) {
	return syncmed.FetchList(ctx, s.med, force, syncmed.Ops[[]models.Brand]{
		Name:   "brands",
		Local:  s.repo.GetAll,
		Remote: s.remote.FetchAll,
		Save:   s.save,
	})
}

func (s *brandService) Get(ctx context.Context, id string, force bool) (*models.Brand, error) {
	b, err := syncmed.Fetch(ctx, s.med, force, syncmed.Ops[*models.Brand]{
		Name: "brand",
		Local: func(ctx context.Context) (*models.Brand, error) {
			return absent(s.repo.GetByID(ctx, id))
		},
		Remote: func(ctx context.Context) (*models.Brand, error) {
			return absent(s.remote.Fetch(ctx, id))
		},
		Save: func(ctx context.Context, b *models.Brand) error {
			return s.save(ctx, []models.Brand{*b})
		},
	})
	return found(b, err, "brand", id)
}

func (s *brandService) Search(ctx context.Context, query string) ([]models.Brand, error) {
	return s.remote.Search(ctx, query)
}

func (s *brandService) Stale(ctx context.Context) (bool, error) {
	cached, err := s.repo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	if len(cached) == 0 {
		return true, nil
	}
	now := s.now()
	for _, b := range cached {
		if b.IsStale(now, s.ttl) {
			return true, nil
		}
	}
	return false, nil
}

func (s *brandService) save(ctx context.Context, list []models.Brand) error {
	now := s.now()
	synced := make([]models.Brand, len(list))
	for i, b := range list {
		b.MarkSynced(now)
		synced[i] = b
	}
	if err := s.repo.UpsertAll(ctx, synced); err != nil {
		return err
	}

	logos := make(map[string]string)
	for _, b := range synced {
		if b.LogoURL != "" {
			logos[brandLogoKey(b.IDRemote)] = b.LogoURL
		}
	}
	if len(logos) > 0 {
		s.photos.FetchAndCache(ctx, logos)
	}
	return nil
}
