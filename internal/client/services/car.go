package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/paging"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/cars"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wheelvault/internal/client/syncmed"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// CarService manages the user's collection.
type CarService interface {
	List(ctx context.Context, force bool) ([]models.Car, error)
	// Get returns common.ErrNotFound when the car is unknown.
	Get(ctx context.Context, id string, force bool) (*models.Car, error)
	ListByBrand(ctx context.Context, brandID string, force bool) ([]models.Car, error)
	Favorites(ctx context.Context, force bool) ([]models.Car, error)
	CountByBrand(ctx context.Context, force bool) (map[string]int, error)
	Images(ctx context.Context, carID string, force bool) ([]models.CarImage, error)
	// Photo returns the cached primary photo of a car, downloading it when
	// it is not cached yet. It returns nil when the car has no photo.
	Photo(ctx context.Context, carID string) ([]byte, error)

	Search(ctx context.Context, query string) ([]models.Car, error)
	ByManufacturer(ctx context.Context, manufacturer string) ([]models.Car, error)
	ByCategory(ctx context.Context, category string) ([]models.Car, error)

	Add(ctx context.Context, car models.Car, photos [][]byte) (*models.Car, error)
	Update(ctx context.Context, car models.Car) (*models.Car, error)
	ToggleFavorite(ctx context.Context, id string) (*models.Car, error)
	SetTradeAvailability(ctx context.Context, id string, available bool) (*models.Car, error)
	Delete(ctx context.Context, id string) error
	SetPrimaryImage(ctx context.Context, carID, imageID string) error
	Exists(ctx context.Context, id string) (bool, error)

	// Push sends every queued local change to the backend.
	Push(ctx context.Context) (PushStats, error)
	PushPending(ctx context.Context) error
	// LastPush returns the time of the last push without errors, or the
	// zero time.
	LastPush(ctx context.Context) (time.Time, error)

	Pager() *paging.Pager[models.Car]
}

type CarConfig struct {
	PageSize int
	TTL      time.Duration
}

const (
	otelScope = "wheelvault/services"
	spanPush  = "cars.push"

	metricPushed    = "wheelvault.cars.pushed"
	metricDeleted   = "wheelvault.cars.deleted"
	metricConflicts = "wheelvault.cars.conflicts"
	metricErrors    = "wheelvault.cars.push.errors"
)

type carService struct {
	med    *syncmed.Mediator
	cars   cars.Repository
	meta   metadata.Repository
	remote CarRemote
	images ImageRemote
	photos PhotoStore
	cfg    CarConfig
	logger logging.Logger
	now    func() time.Time

	tracer       trace.Tracer
	cntPushed    metric.Int64Counter
	cntDeleted   metric.Int64Counter
	cntConflicts metric.Int64Counter
	cntErrors    metric.Int64Counter
}

func NewCarService(med *syncmed.Mediator, repo cars.Repository, meta metadata.Repository,
	remote CarRemote, images ImageRemote, photos PhotoStore, cfg CarConfig, logger logging.Logger) CarService {
	return newCarService(med, repo, meta, remote, images, photos, cfg, logger)
}

func newCarService(med *syncmed.Mediator, repo cars.Repository, meta metadata.Repository,
	remote CarRemote, images ImageRemote, photos PhotoStore, cfg CarConfig, logger logging.Logger) *carService {
	meter := otel.Meter(otelScope)
	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error(context.Background(), "creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = paging.DefaultPageSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = common.DefaultCarTTL
	}

	return &carService{
		med:    med,
		cars:   repo,
		meta:   meta,
		remote: remote,
		images: images,
		photos: photos,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,

		tracer:       otel.Tracer(otelScope),
		cntPushed:    mustCounter(metricPushed, "Cars inserted or updated on the backend"),
		cntDeleted:   mustCounter(metricDeleted, "Cars deleted on the backend"),
		cntConflicts: mustCounter(metricConflicts, "Cars that changed on both sides since the last sync"),
		cntErrors:    mustCounter(metricErrors, "Cars that could not be pushed"),
	}
}

func (s *carService) list(name string, local, remote func(context.Context) ([]models.Car, error)) syncmed.Ops[[]models.Car] {
	return syncmed.Ops[[]models.Car]{Name: name, Local: local, Remote: remote, Save: s.saveCars}
}

func (s *carService) List(ctx context.Context, force bool) ([]models.Car, error) {
	return syncmed.FetchList(ctx, s.med, force, s.list("cars", s.cars.GetAll, s.remote.FetchAll))
}

func (s *carService) Get(ctx context.Context, id string, force bool) (*models.Car, error) {
	c, err := syncmed.Fetch(ctx, s.med, force, syncmed.Ops[*models.Car]{
		Name: "car",
		Local: func(ctx context.Context) (*models.Car, error) {
			return absent(s.cars.GetByID(ctx, id))
		},
		Remote: func(ctx context.Context) (*models.Car, error) {
			return absent(s.remote.Fetch(ctx, id))
		},
		Save: func(ctx context.Context, c *models.Car) error {
			return s.saveCars(ctx, []models.Car{*c})
		},
	})
	return found(c, err, "car", id)
}

func (s *carService) ListByBrand(ctx context.Context, brandID string, force bool) ([]models.Car, error) {
	return syncmed.FetchList(ctx, s.med, force, s.list("cars_by_brand",
		func(ctx context.Context) ([]models.Car, error) { return s.cars.GetByBrand(ctx, brandID) },
		func(ctx context.Context) ([]models.Car, error) { return s.remote.FetchByBrand(ctx, brandID) },
	))
}

func (s *carService) Favorites(ctx context.Context, force bool) ([]models.Car, error) {
	return syncmed.FetchList(ctx, s.med, force, s.list("favorites", s.cars.GetFavorites, s.remote.FetchFavorites))
}

// CountByBrand has no write-back: counts are derived from cached rows.
func (s *carService) CountByBrand(ctx context.Context, force bool) (map[string]int, error) {
	return syncmed.FetchMap(ctx, s.med, force, syncmed.Ops[map[string]int]{
		Name:   "counts_by_brand",
		Local:  s.cars.CountByBrand,
		Remote: s.remote.CountByBrand,
	})
}

func (s *carService) Images(ctx context.Context, carID string, force bool) ([]models.CarImage, error) {
	return syncmed.FetchList(ctx, s.med, force, syncmed.Ops[[]models.CarImage]{
		Name: "car_images",
		Local: func(ctx context.Context) ([]models.CarImage, error) {
			return s.cars.GetImages(ctx, carID)
		},
		Remote: func(ctx context.Context) ([]models.CarImage, error) {
			return s.images.FetchByCar(ctx, carID)
		},
		Save: s.saveImages,
	})
}

func (s *carService) Photo(ctx context.Context, carID string) ([]byte, error) {
	key := carPhotoKey(carID)
	data, err := s.photos.Load(ctx, key)
	if err != nil || data != nil {
		return data, err
	}

	c, err := s.cars.GetByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if c.PrimaryImageKey == "" {
		return nil, nil
	}
	s.photos.FetchAndCache(ctx, map[string]string{key: c.PrimaryImageKey})
	return s.photos.Load(ctx, key)
}

func (s *carService) Search(ctx context.Context, query string) ([]models.Car, error) {
	return s.remote.Search(ctx, query)
}

func (s *carService) ByManufacturer(ctx context.Context, manufacturer string) ([]models.Car, error) {
	return s.remote.FetchByManufacturer(ctx, manufacturer)
}

func (s *carService) ByCategory(ctx context.Context, category string) ([]models.Car, error) {
	return s.remote.FetchByCategory(ctx, category)
}

// saveCars writes fetched cars as SYNCED and caches their primary photos.
func (s *carService) saveCars(ctx context.Context, list []models.Car) error {
	return s.storeCars(ctx, list, false)
}

// storeCars caches list as SYNCED rows. With replace set, every other
// SYNCED row is dropped in the same transaction.
func (s *carService) storeCars(ctx context.Context, list []models.Car, replace bool) error {
	now := s.now()
	synced := make([]models.Car, len(list))
	for i, c := range list {
		c.MarkSynced(now)
		synced[i] = c
	}
	store := s.cars.UpsertSynced
	if replace {
		store = s.cars.ReplaceSynced
	}
	if err := store(ctx, synced); err != nil {
		return err
	}

	refs := make(map[string]string)
	for _, c := range synced {
		if c.PrimaryImageKey != "" {
			refs[carPhotoKey(c.IDRemote)] = c.PrimaryImageKey
		}
	}
	if len(refs) > 0 {
		s.photos.FetchAndCache(ctx, refs)
	}
	return nil
}

func (s *carService) saveImages(ctx context.Context, list []models.CarImage) error {
	now := s.now()
	synced := make([]models.CarImage, len(list))
	refs := make(map[string]string, len(list))
	for i, img := range list {
		img.MarkSynced(now)
		synced[i] = img
		refs[imagePhotoKey(img.IDRemote)] = img.StorageKey
	}
	if err := s.cars.UpsertImages(ctx, synced); err != nil {
		return err
	}
	s.photos.FetchAndCache(ctx, refs)
	return nil
}

// Add stores a new car locally, uploads its photos and tries to push it.
// Photos that fail to upload are left out; the first stored one becomes
// the primary photo.
func (s *carService) Add(ctx context.Context, car models.Car, photos [][]byte) (*models.Car, error) {
	now := s.now()
	if err := car.Validate(now); err != nil {
		return nil, err
	}
	car.SyncMeta = models.NewSyncMeta(now)

	var imgs []models.CarImage
	if len(photos) > 0 {
		keys := s.photos.UploadAll(ctx, car.IDRemote, photos)
		if len(keys) < len(photos) {
			s.logger.Warn(ctx, "some photos were not uploaded", "car", car.IDRemote,
				"stored", len(keys), "total", len(photos))
		}
		for i, key := range keys {
			img := models.CarImage{CarID: car.IDRemote, StorageKey: key, IsPrimary: i == 0}
			img.SyncMeta = models.NewSyncMeta(now)
			imgs = append(imgs, img)
		}
		if len(keys) > 0 {
			car.PrimaryImageKey = keys[0]
		}
	}

	if err := s.cars.Save(ctx, &car); err != nil {
		return nil, fmt.Errorf("failed to save car: %w", err)
	}
	if len(imgs) > 0 {
		if err := s.cars.UpsertImages(ctx, imgs); err != nil {
			return nil, fmt.Errorf("failed to save car images: %w", err)
		}
	}

	return s.pushAndReload(ctx, car.IDRemote, &car)
}

// Update replaces the user-editable fields of an existing car.
func (s *carService) Update(ctx context.Context, car models.Car) (*models.Car, error) {
	if err := car.Validate(s.now()); err != nil {
		return nil, err
	}
	return s.modify(ctx, car.IDRemote, func(c *models.Car) {
		c.BrandID = car.BrandID
		c.Model = car.Model
		c.Year = car.Year
		c.Manufacturer = car.Manufacturer
		c.Category = car.Category
		c.Description = car.Description
		c.Quantity = car.Quantity
		c.IsFavorite = car.IsFavorite
		c.AvailableForTrade = car.AvailableForTrade
	})
}

func (s *carService) ToggleFavorite(ctx context.Context, id string) (*models.Car, error) {
	return s.modify(ctx, id, func(c *models.Car) { c.IsFavorite = !c.IsFavorite })
}

func (s *carService) SetTradeAvailability(ctx context.Context, id string, available bool) (*models.Car, error) {
	return s.modify(ctx, id, func(c *models.Car) { c.AvailableForTrade = available })
}

func (s *carService) modify(ctx context.Context, id string, edit func(*models.Car)) (*models.Car, error) {
	c, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	edit(c)
	c.MarkPending(s.now())
	if err := s.cars.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save car: %w", err)
	}
	return s.pushAndReload(ctx, id, c)
}

// Delete hides the car at once. The row is purged after the backend
// confirms the delete.
func (s *carService) Delete(ctx context.Context, id string) error {
	if err := s.cars.SoftDelete(ctx, id, s.now()); err != nil {
		return err
	}
	s.pushBestEffort(ctx)
	return nil
}

func (s *carService) SetPrimaryImage(ctx context.Context, carID, imageID string) error {
	if err := s.cars.SetPrimaryImage(ctx, carID, imageID); err != nil {
		return err
	}
	if _, err := s.modify(ctx, carID, func(*models.Car) {}); err != nil {
		return err
	}
	if err := s.images.SetPrimary(ctx, carID, imageID); err != nil {
		logSwallowed(ctx, s.logger, "failed to set primary image remotely", err, "car", carID, "image", imageID)
	}
	return nil
}

// Exists reports whether the car is cached, including rows queued for
// deletion. Duplicate rows cannot happen with a unique id; if they do,
// the car counts as found.
func (s *carService) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.cars.CountByID(ctx, id)
	if err != nil {
		return false, err
	}
	if n > 1 {
		s.logger.Error(ctx, "duplicate cached car", "id", id, "count", n,
			"error", fmt.Errorf("car %s: %w", id, common.ErrIntegrity))
	}
	return n > 0, nil
}

func (s *carService) pushBestEffort(ctx context.Context) {
	if err := s.PushPending(ctx); err != nil {
		logSwallowed(ctx, s.logger, "changes stay queued", err)
	}
}

func (s *carService) pushAndReload(ctx context.Context, id string, fallback *models.Car) (*models.Car, error) {
	s.pushBestEffort(ctx)
	c, err := s.cars.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *carService) Pager() *paging.Pager[models.Car] {
	m := paging.NewMediator[models.Car](carPagingSource{s}, paging.Config{
		PageSize: s.cfg.PageSize,
		TTL:      s.cfg.TTL,
		Order:    paging.Descending,
		Clock:    s.now,
	}, s.logger)
	return paging.NewPager(m, s.cars.Page)
}

// carPagingSource pages the collection by updated_at, newest first.
type carPagingSource struct {
	s *carService
}

func (p carPagingSource) PushPending(ctx context.Context) error {
	return p.s.PushPending(ctx)
}

func (p carPagingSource) FetchRemotePage(ctx context.Context, page, size int) ([]models.Car, error) {
	return p.s.remote.FetchPage(ctx, page, size)
}

func (p carPagingSource) SavePage(ctx context.Context, items []models.Car, clear bool) error {
	return p.s.storeCars(ctx, items, clear)
}
