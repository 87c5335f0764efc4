package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/migrations"
	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/brands"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/cars"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wheelvault/internal/client/repositories/news"
	"github.com/dmitrijs2005/wheelvault/internal/client/syncmed"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type harness struct {
	db     *sql.DB
	med    *syncmed.Mediator
	cars   *cars.SQLiteRepository
	brands *brands.SQLiteRepository
	news   *news.SQLiteRepository
	meta   *metadata.SQLiteRepository

	remote *fakeCarRemote
	images *fakeImageRemote
	photos *fakePhotos
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "cache.db") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))

	med := syncmed.New(logging.NewNopLogger())
	t.Cleanup(med.Close)

	return &harness{
		db:     db,
		med:    med,
		cars:   cars.NewSQLiteRepository(db),
		brands: brands.NewSQLiteRepository(db),
		news:   news.NewSQLiteRepository(db),
		meta:   metadata.NewSQLiteRepository(db),
		remote: newFakeCarRemote(),
		images: newFakeImageRemote(),
		photos: newFakePhotos(),
	}
}

func (h *harness) carService() *carService {
	s := newCarService(h.med, h.cars, h.meta, h.remote, h.images, h.photos,
		CarConfig{PageSize: 2, TTL: time.Hour}, logging.NewNopLogger())
	s.now = clock
	return s
}

func remoteCar(id, brandID, model string, updated time.Time) models.Car {
	c := models.Car{OwnerID: "u1", BrandID: brandID, Model: model, Year: 1998, Quantity: 1}
	c.IDRemote = id
	c.UpdatedAt = updated
	return c
}

// fakeCarRemote is an in-memory backend for one signed-in user.
type fakeCarRemote struct {
	mu      sync.Mutex
	cars    map[string]models.Car
	err     error
	failIDs map[string]error
	// onUpdate runs before an update is stored.
	onUpdate func(c models.Car)

	fetchAllCalls int
	inserts       int
	updates       int
	deletes       int
}

func newFakeCarRemote() *fakeCarRemote {
	return &fakeCarRemote{cars: make(map[string]models.Car), failIDs: make(map[string]error)}
}

func (f *fakeCarRemote) put(cs ...models.Car) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cs {
		f.cars[c.IDRemote] = c
	}
}

func (f *fakeCarRemote) get(id string) (models.Car, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cars[id]
	return c, ok
}

func (f *fakeCarRemote) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCarRemote) check(id string) error {
	if f.err != nil {
		return f.err
	}
	return f.failIDs[id]
}

func (f *fakeCarRemote) filter(keep func(models.Car) bool) ([]models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Car
	for _, c := range f.cars {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeCarRemote) FetchAll(context.Context) ([]models.Car, error) {
	f.mu.Lock()
	f.fetchAllCalls++
	f.mu.Unlock()
	return f.filter(func(models.Car) bool { return true })
}

func (f *fakeCarRemote) Fetch(_ context.Context, id string) (*models.Car, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(id); err != nil {
		return nil, err
	}
	c, ok := f.cars[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCarRemote) FetchPage(_ context.Context, page, size int) ([]models.Car, error) {
	all, err := f.filter(func(models.Car) bool { return true })
	if err != nil {
		return nil, err
	}
	from := min(page*size, len(all))
	to := min(from+size, len(all))
	return all[from:to], nil
}

func (f *fakeCarRemote) FetchByBrand(_ context.Context, brandID string) ([]models.Car, error) {
	return f.filter(func(c models.Car) bool { return c.BrandID == brandID })
}

func (f *fakeCarRemote) FetchByManufacturer(_ context.Context, m string) ([]models.Car, error) {
	return f.filter(func(c models.Car) bool { return c.Manufacturer == m })
}

func (f *fakeCarRemote) FetchByCategory(_ context.Context, category string) ([]models.Car, error) {
	return f.filter(func(c models.Car) bool { return c.Category == category })
}

func (f *fakeCarRemote) FetchFavorites(context.Context) ([]models.Car, error) {
	return f.filter(func(c models.Car) bool { return c.IsFavorite })
}

func (f *fakeCarRemote) FetchTradeable(context.Context) ([]models.Car, error) {
	return f.filter(func(c models.Car) bool { return c.AvailableForTrade && c.OwnerID != "u1" })
}

func (f *fakeCarRemote) Search(_ context.Context, q string) ([]models.Car, error) {
	q = strings.ToLower(q)
	return f.filter(func(c models.Car) bool { return strings.Contains(strings.ToLower(c.Model), q) })
}

func (f *fakeCarRemote) CountByBrand(context.Context) (map[string]int, error) {
	all, err := f.filter(func(models.Car) bool { return true })
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, c := range all {
		out[c.BrandID]++
	}
	return out, nil
}

func (f *fakeCarRemote) Insert(_ context.Context, c *models.Car) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(c.IDRemote); err != nil {
		return err
	}
	if _, ok := f.cars[c.IDRemote]; ok {
		return common.ErrAlreadyExists
	}
	c.OwnerID = "u1"
	stored := *c
	stored.SyncMeta = models.SyncMeta{IDRemote: c.IDRemote, UpdatedAt: c.UpdatedAt}
	f.cars[c.IDRemote] = stored
	f.inserts++
	return nil
}

func (f *fakeCarRemote) Update(_ context.Context, c *models.Car) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(c.IDRemote); err != nil {
		return err
	}
	if _, ok := f.cars[c.IDRemote]; !ok {
		return common.ErrNotFound
	}
	if f.onUpdate != nil {
		f.onUpdate(*c)
	}
	stored := *c
	stored.SyncMeta = models.SyncMeta{IDRemote: c.IDRemote, UpdatedAt: c.UpdatedAt}
	f.cars[c.IDRemote] = stored
	f.updates++
	return nil
}

func (f *fakeCarRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check(id); err != nil {
		return err
	}
	if _, ok := f.cars[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.cars, id)
	f.deletes++
	return nil
}

type fakeImageRemote struct {
	mu     sync.Mutex
	images map[string]models.CarImage
	err    error
}

func newFakeImageRemote() *fakeImageRemote {
	return &fakeImageRemote{images: make(map[string]models.CarImage)}
}

func (f *fakeImageRemote) FetchByCar(_ context.Context, carID string) ([]models.CarImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.CarImage
	for _, img := range f.images {
		if img.CarID == carID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StorageKey < out[j].StorageKey })
	return out, nil
}

func (f *fakeImageRemote) Insert(_ context.Context, img models.CarImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.images[img.IDRemote]; ok {
		return common.ErrAlreadyExists
	}
	f.images[img.IDRemote] = img
	return nil
}

func (f *fakeImageRemote) SetPrimary(_ context.Context, carID, imageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for id, img := range f.images {
		if img.CarID == carID {
			img.IsPrimary = id == imageID
			f.images[id] = img
		}
	}
	return nil
}

// fakePhotos stands in for the bucket plus the local image cache.
type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
	cache   map[string][]byte
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: make(map[string][]byte), cache: make(map[string][]byte)}
}

var badPhoto = []byte("bad")

func (f *fakePhotos) UploadAll(_ context.Context, carID string, photos [][]byte) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for i, p := range photos {
		if bytes.Equal(p, badPhoto) {
			continue
		}
		key := fmt.Sprintf("cars/%s/%d.jpg", carID, i)
		f.objects[key] = p
		keys = append(keys, key)
	}
	return keys
}

func (f *fakePhotos) FetchAndCache(_ context.Context, refs map[string]string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cached []string
	for key, ref := range refs {
		if data, ok := f.objects[ref]; ok {
			f.cache[key] = data
			cached = append(cached, key)
		}
	}
	sort.Strings(cached)
	return cached
}

func (f *fakePhotos) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache[key], nil
}

func (f *fakePhotos) cached(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cache[key]
	return ok
}
