package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/config"
	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/paging"
	"github.com/dmitrijs2005/wheelvault/internal/client/remote"
	"github.com/dmitrijs2005/wheelvault/internal/client/services"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func synced(id string) models.SyncMeta {
	at := testNow
	return models.SyncMeta{IDRemote: id, UpdatedAt: testNow, SyncStatus: models.SyncStatusSynced, LastSyncedAt: &at}
}

// memSource is a backend list plus its cache, both in memory.
type memSource[T models.Syncable] struct {
	remote []T
	cache  []T
	pushes int
}

func (s *memSource[T]) PushPending(context.Context) error {
	s.pushes++
	return nil
}

func (s *memSource[T]) FetchRemotePage(_ context.Context, page, size int) ([]T, error) {
	return window(s.remote, page*size, size), nil
}

func (s *memSource[T]) SavePage(_ context.Context, items []T, clear bool) error {
	if clear {
		s.cache = nil
	}
	s.cache = append(s.cache, items...)
	return nil
}

func (s *memSource[T]) local(_ context.Context, offset, limit int) ([]T, error) {
	return window(s.cache, offset, limit), nil
}

func (s *memSource[T]) pager() *paging.Pager[T] {
	m := paging.NewMediator[T](s, paging.Config{
		PageSize: 2,
		TTL:      time.Hour,
		Order:    paging.Descending,
		Clock:    func() time.Time { return testNow },
	}, logging.NewNopLogger())
	return paging.NewPager(m, s.local)
}

func window[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := min(offset+limit, len(all))
	out := make([]T, end-offset)
	copy(out, all[offset:end])
	return out
}

type fakeSession struct {
	tokens    map[string]string
	pingErr   error
	pings     int
	migrated  bool
	signedOut bool
	closed    bool
}

func (f *fakeSession) SignIn(_ context.Context, token string) (*remote.Session, error) {
	if token == "expired" {
		return nil, common.ErrTokenExpired
	}
	uid, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrInvalidToken
	}
	return &remote.Session{Token: token, UserID: uid}, nil
}

func (f *fakeSession) SignOut(context.Context) error { f.signedOut = true; return nil }
func (f *fakeSession) Ping(context.Context) error    { f.pings++; return f.pingErr }
func (f *fakeSession) Migrate(context.Context) error { f.migrated = true; return nil }
func (f *fakeSession) Close() error                  { f.closed = true; return nil }

// fakeCars implements the CarService methods the commands use.
type fakeCars struct {
	services.CarService

	src    *memSource[models.Car]
	byID   map[string]models.Car
	images map[string][]models.CarImage
	photo  []byte
	counts map[string]int

	added       []models.Car
	addedPhotos [][][]byte
	deleted     []string
	pushes      int
	pushStats   services.PushStats
	pushErr     error
	lastPush    time.Time
	searched    string
}

func newFakeCars(remote ...models.Car) *fakeCars {
	f := &fakeCars{
		src:    &memSource[models.Car]{remote: remote},
		byID:   map[string]models.Car{},
		images: map[string][]models.CarImage{},
		counts: map[string]int{},
	}
	for _, c := range remote {
		f.byID[c.IDRemote] = c
	}
	return f
}

func (f *fakeCars) Pager() *paging.Pager[models.Car] { return f.src.pager() }

func (f *fakeCars) Get(_ context.Context, id string, _ bool) (*models.Car, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCars) Images(_ context.Context, carID string, _ bool) ([]models.CarImage, error) {
	return f.images[carID], nil
}

func (f *fakeCars) Photo(context.Context, string) ([]byte, error) { return f.photo, nil }

func (f *fakeCars) Favorites(context.Context, bool) ([]models.Car, error) {
	var out []models.Car
	for _, c := range f.src.remote {
		if f.byID[c.IDRemote].IsFavorite {
			out = append(out, f.byID[c.IDRemote])
		}
	}
	return out, nil
}

func (f *fakeCars) ToggleFavorite(_ context.Context, id string) (*models.Car, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c.IsFavorite = !c.IsFavorite
	f.byID[id] = c
	return &c, nil
}

func (f *fakeCars) SetTradeAvailability(_ context.Context, id string, v bool) (*models.Car, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c.AvailableForTrade = v
	f.byID[id] = c
	return &c, nil
}

func (f *fakeCars) CountByBrand(context.Context, bool) (map[string]int, error) {
	return f.counts, nil
}

func (f *fakeCars) Add(_ context.Context, car models.Car, photos [][]byte) (*models.Car, error) {
	if err := car.Validate(testNow); err != nil {
		return nil, err
	}
	car.SyncMeta = synced("new-car")
	f.added = append(f.added, car)
	f.addedPhotos = append(f.addedPhotos, photos)
	return &car, nil
}

func (f *fakeCars) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCars) Search(_ context.Context, q string) ([]models.Car, error) {
	f.searched = q
	var out []models.Car
	for _, c := range f.src.remote {
		if strings.Contains(strings.ToLower(c.Model), strings.ToLower(q)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCars) Push(context.Context) (services.PushStats, error) {
	f.pushes++
	return f.pushStats, f.pushErr
}

func (f *fakeCars) PushPending(context.Context) error {
	f.pushes++
	return f.pushErr
}

func (f *fakeCars) LastPush(context.Context) (time.Time, error) { return f.lastPush, nil }

type fakeBrands struct {
	services.BrandService
	brands []models.Brand
	forced []bool
}

func (f *fakeBrands) List(_ context.Context, force bool) ([]models.Brand, error) {
	f.forced = append(f.forced, force)
	return f.brands, nil
}

type fakeNews struct {
	services.NewsService
	src *memSource[models.News]
}

func (f *fakeNews) Pager() *paging.Pager[models.News] { return f.src.pager() }

type fakeTrades struct {
	trades    []models.Trade
	market    []models.Car
	proposed  []string
	responses map[string]bool
}

func (f *fakeTrades) Propose(_ context.Context, offered, requested, msg string) (string, error) {
	f.proposed = append(f.proposed, offered, requested, msg)
	return "t-1", nil
}

func (f *fakeTrades) Respond(_ context.Context, id string, accept bool) error {
	if f.responses == nil {
		f.responses = map[string]bool{}
	}
	f.responses[id] = accept
	return nil
}

func (f *fakeTrades) List(context.Context) ([]models.Trade, error)         { return f.trades, nil }
func (f *fakeTrades) TradeableCars(context.Context) ([]models.Car, error) { return f.market, nil }

type testApp struct {
	*App
	session *fakeSession
	cars    *fakeCars
	brands  *fakeBrands
	news    *fakeNews
	trades  *fakeTrades
	out     *bytes.Buffer
}

// newTestApp returns a signed-in, online App reading input from lines.
func newTestApp(t *testing.T, cars *fakeCars, lines ...string) *testApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	ta := &testApp{
		session: &fakeSession{tokens: map[string]string{"good": "u-1"}},
		cars:    cars,
		brands:  &fakeBrands{},
		news:    &fakeNews{src: &memSource[models.News]{}},
		trades:  &fakeTrades{},
		out:     &bytes.Buffer{},
	}
	ta.App = newApp(cfg, ta.session, ta.brands, ta.cars, ta.news, ta.trades, logging.NewNopLogger())
	ta.App.out = ta.out
	ta.App.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	ta.App.userName = "u-1"
	ta.App.mode = ModeOnline
	return ta
}

func car(id, model string) models.Car {
	return models.Car{SyncMeta: synced(id), BrandID: "b1", Model: model, Year: 1969, Quantity: 1}
}
