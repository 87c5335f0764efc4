package remote

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func signedIn(uid string) *Auth {
	a := NewAuth(nil)
	a.session = &Session{UserID: uid}
	return a
}

var carCols = []string{"id", "owner_id", "brand_id", "model", "year", "manufacturer", "category",
	"description", "quantity", "is_favorite", "available_for_trade", "primary_image_key", "updated_at"}

func TestBrandSource_FetchAllAndSearch(t *testing.T) {
	db, mock := newMock(t)
	src := NewBrandSource(db)

	cols := []string{"id", "name", "country", "logo_url", "founded_year", "updated_at"}
	mock.ExpectQuery(`SELECT id, name, .* FROM brands ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("b1", "Hot Wheels", "US", "", 1968, ts).
			AddRow("b2", "Tomica", "JP", "", 1970, ts))

	got, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].IDRemote)
	assert.Equal(t, 1968, got[0].FoundedYear)
	assert.True(t, ts.Equal(got[1].UpdatedAt))

	mock.ExpectQuery(`FROM brands WHERE name ILIKE \$1 OR country ILIKE \$1`).
		WithArgs("%jp%").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("b2", "Tomica", "JP", "", 1970, ts))

	found, err := src.Search(context.Background(), "jp")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestBrandSource_FetchMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM brands WHERE id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := NewBrandSource(db).Fetch(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCarSource_RequiresSession(t *testing.T) {
	db, _ := newMock(t)
	src := NewCarSource(db, NewAuth(nil))

	_, err := src.FetchAll(context.Background())
	require.ErrorIs(t, err, common.ErrNoSession)
	require.ErrorIs(t, src.Insert(context.Background(), &models.Car{}), common.ErrNoSession)
}

func TestCarSource_FetchPage(t *testing.T) {
	db, mock := newMock(t)
	src := NewCarSource(db, signedIn("u1"))

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE owner_id = $1 ORDER BY updated_at DESC, id LIMIT $2 OFFSET $3`)).
		WithArgs("u1", 20, 40).
		WillReturnRows(sqlmock.NewRows(carCols).
			AddRow("c1", "u1", "b1", "Twin Mill", 1969, "Mattel", "fantasy", "", 1, true, false, "", ts))

	got, err := src.FetchPage(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Twin Mill", got[0].Model)
	assert.True(t, got[0].IsFavorite)
	assert.Equal(t, "u1", got[0].OwnerID)
}

func TestCarSource_SearchAndTradeable(t *testing.T) {
	db, mock := newMock(t)
	src := NewCarSource(db, signedIn("u1"))

	mock.ExpectQuery(regexp.QuoteMeta(`search @@ plainto_tsquery('simple', $2)`)).
		WithArgs("u1", "skyline").
		WillReturnRows(sqlmock.NewRows(carCols))

	got, err := src.Search(context.Background(), "skyline")
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE owner_id <> $1 AND available_for_trade`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(carCols).
			AddRow("c9", "u2", "b1", "Bone Shaker", 2006, "Mattel", "", "", 1, false, true, "", ts))

	trade, err := src.FetchTradeable(context.Background())
	require.NoError(t, err)
	require.Len(t, trade, 1)
	assert.Equal(t, "u2", trade[0].OwnerID)
}

func TestCarSource_CountByBrand(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT brand_id, COUNT\(\*\) FROM cars WHERE owner_id = \$1 GROUP BY brand_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"brand_id", "count"}).AddRow("b1", 3).AddRow("b2", 1))

	got, err := NewCarSource(db, signedIn("u1")).CountByBrand(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b1": 3, "b2": 1}, got)
}

func TestCarSource_InsertUpdateDelete(t *testing.T) {
	db, mock := newMock(t)
	src := NewCarSource(db, signedIn("u1"))
	ctx := context.Background()

	c := &models.Car{BrandID: "b1", Model: "Twin Mill", Quantity: 1}
	c.IDRemote = "c1"
	c.UpdatedAt = ts

	mock.ExpectExec(`INSERT INTO cars`).
		WithArgs("c1", "u1", "b1", "Twin Mill", 0, "", "", "", 1, false, false, "", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, src.Insert(ctx, c))
	assert.Equal(t, "u1", c.OwnerID)

	mock.ExpectExec(`INSERT INTO cars`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, src.Insert(ctx, c), common.ErrAlreadyExists)

	mock.ExpectExec(`UPDATE cars SET .* WHERE id = \$1 AND owner_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, src.Update(ctx, c), common.ErrNotFound)

	mock.ExpectExec(`DELETE FROM cars WHERE id = \$1 AND owner_id = \$2`).
		WithArgs("c1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, src.Delete(ctx, "c1"))
}

func TestCarSource_ConnectionFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM cars`).WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	_, err := NewCarSource(db, signedIn("u1")).FetchAll(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestImageSource_SetPrimary(t *testing.T) {
	db, mock := newMock(t)
	src := NewImageSource(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE car_images SET is_primary = false WHERE car_id = \$1`).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE car_images SET is_primary = true`).
		WithArgs("c1", "i2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, src.SetPrimary(context.Background(), "c1", "i2"))
}

func TestImageSource_SetPrimaryUnknownRollsBack(t *testing.T) {
	db, mock := newMock(t)
	src := NewImageSource(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE car_images SET is_primary = false`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE car_images SET is_primary = true`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.ErrorIs(t, src.SetPrimary(context.Background(), "c1", "x"), common.ErrNotFound)
}

func TestImageSource_FetchByCar(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM car_images WHERE car_id = \$1`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "car_id", "storage_key", "is_primary", "updated_at"}).
			AddRow("i1", "c1", "cars/c1/i1.jpg", true, ts))

	got, err := NewImageSource(db).FetchByCar(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cars/c1/i1.jpg", got[0].StorageKey)
}

func TestNewsSource_FetchPage(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM news ORDER BY published_at DESC LIMIT \$1 OFFSET \$2`).WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "summary", "video_url", "thumbnail_url", "published_at", "updated_at"}).
			AddRow("n1", "Treasure Hunts 2025", "", "https://v/1", "https://t/1.jpg", ts, ts))

	got, err := NewNewsSource(db).FetchPage(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://t/1.jpg", got[0].ThumbnailURL)
}

func TestTradeSource_ProposeRespondList(t *testing.T) {
	db, mock := newMock(t)
	src := NewTradeSource(db, signedIn("u1"))
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT propose_trade($1, $2, $3, $4)`)).
		WithArgs("u1", "c1", "c9", "swap?").
		WillReturnRows(sqlmock.NewRows([]string{"propose_trade"}).AddRow("t1"))
	id, err := src.Propose(ctx, "c1", "c9", "swap?")
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT respond_to_trade($1, $2, $3)`)).
		WithArgs("t2", "u1", true).
		WillReturnError(&pgconn.PgError{Code: "P0002", Message: "no pending trade"})
	require.ErrorIs(t, src.Respond(ctx, "t2", true), common.ErrNotFound)

	mock.ExpectQuery(`FROM trades WHERE proposer_id = \$1 OR receiver_id = \$1`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "proposer_id", "receiver_id", "offered_car_id",
			"requested_car_id", "message", "status", "created_at", "updated_at"}).
			AddRow("t1", "u1", "u2", "c1", "c9", "swap?", "pending", ts, ts))
	list, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.TradeStatusPending, list[0].Status)
}

func TestBackend_PingMapsErrors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	b := NewBackend(db, NewAuth(nil))
	mock.ExpectPing().WillReturnError(errors.New("dial tcp: connection refused"))
	require.Error(t, b.Ping(context.Background()))

	mock.ExpectPing()
	require.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
