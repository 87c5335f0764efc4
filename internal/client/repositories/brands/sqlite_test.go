package brands

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/migrations"
	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "brands.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func brand(id, name string, synced time.Time) models.Brand {
	b := models.Brand{Name: name, Country: "JP"}
	b.IDRemote = id
	b.UpdatedAt = synced.Add(-time.Hour)
	b.MarkSynced(synced)
	return b
}

func TestUpsertAll_ThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.UpsertAll(ctx, []models.Brand{brand("b2", "Tomica", now), brand("b1", "Hot Wheels", now)}))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Hot Wheels", all[0].Name, "ordered by name")
	require.Equal(t, models.SyncStatusSynced, all[0].SyncStatus)
	require.NotNil(t, all[0].LastSyncedAt)
	require.True(t, now.Equal(*all[0].LastSyncedAt))
	require.NotZero(t, all[0].LocalID)

	got, err := r.GetByID(ctx, "b2")
	require.NoError(t, err)
	require.Equal(t, "Tomica", got.Name)
}

func TestUpsertAll_KeepsLocalIDAndUpdatesFields(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.UpsertAll(ctx, []models.Brand{brand("b1", "Matchbox", now)}))
	before, err := r.GetByID(ctx, "b1")
	require.NoError(t, err)

	renamed := brand("b1", "Matchbox Collectors", now)
	require.NoError(t, r.UpsertAll(ctx, []models.Brand{renamed}))

	after, err := r.GetByID(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, before.LocalID, after.LocalID)
	require.Equal(t, "Matchbox Collectors", after.Name)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestGetByID_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	_, err := r.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearchAndPurge(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.UpsertAll(ctx, []models.Brand{brand("b1", "Hot Wheels", now), brand("b2", "Tomica", now)}))

	found, err := r.Search(ctx, "tom")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "b2", found[0].IDRemote)

	_, err = db.Exec(`UPDATE brands SET is_deleted = 1 WHERE id_remote = 'b1'`)
	require.NoError(t, err)
	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "soft-deleted rows are hidden")

	require.NoError(t, r.Purge(ctx, "b1"))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM brands`).Scan(&n))
	require.Equal(t, 1, n)
}
