package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewSyncMeta_PendingWithUUID(t *testing.T) {
	m := NewSyncMeta(t0)

	_, err := uuid.Parse(m.IDRemote)
	require.NoError(t, err)
	require.Equal(t, SyncStatusPending, m.SyncStatus)
	require.Nil(t, m.LastSyncedAt)
	require.Equal(t, t0, m.UpdatedAt)
	require.True(t, m.NeedsPush())
}

func TestMarkSynced_NeverBeforeUpdatedAt(t *testing.T) {
	m := SyncMeta{UpdatedAt: t0.Add(time.Minute)}

	m.MarkSynced(t0)

	require.Equal(t, SyncStatusSynced, m.SyncStatus)
	require.NotNil(t, m.LastSyncedAt)
	require.False(t, m.LastSyncedAt.Before(m.UpdatedAt))

	m.MarkSynced(t0.Add(time.Hour))
	require.Equal(t, t0.Add(time.Hour), *m.LastSyncedAt)
	require.False(t, m.NeedsPush())
}

func TestMarkPending_KeepsDeleted(t *testing.T) {
	m := SyncMeta{SyncStatus: SyncStatusSynced}
	m.MarkPending(t0)
	require.Equal(t, SyncStatusPending, m.SyncStatus)
	require.Equal(t, t0, m.UpdatedAt)

	m.MarkDeleted(t0.Add(time.Second))
	require.True(t, m.IsDeleted)
	require.Equal(t, SyncStatusDeleted, m.SyncStatus)

	m.MarkPending(t0.Add(2 * time.Second))
	require.Equal(t, SyncStatusDeleted, m.SyncStatus)
}

func TestMarkPending_AlwaysAdvancesVersion(t *testing.T) {
	m := SyncMeta{UpdatedAt: t0}

	m.MarkPending(t0)
	require.Equal(t, t0.Add(time.Millisecond), m.UpdatedAt)

	m.MarkPending(t0.Add(-time.Hour))
	require.Equal(t, t0.Add(2*time.Millisecond), m.UpdatedAt)

	m.MarkDeleted(t0.Add(time.Minute))
	require.Equal(t, t0.Add(time.Minute), m.UpdatedAt)
}

func TestIsStale(t *testing.T) {
	ttl := 30 * time.Minute

	require.True(t, SyncMeta{}.IsStale(t0, ttl), "never synced is stale")

	synced := t0.Add(-10 * time.Minute)
	require.False(t, SyncMeta{LastSyncedAt: &synced}.IsStale(t0, ttl))

	old := t0.Add(-31 * time.Minute)
	require.True(t, SyncMeta{LastSyncedAt: &old}.IsStale(t0, ttl))
}

func TestSyncStatus_Valid(t *testing.T) {
	for _, s := range []SyncStatus{SyncStatusSynced, SyncStatusPending, SyncStatusConflict, SyncStatusDeleted} {
		require.True(t, s.Valid(), s)
	}
	require.False(t, SyncStatus("UNKNOWN").Valid())
}

func TestCar_Validate(t *testing.T) {
	ok := Car{Model: "Skyline GT-R", BrandID: "b1", Year: 1999, Quantity: 2}
	require.NoError(t, ok.Validate(t0))

	tests := []struct {
		name string
		car  Car
	}{
		{"missing model", Car{BrandID: "b1"}},
		{"missing brand", Car{Model: "M"}},
		{"ancient", Car{Model: "M", BrandID: "b", Year: 1800}},
		{"future", Car{Model: "M", BrandID: "b", Year: t0.Year() + 5}},
		{"negative quantity", Car{Model: "M", BrandID: "b", Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.car.Validate(t0), common.ErrInvalidEntity)
		})
	}
}

func TestCar_SameContent_IgnoresSyncMeta(t *testing.T) {
	a := Car{Model: "Supra", BrandID: "b", Quantity: 1}
	b := a
	b.SyncMeta = SyncMeta{IDRemote: "x", SyncStatus: SyncStatusPending}
	require.True(t, a.SameContent(b))

	b.IsFavorite = true
	require.False(t, a.SameContent(b))
}
