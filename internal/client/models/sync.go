// Package models defines the client-side entities of Wheel Vault and the
// synchronization metadata every cached row carries.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tells whether a cached row matches its remote counterpart.
type SyncStatus string

const (
	// SyncStatusSynced: the row matches remote as of LastSyncedAt.
	SyncStatusSynced SyncStatus = "SYNCED"
	// SyncStatusPending: the row carries local changes not pushed yet.
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusConflict: remote changed after LastSyncedAt while the row was pending.
	SyncStatusConflict SyncStatus = "CONFLICT"
	// SyncStatusDeleted: the row is queued for remote deletion.
	SyncStatusDeleted SyncStatus = "DELETED"
)

func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusSynced, SyncStatusPending, SyncStatusConflict, SyncStatusDeleted:
		return true
	}
	return false
}

// SyncMeta is embedded in every cached entity.
type SyncMeta struct {
	// LocalID is the cache storage key. It never leaves the cache layer.
	LocalID int64

	// IDRemote ties the row to the remote record. Set once, never reassigned.
	IDRemote string

	// UpdatedAt is the last local or remote modification time.
	UpdatedAt time.Time

	SyncStatus SyncStatus

	// LastSyncedAt is the last time the row was confirmed consistent with remote.
	LastSyncedAt *time.Time

	// IsDeleted hides the row from fetch queries until the remote delete is confirmed.
	IsDeleted bool
}

// NewSyncMeta returns metadata for a record created locally and not yet pushed.
func NewSyncMeta(now time.Time) SyncMeta {
	return SyncMeta{
		IDRemote:   uuid.NewString(),
		UpdatedAt:  now.UTC(),
		SyncStatus: SyncStatusPending,
	}
}

// MarkSynced records a confirmed sync at now. LastSyncedAt never precedes
// UpdatedAt, so a remote timestamp from a skewed clock cannot make a fresh
// row look unsynced.
func (m *SyncMeta) MarkSynced(now time.Time) {
	ts := now.UTC()
	if ts.Before(m.UpdatedAt) {
		ts = m.UpdatedAt
	}
	m.SyncStatus = SyncStatusSynced
	m.LastSyncedAt = &ts
}

// MarkPending records a local edit. UpdatedAt always moves forward by at
// least a millisecond, the cache's timestamp resolution, so every edit is
// a new row version.
func (m *SyncMeta) MarkPending(now time.Time) {
	m.UpdatedAt = nextVersion(m.UpdatedAt, now)
	if m.SyncStatus != SyncStatusDeleted {
		m.SyncStatus = SyncStatusPending
	}
}

// MarkDeleted soft-deletes the row and queues the remote delete.
func (m *SyncMeta) MarkDeleted(now time.Time) {
	m.UpdatedAt = nextVersion(m.UpdatedAt, now)
	m.IsDeleted = true
	m.SyncStatus = SyncStatusDeleted
}

func nextVersion(prev, now time.Time) time.Time {
	ts := now.UTC()
	if prev.IsZero() || ts.Truncate(time.Millisecond).After(prev.Truncate(time.Millisecond)) {
		return ts
	}
	return prev.Truncate(time.Millisecond).Add(time.Millisecond)
}

func (m *SyncMeta) MarkConflict() {
	m.SyncStatus = SyncStatusConflict
}

// NeedsPush reports whether the row has local state the remote has not seen.
func (m SyncMeta) NeedsPush() bool {
	switch m.SyncStatus {
	case SyncStatusPending, SyncStatusConflict, SyncStatusDeleted:
		return true
	}
	return false
}

// IsStale reports whether the row was last synced more than ttl before now.
// A row that was never synced is always stale.
func (m SyncMeta) IsStale(now time.Time, ttl time.Duration) bool {
	if m.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*m.LastSyncedAt) > ttl
}

// Syncable is implemented by every cached entity.
type Syncable interface {
	Meta() SyncMeta
}
