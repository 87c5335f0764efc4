// Package cars is the local cache of the user's collection and car photos.
//
// # Data Model
//
// Each car row carries sync metadata (see models.SyncMeta). Local edits set
// the row PENDING; soft deletes set DELETED and hide the row from every fetch
// query until the remote delete is confirmed and the row is purged. Car
// images reference cars.id_remote and are removed with their car (ON DELETE
// CASCADE, foreign keys must be enabled on the connection).
//
// Write-backs of remote data go through UpsertSynced, which never overwrites
// a row holding unpushed local changes. Save writes unconditionally and is
// used for local edits and for applying a remote winner after a conflict.
//
// At most one image per car is primary. SetPrimaryImage clears and sets the
// flag inside one transaction; there is no database constraint for it.
package cars
