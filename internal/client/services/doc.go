// Package services binds the local cache and the backend into per-family
// facades used by the CLI.
//
// Cache-aware reads go through syncmed: a cached value is returned as is, a
// miss falls back to the backend and the result is written back to the
// cache in the background. Methods that only make sense online (full-text
// search, trades) call the backend directly.
//
// Car edits are stored locally as PENDING first and pushed on a best-effort
// basis; rows that could not be pushed stay queued for the next refresh or
// an explicit sync.
package services
