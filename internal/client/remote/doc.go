// Package remote is the Wheel Vault backend data source.
//
// The backend is a Postgres database reached through the pgx stdlib driver.
// Row ownership is taken from the signed-in Session (the JWT access token
// issued by the backend); reads and writes of the user's collection are
// scoped to that user id. Trade proposals and responses run as server-side
// functions and are only invoked from here.
//
// # Error Handling
//
// Driver and server errors are mapped to sentinels from internal/common:
//
//   - no rows, or P0002 raised by a server function → common.ErrNotFound
//   - unique violation (23505) → common.ErrAlreadyExists
//   - authorization failures (28000, 28P01, 42501) → common.ErrUnauthorized
//   - connection failures and timeouts → common.ErrUnavailable
//
// Everything else is returned wrapped with %w.
//
// Sources hold no cache and apply no policy; see package syncmed for that.
package remote
