// Package cli provides the interactive Wheel Vault command-line client.
//
// It wires configuration, the local cache, backend services and an
// interactive REPL that keeps working offline. Typical flow: restore or
// ask for an access token, start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - Login / Logout with a backend-issued access token
//   - Browse the collection page by page, favorites and per-brand counts
//   - Add cars with photos, edit flags, delete
//   - Brand catalog, video news feed, trades
//   - Sync queued changes with the backend
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
