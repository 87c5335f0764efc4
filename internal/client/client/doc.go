// Package client wires the Wheel Vault client together.
//
// # Overview
//
// The package provides:
//  1. Local persistence bootstrap (InitDatabase, RunMigrations): an SQLite
//     cache with foreign keys and WAL on, a single connection and embedded
//     goose migrations.
//  2. Client, the composition root: backend data sources over pgx, the
//     photo bucket, the image helper, the sync mediator and the services.
//  3. Session handling: SignIn saves the access token in the cache so the
//     next start restores it; SignOut wipes the cache.
//
// # Error Handling
//
// New fails with ErrNoBackend when no backend DSN is configured. Backend
// errors surface as the sentinels of package common.
//
// Concurrency & Contexts
//
// Client is safe for concurrent use. All operations accept context.Context
// and honor cancellation.
package client
