// Package syncmed implements the read-through cache policy shared by every
// cache-aware repository method.
//
// A call is described by three operations: Local reads the cache, Remote
// reads the backend and Save writes a remote result back into the cache.
// Fetch, FetchList and FetchMap differ only in what counts as "present":
// a non-nil pointer, a non-empty slice, a non-empty map.
//
//  1. forceRefresh: call Remote, start Save in the background when the
//     result is present, return the remote result.
//  2. Otherwise call Local and return it when present.
//  3. Otherwise call Remote, start Save when present, return the remote
//     result even if it is empty.
//
// Each of Local, Remote and Save runs at most once per call. Callers rely on
// this: Save usually downloads images and must not do it twice.
//
// Save runs detached from the caller. Its errors and panics are logged and
// never reach the caller, so a read that returns remote data says nothing
// about whether the cache has it yet. Local and Remote errors are returned.
//
// There is no cross-call deduplication. Two concurrent misses for the same
// key both reach the backend; write-backs are idempotent upserts.
package syncmed
