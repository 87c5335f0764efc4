// Package images downloads car photos and news thumbnails and keeps their
// bytes in the local cache.
//
// A reference is either an http(s) URL or an object key in the photo
// bucket. Download never fails past its boundary: any error yields nil and
// is logged unless the caller's context was cancelled. Concurrent downloads
// of the same reference share one request and all requests are throttled.
//
// Cached blobs carry a BLAKE2b-256 checksum; a blob whose checksum no longer
// matches is dropped and reported as missing.
package images
