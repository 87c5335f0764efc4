package common

import "time"

// Metadata keys kept in the local cache metadata table.
const (
	MetadataAccessToken = "access_token"
	MetadataLastPushAt  = "last_push_at"
)

// How long synced rows count as fresh, per family.
const (
	DefaultCarTTL   = 30 * time.Minute
	DefaultBrandTTL = 24 * time.Hour
	DefaultNewsTTL  = time.Hour
)
