package models

import "time"

// News is a curated video article.
type News struct {
	SyncMeta

	Title        string
	Summary      string
	VideoURL     string
	ThumbnailURL string
	PublishedAt  time.Time
}

func (n News) Meta() SyncMeta { return n.SyncMeta }
