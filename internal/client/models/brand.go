package models

// Brand is a die-cast manufacturer in the shared catalog.
type Brand struct {
	SyncMeta

	Name        string
	Country     string
	LogoURL     string
	FoundedYear int
}

func (b Brand) Meta() SyncMeta { return b.SyncMeta }
