package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/common"
)

// Car is one entry of the user's collection.
type Car struct {
	SyncMeta

	OwnerID           string
	BrandID           string
	Model             string
	Year              int
	Manufacturer      string
	Category          string
	Description       string
	Quantity          int
	IsFavorite        bool
	AvailableForTrade bool

	// PrimaryImageKey is the object key of the primary photo, if any.
	PrimaryImageKey string
}

func (c Car) Meta() SyncMeta { return c.SyncMeta }

const minCarYear = 1900

// Validate checks user-provided fields before a car is stored.
func (c Car) Validate(now time.Time) error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", common.ErrInvalidEntity)
	}
	if c.BrandID == "" {
		return fmt.Errorf("%w: brand is required", common.ErrInvalidEntity)
	}
	if c.Year != 0 && (c.Year < minCarYear || c.Year > now.Year()+1) {
		return fmt.Errorf("%w: year %d out of range", common.ErrInvalidEntity, c.Year)
	}
	if c.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", common.ErrInvalidEntity)
	}
	return nil
}

// SameContent compares the user-visible fields of two cars.
func (c Car) SameContent(o Car) bool {
	return c.BrandID == o.BrandID &&
		c.Model == o.Model &&
		c.Year == o.Year &&
		c.Manufacturer == o.Manufacturer &&
		c.Category == o.Category &&
		c.Description == o.Description &&
		c.Quantity == o.Quantity &&
		c.IsFavorite == o.IsFavorite &&
		c.AvailableForTrade == o.AvailableForTrade
}

// CarImage is a photo of a car. It is owned by the car row and removed with it.
type CarImage struct {
	SyncMeta

	CarID      string
	StorageKey string
	IsPrimary  bool
}

func (i CarImage) Meta() SyncMeta { return i.SyncMeta }
