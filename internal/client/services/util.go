package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
)

// Cache keys of downloaded images.
func carPhotoKey(carID string) string { return "car:" + carID }
func imagePhotoKey(imageID string) string { return "image:" + imageID }
func newsThumbKey(newsID string) string { return "news:" + newsID }
func brandLogoKey(brandID string) string { return "brand:" + brandID }

// absent turns a not-found lookup into the nil value the mediator treats
// as a miss.
func absent[T any](v *T, err error) (*T, error) {
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// found converts a nil mediator result back into ErrNotFound.
func found[T any](v *T, err error, what, id string) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%s %s: %w", what, id, common.ErrNotFound)
	}
	return v, nil
}

// logSwallowed logs an error that is not returned to the caller. Cancelled
// work is only logged at debug level.
func logSwallowed(ctx context.Context, logger logging.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		logger.Debug(ctx, msg, args...)
		return
	}
	logger.Warn(ctx, msg, args...)
}
