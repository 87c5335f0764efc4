package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PushStats counts the outcome of one push.
type PushStats struct {
	Inserted  int
	Updated   int
	Deleted   int
	Conflicts int
	// Pulled counts conflicts the backend won.
	Pulled int
	Errors int
}

func (s *carService) PushPending(ctx context.Context) error {
	_, err := s.Push(ctx)
	return err
}

// Push walks PENDING, CONFLICT and DELETED cars in update order. A car that
// fails keeps its status and is retried by the next push; the remaining cars
// are still pushed and the failures are returned joined.
func (s *carService) Push(ctx context.Context) (PushStats, error) {
	ctx, span := s.tracer.Start(ctx, spanPush)
	defer span.End()

	var stats PushStats

	pending, err := s.cars.GetAllPending(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reading pending cars failed")
		return stats, fmt.Errorf("failed to read pending cars: %w", err)
	}

	var errs []error
	for i := range pending {
		c := &pending[i]
		if err := s.pushOne(ctx, c, &stats); err != nil {
			stats.Errors++
			errs = append(errs, fmt.Errorf("car %s: %w", c.IDRemote, err))
			if ctx.Err() != nil {
				s.logger.Debug(ctx, "car push cancelled", "id", c.IDRemote)
				break
			}
			s.logger.Warn(ctx, "car push failed", "id", c.IDRemote, "status", string(c.SyncStatus), "error", err)
		}
	}

	s.record(ctx, stats)
	span.SetAttributes(
		attribute.Int("push.pending", len(pending)),
		attribute.Int("push.inserted", stats.Inserted),
		attribute.Int("push.updated", stats.Updated),
		attribute.Int("push.deleted", stats.Deleted),
		attribute.Int("push.conflicts", stats.Conflicts),
		attribute.Int("push.errors", stats.Errors),
	)

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some cars were not pushed")
		return stats, err
	}

	if err := s.meta.SetTime(ctx, common.MetadataLastPushAt, s.now()); err != nil {
		s.logger.Warn(ctx, "failed to store last push time", "error", err)
	}
	if len(pending) > 0 {
		s.logger.Info(ctx, "pushed local changes", "cars", len(pending), "conflicts", stats.Conflicts)
	}
	return stats, nil
}

func (s *carService) LastPush(ctx context.Context) (time.Time, error) {
	return s.meta.GetTime(ctx, common.MetadataLastPushAt)
}

func (s *carService) record(ctx context.Context, stats PushStats) {
	if n := stats.Inserted + stats.Updated; n > 0 {
		s.cntPushed.Add(ctx, int64(n))
	}
	if stats.Deleted > 0 {
		s.cntDeleted.Add(ctx, int64(stats.Deleted))
	}
	if stats.Conflicts > 0 {
		s.cntConflicts.Add(ctx, int64(stats.Conflicts))
	}
	if stats.Errors > 0 {
		s.cntErrors.Add(ctx, int64(stats.Errors))
	}
}

func (s *carService) pushOne(ctx context.Context, c *models.Car, stats *PushStats) error {
	now := s.now()

	if c.SyncStatus == models.SyncStatusDeleted || c.IsDeleted {
		if err := s.remote.Delete(ctx, c.IDRemote); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if err := s.cars.Purge(ctx, c.IDRemote); err != nil {
			return err
		}
		stats.Deleted++
		return nil
	}

	remote, err := s.remote.Fetch(ctx, c.IDRemote)
	switch {
	case errors.Is(err, common.ErrNotFound):
		if err := s.remote.Insert(ctx, c); err != nil {
			return err
		}
		stats.Inserted++

	case err != nil:
		return err

	case diverged(c, remote):
		stats.Conflicts++
		if err := s.cars.MarkConflict(ctx, c.IDRemote); err != nil {
			return err
		}
		if remote.UpdatedAt.After(c.UpdatedAt) {
			s.logger.Info(ctx, "conflict resolved in favor of the backend", "id", c.IDRemote)
			remote.MarkSynced(now)
			if err := s.cars.Save(ctx, remote); err != nil {
				return err
			}
			stats.Pulled++
			return nil
		}
		s.logger.Info(ctx, "conflict resolved in favor of the local edit", "id", c.IDRemote)
		if err := s.remote.Update(ctx, c); err != nil {
			return err
		}
		stats.Updated++

	default:
		if err := s.remote.Update(ctx, c); err != nil {
			return err
		}
		stats.Updated++
	}

	if err := s.pushImages(ctx, c.IDRemote, now); err != nil {
		return err
	}
	err = s.cars.MarkSynced(ctx, c.IDRemote, c.UpdatedAt, now)
	if errors.Is(err, common.ErrStale) {
		s.logger.Debug(ctx, "car edited during push, left queued", "id", c.IDRemote)
		return nil
	}
	return err
}

// diverged reports whether the backend copy changed since the local row was
// last synced. Identical content never counts as a conflict.
func diverged(local, remote *models.Car) bool {
	if local.SameContent(*remote) {
		return false
	}
	if local.LastSyncedAt == nil {
		return true
	}
	return remote.UpdatedAt.After(*local.LastSyncedAt)
}

// pushImages inserts image rows the backend has not seen. The parent car
// must exist remotely.
func (s *carService) pushImages(ctx context.Context, carID string, now time.Time) error {
	imgs, err := s.cars.GetImages(ctx, carID)
	if err != nil {
		return err
	}
	for _, img := range imgs {
		if !img.NeedsPush() {
			continue
		}
		if err := s.images.Insert(ctx, img); err != nil && !errors.Is(err, common.ErrAlreadyExists) {
			return fmt.Errorf("image %s: %w", img.IDRemote, err)
		}
		err := s.cars.MarkImageSynced(ctx, img.IDRemote, img.UpdatedAt, now)
		if err != nil && !errors.Is(err, common.ErrStale) {
			return err
		}
	}
	return nil
}
