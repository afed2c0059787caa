package syncerimpl

import (
	"context"
	"errors"
	"fmt"

	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/media"
	"github.com/orgball2608/snappy-sync/internal/repositories/mediaasset"
	"github.com/orgball2608/snappy-sync/pkg/retry"
)

const sweepBatch = 50

// record writes a ledger row. Ledger failures never fail the mutation.
func (s *Impl) record(ctx context.Context, key media.Key, url string, kind domain.MediaKind, owner string, status domain.MediaStatus) {
	now := s.clock.Now()
	err := s.ledger.Create(ctx, domain.MediaAsset{
		PublicID:     key.PublicID(),
		URL:          url,
		ResourceType: string(resourceTypeOf(key)),
		Kind:         kind,
		Owner:        owner,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.logger.Warn("Failed to record media asset", "public_id", key.PublicID(), "status", status, "error", err)
	}
}

func (s *Impl) mark(ctx context.Context, key media.Key, status domain.MediaStatus) {
	err := s.ledger.MarkStatus(ctx, key.PublicID(), status)
	if errors.Is(err, mediaasset.ErrNotFound) {
		s.logger.Debug("Media asset not in ledger", "public_id", key.PublicID())
		return
	}
	if err != nil {
		s.logger.Warn("Failed to update media asset", "public_id", key.PublicID(), "status", status, "error", err)
	}
}

func resourceTypeOf(key media.Key) media.ResourceType {
	if key.ResourceType == "" {
		return media.Image
	}
	return key.ResourceType
}

// SweepOrphanedMedia destroys uploads whose record registration failed.
func (s *Impl) SweepOrphanedMedia(ctx context.Context) (int, error) {
	assets, err := s.ledger.ListByStatus(ctx, domain.MediaOrphaned, sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list orphaned media: %w", err)
	}
	if len(assets) == 0 {
		s.logger.Debug("No orphaned media to sweep")
		return 0, nil
	}

	swept := 0
	for _, asset := range assets {
		if ctx.Err() != nil {
			return swept, ctx.Err()
		}

		key, err := media.ParseKey(asset.PublicID, media.ResourceType(asset.ResourceType))
		if err != nil {
			s.logger.Error("Skipping unparseable media asset", "public_id", asset.PublicID, "error", err)
			continue
		}

		var ok bool
		err = retry.Do(ctx, s.logger, "sweep "+key.PublicID(), func() error {
			var derr error
			ok, derr = s.media.Delete(ctx, key)
			return derr
		}, s.sweep)
		if err != nil {
			s.logger.Error("Failed to delete orphaned media", "public_id", key.PublicID(), "error", err)
			continue
		}
		if !ok {
			s.logger.Warn("Media store did not confirm delete, treating asset as gone", "public_id", key.PublicID())
		}

		s.mark(ctx, key, domain.MediaDeleted)
		swept++
	}

	s.logger.Info("Orphaned media sweep completed", "found", len(assets), "deleted", swept)
	return swept, nil
}
