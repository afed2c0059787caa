package mediaasset

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/snappy-sync/internal/domain"
)

var ErrNotFound = errors.New("media asset not found")

//go:generate go run go.uber.org/mock/mockgen -source=mediaasset.go -destination=mocks/mock.go
type Repository interface {
	// Create records an asset, or refreshes url and status when public_id is known
	Create(ctx context.Context, asset domain.MediaAsset) error

	// MarkStatus moves an asset to status
	MarkStatus(ctx context.Context, publicID string, status domain.MediaStatus) error

	// ListByStatus returns up to limit assets in status, oldest first
	ListByStatus(ctx context.Context, status domain.MediaStatus, limit int) ([]domain.MediaAsset, error)

	// CleanupOldRecords deletes assets in status not updated for olderThan
	CleanupOldRecords(ctx context.Context, status domain.MediaStatus, olderThan time.Duration) (int64, error)
}
