package mediaasset

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/snappy-sync/internal/domain"
	"github.com/orgball2608/snappy-sync/internal/repositories"
	"github.com/orgball2608/snappy-sync/pkg/logger"
)

const table = "media_assets"

var columns = []string{"public_id", "url", "resource_type", "kind", "owner", "status", "created_at", "updated_at"}

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
	now    func() time.Time
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("MediaAssetRepo"),
		now:    time.Now,
	}
}

var _ Repository = (*Pgx)(nil)

// Create upserts on public_id so a re-upload to the same key reuses its row
func (p *Pgx) Create(ctx context.Context, asset domain.MediaAsset) error {
	query, args, err := insertQuery(asset, p.now())
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := p.pg.Exec(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

func insertQuery(asset domain.MediaAsset, now time.Time) (string, []any, error) {
	if asset.Status == "" {
		asset.Status = domain.MediaPending
	}
	if asset.ResourceType == "" {
		asset.ResourceType = "image"
	}

	return repositories.SqBuilder.
		Insert(table).
		Columns(columns...).
		Values(asset.PublicID, asset.URL, asset.ResourceType, string(asset.Kind), asset.Owner, string(asset.Status), now, now).
		Suffix("ON CONFLICT (public_id) DO UPDATE SET url = EXCLUDED.url, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at").
		ToSql()
}

func (p *Pgx) MarkStatus(ctx context.Context, publicID string, status domain.MediaStatus) error {
	query, args, err := markStatusQuery(publicID, status, p.now())
	if err != nil {
		return repositories.ErrBadQuery
	}

	tag, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func markStatusQuery(publicID string, status domain.MediaStatus, now time.Time) (string, []any, error) {
	return repositories.SqBuilder.
		Update(table).
		Set("status", string(status)).
		Set("updated_at", now).
		Where(sq.Eq{"public_id": publicID}).
		ToSql()
}

func (p *Pgx) ListByStatus(ctx context.Context, status domain.MediaStatus, limit int) ([]domain.MediaAsset, error) {
	query, args, err := listByStatusQuery(status, limit)
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.MediaAsset
	for rows.Next() {
		var (
			a            domain.MediaAsset
			kind, status string
		)
		if err := rows.Scan(&a.PublicID, &a.URL, &a.ResourceType, &kind, &a.Owner, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.MediaKind(kind)
		a.Status = domain.MediaStatus(status)
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assets, nil
}

func listByStatusQuery(status domain.MediaStatus, limit int) (string, []any, error) {
	b := repositories.SqBuilder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"status": string(status)}).
		OrderBy("updated_at ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b.ToSql()
}

// CleanupOldRecords deletes records in status older than the specified duration
func (p *Pgx) CleanupOldRecords(ctx context.Context, status domain.MediaStatus, olderThan time.Duration) (int64, error) {
	query, args, err := cleanupQuery(status, p.now().Add(-olderThan))
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	p.logger.Debug("Cleaned up media assets", "status", status, "rows", result.RowsAffected())
	return result.RowsAffected(), nil
}

func cleanupQuery(status domain.MediaStatus, cutoff time.Time) (string, []any, error) {
	return repositories.SqBuilder.
		Delete(table).
		Where(sq.Eq{"status": string(status)}).
		Where(sq.Lt{"updated_at": cutoff}).
		ToSql()
}
