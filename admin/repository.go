package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetflow/asset"
)

var (
	ErrNotFound  = errors.New("admin: asset not found")
	ErrBadStatus = errors.New("admin: status does not allow this change")
)

// Repository performs the administrative side-state writes. Like the
// lifecycle engine it guards every update on the expected source statuses,
// so an asset that is checked out can never be pulled into maintenance or
// retirement underneath its custodian.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assetColumns = `id, code, name, category_id, status::text, custodian_id, return_deadline, created_at, updated_at`

// SetStatus moves the asset to next iff its current status is one of the
// allowed sources.
func (r *Repository) SetStatus(ctx context.Context, id string, next asset.Status, allowedFrom ...asset.Status) (asset.Asset, error) {
	query := fmt.Sprintf(`
		UPDATE assets
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)
		RETURNING %s
	`, assetColumns)

	from := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		from[i] = string(s)
	}

	a, err := scanAsset(r.pool.QueryRow(ctx, query, id, next, from))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return asset.Asset{}, fmt.Errorf("admin: set status: %w", err)
	}

	var current string
	if err := r.pool.QueryRow(ctx, `SELECT status::text FROM assets WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return asset.Asset{}, ErrNotFound
		}
		return asset.Asset{}, fmt.Errorf("admin: set status fetch: %w", err)
	}
	return asset.Asset{}, fmt.Errorf("%w: currently %s", ErrBadStatus, current)
}

func scanAsset(row pgx.Row) (asset.Asset, error) {
	var a asset.Asset
	return a, row.Scan(
		&a.ID,
		&a.Code,
		&a.Name,
		&a.CategoryID,
		&a.Status,
		&a.CustodianID,
		&a.ReturnDeadline,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}
