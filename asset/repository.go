package asset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested asset does not exist.
var ErrNotFound = errors.New("asset: not found")

// Repository provides read access to asset rows. All mutations go through
// the lifecycle engine or the admin path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assetColumns = `id, code, name, category_id, status::text, custodian_id, return_deadline, created_at, updated_at`

// GetByID fetches an asset by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetColumns)

	a, err := scanAsset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("asset: query by id: %w", err)
	}
	return a, nil
}

// GetByCode fetches an asset by its stable human-readable code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE code = $1`, assetColumns)

	a, err := scanAsset(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("asset: query by code: %w", err)
	}
	return a, nil
}

// List fetches assets matching the filters ordered by code.
func (r *Repository) List(ctx context.Context, filters Filters) ([]Asset, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.CategoryID != "" {
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, filters.CategoryID)
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM assets%s ORDER BY code ASC LIMIT %d OFFSET %d`,
		assetColumns, whereClause, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("asset: list: %w", err)
	}
	defer rows.Close()

	out := []Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("asset: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("asset: iterate: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM assets" + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("asset: count: %w", err)
	}

	return out, total, nil
}

// ListOverdue returns in-use assets whose return deadline has passed.
// Rows without a custodian are skipped; there is nobody to notify.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]Asset, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM assets
		WHERE status = 'in_use'
		  AND return_deadline IS NOT NULL
		  AND return_deadline < $1
		  AND custodian_id IS NOT NULL
		ORDER BY return_deadline ASC
	`, assetColumns)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("asset: list overdue: %w", err)
	}
	defer rows.Close()

	out := []Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("asset: scan overdue: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("asset: iterate overdue: %w", err)
	}
	return out, nil
}

func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
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
