package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetflow/asset"
)

// PGRepository implements Repository backed by PostgreSQL. It is stateless;
// every call operates on the transaction passed in by the engine.
type PGRepository struct{}

func NewRepository() *PGRepository {
	return &PGRepository{}
}

// GetAsset reads the asset row without locking it. Concurrency is handled
// by the guarded update, not by row locks.
func (r *PGRepository) GetAsset(ctx context.Context, tx pgx.Tx, id string) (asset.Asset, error) {
	const query = `
		SELECT id, code, name, category_id, status::text, custodian_id, return_deadline, created_at, updated_at
		FROM assets
		WHERE id = $1
	`

	var a asset.Asset
	err := tx.QueryRow(ctx, query, id).Scan(
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
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return asset.Asset{}, ErrNotFound
		}
		return asset.Asset{}, fmt.Errorf("lifecycle: get asset: %w", err)
	}
	return a, nil
}

// AppendTransaction inserts an immutable ledger record.
func (r *PGRepository) AppendTransaction(ctx context.Context, tx pgx.Tx, rec TransactionRecord) (TransactionRecord, error) {
	const insertSQL = `
		INSERT INTO asset_transactions (id, asset_id, assignee_id, actor_id, action, occurred_at, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, asset_id, assignee_id, actor_id, action::text, occurred_at, note, created_at
	`

	var out TransactionRecord
	err := tx.QueryRow(ctx, insertSQL,
		rec.ID,
		rec.AssetID,
		rec.AssigneeID,
		rec.ActorID,
		rec.Action,
		rec.OccurredAt,
		rec.Note,
	).Scan(
		&out.ID,
		&out.AssetID,
		&out.AssigneeID,
		&out.ActorID,
		&out.Action,
		&out.OccurredAt,
		&out.Note,
		&out.CreatedAt,
	)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("lifecycle: append transaction: %w", err)
	}
	return out, nil
}

// UpdateStatusGuarded performs the conditional status write. The WHERE
// clause carries the previously-read status; zero affected rows means
// either the asset vanished or another writer got there first.
func (r *PGRepository) UpdateStatusGuarded(ctx context.Context, tx pgx.Tx, upd StatusUpdate) error {
	const updateSQL = `
		UPDATE assets
		SET status = $3,
		    custodian_id = $4,
		    return_deadline = $5,
		    updated_at = now()
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, updateSQL,
		upd.AssetID,
		upd.ExpectedStatus,
		upd.NewStatus,
		upd.CustodianID,
		upd.ReturnDeadline,
	)
	if err != nil {
		return fmt.Errorf("lifecycle: update status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assets WHERE id = $1)`, upd.AssetID).Scan(&exists); err != nil {
		return fmt.Errorf("lifecycle: recheck asset: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// Ledger provides read access to the append-only transaction history.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// ListTransactions returns the ledger for one asset in insertion order.
func (l *Ledger) ListTransactions(ctx context.Context, assetID string) ([]TransactionRecord, error) {
	const query = `
		SELECT id, asset_id, assignee_id, actor_id, action::text, occurred_at, note, created_at
		FROM asset_transactions
		WHERE asset_id = $1
		ORDER BY seq ASC
	`

	rows, err := l.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: list transactions: %w", err)
	}
	defer rows.Close()

	out := []TransactionRecord{}
	for rows.Next() {
		var rec TransactionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.AssetID,
			&rec.AssigneeID,
			&rec.ActorID,
			&rec.Action,
			&rec.OccurredAt,
			&rec.Note,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("lifecycle: scan transaction: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lifecycle: iterate transactions: %w", err)
	}
	return out, nil
}
