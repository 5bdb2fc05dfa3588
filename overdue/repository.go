package overdue

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLog implements NotificationLog backed by PostgreSQL. The scanner is the
// sole writer of this table.
type PGLog struct {
	pool *pgxpool.Pool
}

func NewLog(pool *pgxpool.Pool) *PGLog {
	return &PGLog{pool: pool}
}

// HasRecent reports whether the asset/recipient pair was already notified
// at or after the given instant.
func (l *PGLog) HasRecent(ctx context.Context, assetID, recipientID string, since time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM notification_log
			WHERE asset_id = $1 AND recipient_id = $2 AND sent_at >= $3
		)
	`

	var exists bool
	if err := l.pool.QueryRow(ctx, query, assetID, recipientID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("overdue: dedup lookup: %w", err)
	}
	return exists, nil
}

// Record appends one delivered-notice entry.
func (l *PGLog) Record(ctx context.Context, entry LogEntry) error {
	const insertSQL = `
		INSERT INTO notification_log (asset_id, recipient_id, sent_at)
		VALUES ($1, $2, $3)
	`

	if _, err := l.pool.Exec(ctx, insertSQL, entry.AssetID, entry.RecipientID, entry.SentAt); err != nil {
		return fmt.Errorf("overdue: record notification: %w", err)
	}
	return nil
}
