package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"assetflow/asset"
)

// TestLifecycle_Integration connects to a real PostgreSQL via DATABASE_URL
// and verifies the end-to-end engine + repository behavior including the
// optimistic-concurrency guard.
func TestLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "assets") || !tableExists(ctx, t, pool, "asset_transactions") {
		t.Skip("database schema missing; apply files under migrations/ first")
	}

	var (
		actorID    string
		assigneeID string
		categoryID string
		assetID    string
	)
	suffix := time.Now().UnixNano()

	if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash, role) VALUES ($1, $2, 'x', 'staff') RETURNING id`,
		fmt.Sprintf("keeper+%d@example.com", suffix), "Kim Keeper").Scan(&actorID); err != nil {
		t.Fatalf("seed actor: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash, role) VALUES ($1, $2, 'x', 'employee') RETURNING id`,
		fmt.Sprintf("borrower+%d@example.com", suffix), "Bo Borrower").Scan(&assigneeID); err != nil {
		t.Fatalf("seed assignee: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO asset_categories (name) VALUES ($1) RETURNING id`,
		fmt.Sprintf("Laptops %d", suffix)).Scan(&categoryID); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := pool.QueryRow(ctx, `INSERT INTO assets (code, name, category_id, status) VALUES ($1, 'MacBook 14', $2, 'available') RETURNING id`,
		fmt.Sprintf("LPT-%d", suffix), categoryID).Scan(&assetID); err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM asset_transactions WHERE asset_id = $1`, assetID)
		pool.Exec(ctx2, `DELETE FROM assets WHERE id = $1`, assetID)
		pool.Exec(ctx2, `DELETE FROM asset_categories WHERE id = $1`, categoryID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id IN ($1, $2)`, actorID, assigneeID)
	})

	eng := NewEngine(pool, NewRepository(), FixedHorizon{Days: 7})
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Assign moves the asset to in_use with a 7-day deadline.
	rec, err := eng.Assign(ctx, AssignParams{AssetID: assetID, AssigneeID: assigneeID, ActorID: actorID, OccurredAt: now})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if rec.Action != asset.ActionAssign {
		t.Fatalf("expected assign record, got %s", rec.Action)
	}

	var (
		status    string
		custodian *string
		deadline  *time.Time
	)
	if err := pool.QueryRow(ctx, `SELECT status::text, custodian_id, return_deadline FROM assets WHERE id = $1`, assetID).
		Scan(&status, &custodian, &deadline); err != nil {
		t.Fatalf("verify asset: %v", err)
	}
	if status != "in_use" {
		t.Fatalf("expected in_use, got %q", status)
	}
	if custodian == nil || *custodian != assigneeID {
		t.Fatalf("expected custodian %s, got %v", assigneeID, custodian)
	}
	want := now.Add(7 * 24 * time.Hour)
	if deadline == nil || !deadline.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, deadline)
	}

	// Second assign must fail with an invalid transition naming in_use.
	_, err = eng.Assign(ctx, AssignParams{AssetID: assetID, AssigneeID: actorID, ActorID: actorID, OccurredAt: now})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Return restores the available pool and clears the deadline.
	if _, err := eng.Return(ctx, ReturnParams{AssetID: assetID, ActorID: actorID, OccurredAt: now.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT status::text, custodian_id, return_deadline FROM assets WHERE id = $1`, assetID).
		Scan(&status, &custodian, &deadline); err != nil {
		t.Fatalf("re-verify asset: %v", err)
	}
	if status != "available" || custodian != nil || deadline != nil {
		t.Fatalf("round trip left asset dirty: status=%s custodian=%v deadline=%v", status, custodian, deadline)
	}

	recs, err := NewLedger(pool).ListTransactions(ctx, assetID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(recs) != 2 || recs[0].Action != asset.ActionAssign || recs[1].Action != asset.ActionReturn {
		t.Fatalf("unexpected ledger: %+v", recs)
	}

	// A stale guarded write (expecting in_use) must surface a conflict.
	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)
	err = NewRepository().UpdateStatusGuarded(ctx, tx, StatusUpdate{
		AssetID:        assetID,
		ExpectedStatus: asset.StatusInUse,
		NewStatus:      asset.StatusAvailable,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict from stale guard, got %v", err)
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
