package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"assetflow/admin"
	"assetflow/asset"
	"assetflow/lifecycle"
	"assetflow/notify"
	"assetflow/overdue"
	"assetflow/test/actors"
	"assetflow/test/chaos"
	"assetflow/test/infra"
	"assetflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actor pairs")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

// flakyDispatcher fails a quarter of sends so the retry-next-scan path
// stays exercised under load.
type flakyDispatcher struct{}

func (flakyDispatcher) Send(ctx context.Context, n notify.Notification) error {
	if rand.Intn(4) == 0 {
		return fmt.Errorf("simulated delivery outage for %s", n.AssetCode)
	}
	return nil
}

func TestCustodyConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	seedData := mustSeed(t, ctx, pool)

	logger := slog.New(slog.DiscardHandler)
	policy := lifecycle.FixedHorizon{Days: lifecycle.DefaultHorizonDays}
	engine := lifecycle.NewEngine(pool, lifecycle.NewRepository(), policy)
	adminSvc := admin.NewService(admin.NewRepository(pool))
	scanner := overdue.NewScanner(
		asset.NewRepository(pool),
		overdue.NewLog(pool),
		flakyDispatcher{},
		overdue.DefaultWindow,
		logger,
	)

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error {
			return actors.Assigner(ctx2, engine, seedData.staffID, seedData.assetIDs, seedData.employeeIDs, stop)
		})
		g.Go(func() error {
			return actors.Returner(ctx2, engine, seedData.staffID, seedData.assetIDs, stop)
		})
	}
	g.Go(func() error { return actors.Janitor(ctx2, adminSvc, seedData.assetIDs, stop) })

	// One sweeper only: overlapping scans would race the dedup check.
	lookahead := time.Duration(lifecycle.DefaultHorizonDays+1) * 24 * time.Hour
	g.Go(func() error { return actors.Sweeper(ctx2, scanner, lookahead, stop) })

	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				// Chaos can take out the oracle's own backend.
				t.Logf("oracle retry after: %v", err)
				continue
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	staffID     string
	employeeIDs []string
	assetIDs    []string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	var s seedIDs

	if err := pool.QueryRow(ctx,
		`INSERT INTO users (email, full_name, role) VALUES ($1, $2, 'staff') RETURNING id`,
		fmt.Sprintf("staff%d@example.com", rand.Int63()), "Stress Staff",
	).Scan(&s.staffID); err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	for i := 0; i < 6; i++ {
		var id string
		if err := pool.QueryRow(ctx,
			`INSERT INTO users (email, full_name, role) VALUES ($1, $2, 'employee') RETURNING id`,
			fmt.Sprintf("emp%d-%d@example.com", i, rand.Int63()), fmt.Sprintf("Employee %d", i),
		).Scan(&id); err != nil {
			t.Fatalf("seed employee %d: %v", i, err)
		}
		s.employeeIDs = append(s.employeeIDs, id)
	}

	var categoryID string
	if err := pool.QueryRow(ctx,
		`INSERT INTO asset_categories (name) VALUES ($1) RETURNING id`,
		fmt.Sprintf("Stress Gear %d", rand.Int63()),
	).Scan(&categoryID); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	for i := 0; i < 10; i++ {
		var id string
		if err := pool.QueryRow(ctx,
			`INSERT INTO assets (code, name, category_id) VALUES ($1, $2, $3) RETURNING id`,
			fmt.Sprintf("STR-%03d-%d", i, rand.Int63()), fmt.Sprintf("Stress Asset %d", i), categoryID,
		).Scan(&id); err != nil {
			t.Fatalf("seed asset %d: %v", i, err)
		}
		s.assetIDs = append(s.assetIDs, id)
	}

	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"assets", `SELECT id, code, status, custodian_id, return_deadline FROM assets ORDER BY updated_at DESC LIMIT 50`},
		{"asset_transactions", `SELECT seq, asset_id, assignee_id, action, occurred_at FROM asset_transactions ORDER BY seq DESC LIMIT 50`},
		{"notification_log", `SELECT id, asset_id, recipient_id, sent_at FROM notification_log ORDER BY id DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
