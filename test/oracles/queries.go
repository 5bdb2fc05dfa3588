package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariant checks. Each query selects violating rows;
// an empty result means the invariant holds. Every query runs in a
// single snapshot, and every custody transition commits its ledger row
// and status write together, so these must hold at any instant.
func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_ledger_alternates",
			SQL: `WITH ordered AS (
                      SELECT asset_id, seq, action,
                             LAG(action) OVER (PARTITION BY asset_id ORDER BY seq) AS prev
                      FROM asset_transactions)
                  SELECT asset_id, seq, action FROM ordered
                  WHERE (prev IS NULL AND action <> 'assign')
                     OR (prev IS NOT NULL AND action = prev)`,
		},
		{
			Name: "O2_status_matches_ledger",
			SQL: `WITH last AS (
                      SELECT DISTINCT ON (asset_id) asset_id, action
                      FROM asset_transactions
                      ORDER BY asset_id, seq DESC)
                  SELECT a.id, a.status, l.action
                  FROM assets a JOIN last l ON l.asset_id = a.id
                  WHERE (l.action = 'assign') <> (a.status = 'in_use')`,
		},
		{
			Name: "O3_in_use_without_ledger",
			SQL: `SELECT a.id FROM assets a
                  WHERE a.status = 'in_use'
                    AND NOT EXISTS (SELECT 1 FROM asset_transactions t WHERE t.asset_id = a.id)`,
		},
		{
			Name: "O4_custody_shape",
			SQL: `SELECT id, status FROM assets
                  WHERE (status = 'in_use') <> (custodian_id IS NOT NULL AND return_deadline IS NOT NULL)`,
		},
		{
			Name: "O5_custodian_is_last_assignee",
			SQL: `WITH last AS (
                      SELECT DISTINCT ON (asset_id) asset_id, assignee_id
                      FROM asset_transactions
                      ORDER BY asset_id, seq DESC)
                  SELECT a.id FROM assets a JOIN last l ON l.asset_id = a.id
                  WHERE a.status = 'in_use' AND a.custodian_id <> l.assignee_id`,
		},
		{
			Name: "O6_notice_dedup_window",
			SQL: `SELECT n1.asset_id, n1.recipient_id, n1.sent_at, n2.sent_at
                  FROM notification_log n1
                  JOIN notification_log n2
                    ON n1.asset_id = n2.asset_id
                   AND n1.recipient_id = n2.recipient_id
                   AND n1.id < n2.id
                  WHERE n2.sent_at - n1.sent_at < interval '24 hours'`,
		},
		{
			Name: "O7_notice_has_matching_assign",
			SQL: `SELECT n.id, n.asset_id, n.recipient_id FROM notification_log n
                  WHERE NOT EXISTS (
                      SELECT 1 FROM asset_transactions t
                      WHERE t.asset_id = n.asset_id
                        AND t.assignee_id = n.recipient_id
                        AND t.action = 'assign')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
