package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"assetflow/asset"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository defines the data access required by the engine. Every method
// runs inside the transaction owned by the calling operation.
type Repository interface {
	GetAsset(ctx context.Context, tx pgx.Tx, id string) (asset.Asset, error)
	AppendTransaction(ctx context.Context, tx pgx.Tx, rec TransactionRecord) (TransactionRecord, error)
	UpdateStatusGuarded(ctx context.Context, tx pgx.Tx, upd StatusUpdate) error
}

// Engine validates and enacts the two custody transitions. It is the sole
// writer of asset status/deadline and the sole producer of ledger records.
type Engine struct {
	pool        TxBeginner
	repo        Repository
	policy      ReturnPolicy
	idGenerator func() string
	now         func() time.Time
}

// NewEngine wires the engine. A nil policy falls back to the default
// fixed horizon.
func NewEngine(pool TxBeginner, repo Repository, policy ReturnPolicy) *Engine {
	if policy == nil {
		policy = FixedHorizon{Days: DefaultHorizonDays}
	}
	return &Engine{
		pool:        pool,
		repo:        repo,
		policy:      policy,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (e *Engine) WithIDGenerator(gen func() string) *Engine {
	e.idGenerator = gen
	return e
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Assign grants custody of an available asset to the assignee. The ledger
// append and the guarded status update commit in a single transaction.
func (e *Engine) Assign(ctx context.Context, params AssignParams) (TransactionRecord, error) {
	if params.AssetID == "" {
		return TransactionRecord{}, fmt.Errorf("%w: missing asset id", ErrInvalidInput)
	}
	if params.AssigneeID == "" {
		return TransactionRecord{}, fmt.Errorf("%w: missing assignee id", ErrInvalidInput)
	}
	if params.ActorID == "" {
		return TransactionRecord{}, fmt.Errorf("%w: missing actor id", ErrInvalidInput)
	}
	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = e.now()
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("lifecycle: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := e.repo.GetAsset(ctx, tx, params.AssetID)
	if err != nil {
		return TransactionRecord{}, err
	}
	if !asset.ActionAssign.Allows(a.Status) {
		return TransactionRecord{}, &InvalidTransitionError{Action: asset.ActionAssign, Current: a.Status}
	}

	deadline := e.policy.Deadline(occurredAt)

	rec, err := e.repo.AppendTransaction(ctx, tx, TransactionRecord{
		ID:         e.idGenerator(),
		AssetID:    a.ID,
		AssigneeID: params.AssigneeID,
		ActorID:    params.ActorID,
		Action:     asset.ActionAssign,
		OccurredAt: occurredAt,
		Note:       params.Note,
	})
	if err != nil {
		return TransactionRecord{}, err
	}

	assignee := params.AssigneeID
	if err := e.repo.UpdateStatusGuarded(ctx, tx, StatusUpdate{
		AssetID:        a.ID,
		ExpectedStatus: a.Status,
		NewStatus:      asset.ActionAssign.Target(),
		CustodianID:    &assignee,
		ReturnDeadline: &deadline,
	}); err != nil {
		return TransactionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionRecord{}, fmt.Errorf("lifecycle: commit assign: %w", err)
	}

	return rec, nil
}

// Return reverts custody of an in-use asset to the available pool and
// clears its return deadline.
func (e *Engine) Return(ctx context.Context, params ReturnParams) (TransactionRecord, error) {
	if params.AssetID == "" {
		return TransactionRecord{}, fmt.Errorf("%w: missing asset id", ErrInvalidInput)
	}
	if params.ActorID == "" {
		return TransactionRecord{}, fmt.Errorf("%w: missing actor id", ErrInvalidInput)
	}
	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = e.now()
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("lifecycle: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := e.repo.GetAsset(ctx, tx, params.AssetID)
	if err != nil {
		return TransactionRecord{}, err
	}
	if !asset.ActionReturn.Allows(a.Status) {
		return TransactionRecord{}, &InvalidTransitionError{Action: asset.ActionReturn, Current: a.Status}
	}
	if a.CustodianID == nil || *a.CustodianID == "" {
		return TransactionRecord{}, fmt.Errorf("lifecycle: asset %s in use without custodian", a.ID)
	}

	rec, err := e.repo.AppendTransaction(ctx, tx, TransactionRecord{
		ID:         e.idGenerator(),
		AssetID:    a.ID,
		AssigneeID: *a.CustodianID,
		ActorID:    params.ActorID,
		Action:     asset.ActionReturn,
		OccurredAt: occurredAt,
		Note:       params.Note,
	})
	if err != nil {
		return TransactionRecord{}, err
	}

	if err := e.repo.UpdateStatusGuarded(ctx, tx, StatusUpdate{
		AssetID:        a.ID,
		ExpectedStatus: a.Status,
		NewStatus:      asset.ActionReturn.Target(),
		CustodianID:    nil,
		ReturnDeadline: nil,
	}); err != nil {
		return TransactionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionRecord{}, fmt.Errorf("lifecycle: commit return: %w", err)
	}

	return rec, nil
}
