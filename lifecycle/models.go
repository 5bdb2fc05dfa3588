package lifecycle

import (
	"time"

	"assetflow/asset"
)

// TransactionRecord captures one immutable custody event for an asset.
// The ledger is append-only; records are never mutated or deleted.
type TransactionRecord struct {
	ID         string
	AssetID    string
	AssigneeID string
	ActorID    string
	Action     asset.Action
	OccurredAt time.Time
	Note       *string
	CreatedAt  time.Time
}

// AssignParams are the inputs for granting custody of an asset.
type AssignParams struct {
	AssetID    string
	AssigneeID string
	ActorID    string
	OccurredAt time.Time
	Note       *string
}

// ReturnParams are the inputs for reverting custody to the available pool.
// The assignee is taken from the asset's current custodian, not the caller.
type ReturnParams struct {
	AssetID    string
	ActorID    string
	OccurredAt time.Time
	Note       *string
}

// StatusUpdate enumerates the fields of the guarded asset write executed
// inside the operation's transaction.
type StatusUpdate struct {
	AssetID        string
	ExpectedStatus asset.Status
	NewStatus      asset.Status
	CustodianID    *string
	ReturnDeadline *time.Time
}
