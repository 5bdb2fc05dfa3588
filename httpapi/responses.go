package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"assetflow/admin"
	"assetflow/asset"
	"assetflow/identity"
	"assetflow/lifecycle"
)

type errorResponse struct {
	Error string `json:"error"`
}

type assetResponse struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Name           string     `json:"name"`
	CategoryID     string     `json:"category_id"`
	Status         string     `json:"status"`
	CustodianID    *string    `json:"custodian_id,omitempty"`
	ReturnDeadline *time.Time `json:"return_deadline,omitempty"`
}

type transactionResponse struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	AssigneeID string    `json:"assignee_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	Note       *string   `json:"note,omitempty"`
}

func renderAsset(a asset.Asset) assetResponse {
	return assetResponse{
		ID:             a.ID,
		Code:           a.Code,
		Name:           a.Name,
		CategoryID:     a.CategoryID,
		Status:         string(a.Status),
		CustodianID:    a.CustodianID,
		ReturnDeadline: a.ReturnDeadline,
	}
}

func renderTransaction(rec lifecycle.TransactionRecord) transactionResponse {
	return transactionResponse{
		ID:         rec.ID,
		AssetID:    rec.AssetID,
		AssigneeID: rec.AssigneeID,
		ActorID:    rec.ActorID,
		Action:     string(rec.Action),
		OccurredAt: rec.OccurredAt,
		Note:       rec.Note,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses. Conflicts (409) are
// distinguished from invalid transitions (422) so clients know what is
// retryable.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrNotFound),
		errors.Is(err, asset.ErrNotFound),
		errors.Is(err, admin.ErrNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, admin.ErrBadStatus):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, lifecycle.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, identity.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, identity.ErrDuplicateEmail):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
