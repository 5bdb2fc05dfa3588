package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"assetflow/asset"
	"assetflow/category"
	"assetflow/identity"
	"assetflow/lifecycle"
	"assetflow/metrics"
	"assetflow/overdue"
)

// Engine is the slice of the lifecycle engine the API consumes.
type Engine interface {
	Assign(ctx context.Context, params lifecycle.AssignParams) (lifecycle.TransactionRecord, error)
	Return(ctx context.Context, params lifecycle.ReturnParams) (lifecycle.TransactionRecord, error)
}

// Scanner triggers one overdue pass on demand.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) (overdue.Report, error)
}

// AssetReader serves asset lookups.
type AssetReader interface {
	GetByID(ctx context.Context, id string) (asset.Asset, error)
	List(ctx context.Context, filters asset.Filters) ([]asset.Asset, int, error)
}

// LedgerReader serves per-asset transaction history.
type LedgerReader interface {
	ListTransactions(ctx context.Context, assetID string) ([]lifecycle.TransactionRecord, error)
}

// AdminService is the administrative side-state path.
type AdminService interface {
	SendToMaintenance(ctx context.Context, assetID string) (asset.Asset, error)
	Retire(ctx context.Context, assetID string) (asset.Asset, error)
	Reinstate(ctx context.Context, assetID string) (asset.Asset, error)
}

// Handlers bundles every HTTP endpoint of the service.
type Handlers struct {
	engine     Engine
	scanner    Scanner
	assets     AssetReader
	ledger     LedgerReader
	admin      AdminService
	categories *category.Service
	accounts   *identity.Service
	logger     *slog.Logger
}

func NewHandlers(
	engine Engine,
	scanner Scanner,
	assets AssetReader,
	ledger LedgerReader,
	adminSvc AdminService,
	categories *category.Service,
	accounts *identity.Service,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		engine:     engine,
		scanner:    scanner,
		assets:     assets,
		ledger:     ledger,
		admin:      adminSvc,
		categories: categories,
		accounts:   accounts,
		logger:     logger,
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"role":      user.Role,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req identity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	result, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":        result.User.ID,
			"email":     result.User.Email,
			"full_name": result.User.FullName,
			"role":      result.User.Role,
		},
	})
}

func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	items, total, err := h.assets.List(r.Context(), asset.Filters{
		Status:     asset.Status(q.Get("status")),
		CategoryID: q.Get("category_id"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]assetResponse, 0, len(items))
	for _, a := range items {
		out = append(out, renderAsset(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.assets.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderAsset(a))
}

func (h *Handlers) GetAssetTransactions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.ledger.ListTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, renderTransaction(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type assignRequest struct {
	AssigneeID string  `json:"assignee_id"`
	Note       *string `json:"note"`
}

func (h *Handlers) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	rec, err := h.engine.Assign(r.Context(), lifecycle.AssignParams{
		AssetID:    chi.URLParam(r, "id"),
		AssigneeID: req.AssigneeID,
		ActorID:    ActorID(r.Context()),
		OccurredAt: time.Now().UTC(),
		Note:       req.Note,
	})
	h.countTransition(asset.ActionAssign, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderTransaction(rec))
}

type returnRequest struct {
	Note *string `json:"note"`
}

func (h *Handlers) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if r.Body != nil {
		// A note is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rec, err := h.engine.Return(r.Context(), lifecycle.ReturnParams{
		AssetID:    chi.URLParam(r, "id"),
		ActorID:    ActorID(r.Context()),
		OccurredAt: time.Now().UTC(),
		Note:       req.Note,
	})
	h.countTransition(asset.ActionReturn, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderTransaction(rec))
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cats, err := h.categories.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats})
}

func (h *Handlers) SendToMaintenance(w http.ResponseWriter, r *http.Request) {
	h.adminStatusChange(w, r, h.admin.SendToMaintenance)
}

func (h *Handlers) Retire(w http.ResponseWriter, r *http.Request) {
	h.adminStatusChange(w, r, h.admin.Retire)
}

func (h *Handlers) Reinstate(w http.ResponseWriter, r *http.Request) {
	h.adminStatusChange(w, r, h.admin.Reinstate)
}

func (h *Handlers) adminStatusChange(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (asset.Asset, error)) {
	a, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderAsset(a))
}

// TriggerScan runs one overdue pass immediately and reports the outcome.
// Per-item delivery failures are included in the body, not surfaced as an
// invocation failure.
func (h *Handlers) TriggerScan(w http.ResponseWriter, r *http.Request) {
	report, err := h.scanner.Scan(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.ScanRuns.Inc()
	metrics.Notifications.WithLabelValues("sent").Add(float64(len(report.Notified)))
	metrics.Notifications.WithLabelValues("failed").Add(float64(len(report.Failures)))

	failures := make([]map[string]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, map[string]string{
			"asset_id":     f.AssetID,
			"recipient_id": f.RecipientID,
			"error":        f.Err.Error(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scanned":  report.Scanned,
		"notified": len(report.Notified),
		"failures": failures,
	})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) countTransition(action asset.Action, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, lifecycle.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		outcome = "invalid_transition"
	case errors.Is(err, lifecycle.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.Transitions.WithLabelValues(string(action), outcome).Inc()
}
