package admin

import (
	"context"

	"assetflow/asset"
)

// StatusWriter abstracts the repository for the service.
type StatusWriter interface {
	SetStatus(ctx context.Context, id string, next asset.Status, allowedFrom ...asset.Status) (asset.Asset, error)
}

// Service is the administrative path into the maintenance and retired
// side-states. Assign/Return never touch these; this is the only way in or
// out.
type Service struct {
	repo StatusWriter
}

func NewService(repo StatusWriter) *Service {
	return &Service{repo: repo}
}

// SendToMaintenance pulls an available asset out of the pool.
func (s *Service) SendToMaintenance(ctx context.Context, assetID string) (asset.Asset, error) {
	return s.repo.SetStatus(ctx, assetID, asset.StatusMaintenance, asset.StatusAvailable)
}

// Retire permanently removes an asset from circulation. Retirement is a
// status value, never a deletion.
func (s *Service) Retire(ctx context.Context, assetID string) (asset.Asset, error) {
	return s.repo.SetStatus(ctx, assetID, asset.StatusRetired, asset.StatusAvailable, asset.StatusMaintenance)
}

// Reinstate returns a maintenance asset to the available pool.
func (s *Service) Reinstate(ctx context.Context, assetID string) (asset.Asset, error) {
	return s.repo.SetStatus(ctx, assetID, asset.StatusAvailable, asset.StatusMaintenance)
}
