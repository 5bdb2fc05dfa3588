package asset

import "time"

// Asset is the domain representation of a tracked physical asset.
// It mirrors the assets table and carries no JSON annotations so it can be
// reused by different presentation layers.
type Asset struct {
	ID             string
	Code           string
	Name           string
	CategoryID     string
	Status         Status
	CustodianID    *string
	ReturnDeadline *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filters narrows List queries.
type Filters struct {
	Status     Status
	CategoryID string
	Page       int
	PageSize   int
}
