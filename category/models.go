package category

import "time"

// Category groups assets of the same kind for reporting and lookup.
type Category struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}
