package lifecycle

import (
	"errors"
	"fmt"

	"assetflow/asset"
)

var (
	// ErrNotFound signals the referenced asset does not exist.
	ErrNotFound = errors.New("lifecycle: asset not found")
	// ErrInvalidInput signals a malformed request rejected before any mutation.
	ErrInvalidInput = errors.New("lifecycle: invalid input")
	// ErrConflict signals the guarded status write lost a race; the caller
	// may re-read and retry. Distinct from an invalid transition.
	ErrConflict = errors.New("lifecycle: asset changed concurrently")
	// ErrInvalidTransition is the errors.Is target for *InvalidTransitionError.
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")
)

// InvalidTransitionError reports that an asset is not in the source state
// required by the attempted action. The current status is carried for
// caller diagnostics.
type InvalidTransitionError struct {
	Action  asset.Action
	Current asset.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("lifecycle: cannot %s asset currently %s", e.Action, e.Current)
}

// Is makes errors.Is(err, ErrInvalidTransition) match.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
