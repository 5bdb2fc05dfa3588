package asset

// Status is the custody state of an asset.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in_use"
	StatusMaintenance Status = "maintenance"
	StatusRetired     Status = "retired"
)

// Action names a custody transition.
type Action string

const (
	ActionAssign Action = "assign"
	ActionReturn Action = "return"
)

// transitions is the single exhaustive table of engine-managed moves.
// Maintenance and retired are administrative side-states; they are neither
// reachable nor exitable through assign/return.
var transitions = map[Action]struct {
	From Status
	To   Status
}{
	ActionAssign: {From: StatusAvailable, To: StatusInUse},
	ActionReturn: {From: StatusInUse, To: StatusAvailable},
}

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusRetired:
		return true
	default:
		return false
	}
}

// Source returns the required source status for an action.
func (a Action) Source() Status {
	return transitions[a].From
}

// Target returns the resulting status for an action.
func (a Action) Target() Status {
	return transitions[a].To
}

// Allows reports whether the action may be applied to an asset currently in
// status s.
func (a Action) Allows(s Status) bool {
	t, ok := transitions[a]
	return ok && t.From == s
}
