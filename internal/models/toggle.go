package models

// ToggleOutcome is the transition a toggle applied to a (user, post) relation.
type ToggleOutcome string

const (
	ToggleAdded   ToggleOutcome = "added"
	ToggleRemoved ToggleOutcome = "removed"
	ToggleUpdated ToggleOutcome = "updated"
)

// Notifies reports whether the post author should hear about the outcome.
// Removing a relation never notifies.
func (o ToggleOutcome) Notifies() bool {
	return o == ToggleAdded || o == ToggleUpdated
}

// NextToggle decides the transition given whether a row exists, the kind
// stored on it and the requested kind.
func NextToggle(exists bool, current, requested string) ToggleOutcome {
	switch {
	case !exists:
		return ToggleAdded
	case current == requested:
		return ToggleRemoved
	default:
		return ToggleUpdated
	}
}

// Relation is a user-to-post row driven by the toggle engine.
type Relation interface {
	RelationKind() string
	SetRelation(userID, postID uint, kind string)
}
