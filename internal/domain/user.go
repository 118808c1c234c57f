package domain

import "github.com/google/uuid"

// Role controls what an authenticated caller may do.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator" // allocates workers and moves projects
	RoleViewer      Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleViewer:
		return true
	default:
		return false
	}
}

// Actor is the authenticated identity behind a mutating call. Its ID is what
// lands in StageTransitionRecord.ActorID.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role Role
}
