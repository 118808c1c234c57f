package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification emitted after a committed change.
type EventType string

const (
	EventProjectStageChanged EventType = "project.stage_changed"
	EventWorkerStageChanged  EventType = "worker.stage_changed"
	EventWorkerAssigned      EventType = "worker.assigned"
	EventWorkerRemoved       EventType = "worker.removed"
)

// Event is a fire-and-forget notification about a committed change.
type Event struct {
	Type         EventType  `json:"type"`
	ProjectID    uuid.UUID  `json:"project_id"`
	WorkerID     *uuid.UUID `json:"worker_id,omitempty"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	ActorID      uuid.UUID  `json:"actor_id"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
