package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies what a StageTransitionRecord is about.
type EntityType string

const (
	EntityWorker      EntityType = "worker"
	EntityProject     EntityType = "project"
	EntityRequirement EntityType = "requirement"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityWorker, EntityProject, EntityRequirement:
		return true
	default:
		return false
	}
}

// EvidenceDocument is a document linked to a stage change (e.g. a hold notice).
type EvidenceDocument struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// StageTransitionRecord is an immutable audit row. Records are appended in the
// same transaction as the change they describe and never updated.
type StageTransitionRecord struct {
	ID         uuid.UUID
	EntityType EntityType
	EntityID   uuid.UUID
	FromValue  string
	ToValue    string
	ActorID    uuid.UUID
	Reason     string
	Metadata   map[string]any
	Evidence   []EvidenceDocument
	CreatedAt  time.Time
}

func NewStageTransitionRecord(entity EntityType, entityID uuid.UUID, from, to string, actorID uuid.UUID, reason string, at time.Time) *StageTransitionRecord {
	return &StageTransitionRecord{
		ID:         uuid.New(),
		EntityType: entity,
		EntityID:   entityID,
		FromValue:  from,
		ToValue:    to,
		ActorID:    actorID,
		Reason:     reason,
		Metadata:   map[string]any{},
		CreatedAt:  at,
	}
}
