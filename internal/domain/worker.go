package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkerType is the labor category a worker belongs to.
type WorkerType string

const (
	WorkerTypeBlueCollar  WorkerType = "blue_collar"
	WorkerTypeWhiteCollar WorkerType = "white_collar"
)

// Valid reports whether t is a known worker type.
func (t WorkerType) Valid() bool {
	return t == WorkerTypeBlueCollar || t == WorkerTypeWhiteCollar
}

// WorkerStage is a worker's position in the staffing lifecycle.
type WorkerStage string

const (
	WorkerStageNew        WorkerStage = "new"
	WorkerStageInTraining WorkerStage = "in_training"
	WorkerStageTrained    WorkerStage = "trained"
	WorkerStageBenched    WorkerStage = "benched"
	WorkerStageMatched    WorkerStage = "matched"
	WorkerStageAssigned   WorkerStage = "assigned"
	WorkerStageOnSite     WorkerStage = "on_site"
	WorkerStageOnHold     WorkerStage = "on_hold"
	WorkerStageExited     WorkerStage = "exited"
)

//nolint:gochecknoglobals // fixed transition graph
var workerTransitions = map[WorkerStage][]WorkerStage{
	WorkerStageNew:        {WorkerStageInTraining, WorkerStageTrained, WorkerStageExited},
	WorkerStageInTraining: {WorkerStageTrained, WorkerStageNew, WorkerStageExited},
	WorkerStageTrained:    {WorkerStageMatched, WorkerStageInTraining, WorkerStageExited},
	WorkerStageBenched:    {WorkerStageMatched, WorkerStageInTraining, WorkerStageExited},
	WorkerStageMatched:    {WorkerStageAssigned, WorkerStageOnHold, WorkerStageTrained, WorkerStageBenched},
	WorkerStageAssigned:   {WorkerStageOnSite, WorkerStageOnHold, WorkerStageTrained, WorkerStageBenched},
	WorkerStageOnSite:     {WorkerStageOnHold, WorkerStageTrained, WorkerStageBenched},
	WorkerStageOnHold: {
		WorkerStageMatched, WorkerStageAssigned, WorkerStageOnSite,
		WorkerStageTrained, WorkerStageBenched,
	},
	WorkerStageExited: {},
}

// Valid reports whether s is a known worker stage.
func (s WorkerStage) Valid() bool {
	_, ok := workerTransitions[s]
	return ok
}

// ValidTransition checks if a worker stage change is allowed.
func (s WorkerStage) ValidTransition(to WorkerStage) bool {
	for _, next := range workerTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Allocatable reports whether a worker in this stage may be attached to a project.
// Workers mid-deployment or mid-hold are excluded.
func (s WorkerStage) Allocatable() bool {
	return s == WorkerStageTrained || s == WorkerStageBenched
}

// AllocatableStages lists the stages eligible for new assignments, in pool order.
func AllocatableStages() []WorkerStage {
	return []WorkerStage{WorkerStageBenched, WorkerStageTrained}
}

type Worker struct {
	ID             uuid.UUID
	Code           *string // permanent worker identifier; nil while still a candidate
	Name           string
	Type           WorkerType
	Stage          WorkerStage
	PreviousStage  *WorkerStage // snapshot taken when put on hold
	SkillIDs       []uuid.UUID
	StageChangedAt *time.Time
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Deleted reports whether the worker has been soft-deleted.
func (w *Worker) Deleted() bool {
	return w.DeletedAt != nil
}

// HasSkill reports whether the worker carries the given skill category.
func (w *Worker) HasSkill(skillID uuid.UUID) bool {
	for _, id := range w.SkillIDs {
		if id == skillID {
			return true
		}
	}
	return false
}

// IsCandidate reports whether the worker has not yet been given a permanent code.
func (w *Worker) IsCandidate() bool {
	return w.Code == nil || *w.Code == ""
}

// ChangeStage moves the worker to a new stage and returns the audit record that
// must be persisted alongside it. Leaving ON_HOLD clears the hold snapshot.
func (w *Worker) ChangeStage(to WorkerStage, actorID uuid.UUID, reason string, at time.Time) (*StageTransitionRecord, error) {
	if !w.Stage.ValidTransition(to) {
		return nil, fmt.Errorf("worker %s: %s -> %s: %w", w.ID, w.Stage, to, ErrInvalidTransition)
	}

	rec := NewStageTransitionRecord(EntityWorker, w.ID, string(w.Stage), string(to), actorID, reason, at)
	if w.Stage == WorkerStageOnHold {
		w.PreviousStage = nil
	}
	w.Stage = to
	w.StageChangedAt = &at
	w.UpdatedAt = at

	return rec, nil
}

// Hold snapshots the current stage and moves the worker to ON_HOLD.
func (w *Worker) Hold(actorID uuid.UUID, reason string, at time.Time) (*StageTransitionRecord, error) {
	prev := w.Stage
	rec, err := w.ChangeStage(WorkerStageOnHold, actorID, reason, at)
	if err != nil {
		return nil, err
	}
	w.PreviousStage = &prev
	rec.Metadata["previous_stage"] = string(prev)

	return rec, nil
}

// Resume restores the stage captured by Hold and clears the snapshot.
func (w *Worker) Resume(actorID uuid.UUID, reason string, at time.Time) (*StageTransitionRecord, error) {
	if w.Stage != WorkerStageOnHold || w.PreviousStage == nil {
		return nil, fmt.Errorf("worker %s: no hold snapshot to restore: %w", w.ID, ErrInvalidTransition)
	}
	return w.ChangeStage(*w.PreviousStage, actorID, reason, at)
}
