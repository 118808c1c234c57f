package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStage tracks a single worker-to-project link.
type AssignmentStage string

const (
	AssignmentStageMatched   AssignmentStage = "matched"
	AssignmentStageAssigned  AssignmentStage = "assigned"
	AssignmentStageOnSite    AssignmentStage = "on_site"
	AssignmentStageCompleted AssignmentStage = "completed"
	AssignmentStageRemoved   AssignmentStage = "removed"
)

// WorkerStage returns the worker stage that mirrors an active assignment stage.
func (s AssignmentStage) WorkerStage() (WorkerStage, bool) {
	switch s {
	case AssignmentStageMatched:
		return WorkerStageMatched, true
	case AssignmentStageAssigned:
		return WorkerStageAssigned, true
	case AssignmentStageOnSite:
		return WorkerStageOnSite, true
	default:
		return "", false
	}
}

// Assignment links one worker to one project. For a given (worker, project)
// there is at most one active row.
type Assignment struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	WorkerID        uuid.UUID
	SkillCategoryID *uuid.UUID
	Stage           AssignmentStage
	MatchedAt       time.Time
	SharedAt        *time.Time
	DeployedAt      *time.Time
	CompletedAt     *time.Time
	RemovedAt       *time.Time
	RemovedReason   string
	CreatedBy       uuid.UUID
	UpdatedAt       time.Time
}

// NewAssignment creates a MATCHED assignment.
func NewAssignment(projectID, workerID uuid.UUID, skillID *uuid.UUID, actorID uuid.UUID, at time.Time) *Assignment {
	return &Assignment{
		ID:              uuid.New(),
		ProjectID:       projectID,
		WorkerID:        workerID,
		SkillCategoryID: skillID,
		Stage:           AssignmentStageMatched,
		MatchedAt:       at,
		CreatedBy:       actorID,
		UpdatedAt:       at,
	}
}

// Active reports whether the assignment has neither completed nor been removed.
func (a *Assignment) Active() bool {
	return a.RemovedAt == nil && a.CompletedAt == nil
}

// Deployed reports whether the worker ever went on site for this assignment.
func (a *Assignment) Deployed() bool {
	return a.DeployedAt != nil
}

// Share marks the assignment as shared with the employer.
func (a *Assignment) Share(at time.Time) {
	a.Stage = AssignmentStageAssigned
	a.SharedAt = &at
	a.UpdatedAt = at
}

// Deploy marks the worker as on site.
func (a *Assignment) Deploy(at time.Time) {
	a.Stage = AssignmentStageOnSite
	a.DeployedAt = &at
	a.UpdatedAt = at
}

// Complete closes the assignment after the project finished.
func (a *Assignment) Complete(at time.Time) {
	a.Stage = AssignmentStageCompleted
	a.CompletedAt = &at
	a.UpdatedAt = at
}

// Remove detaches the worker from the project.
func (a *Assignment) Remove(reason string, at time.Time) {
	a.Stage = AssignmentStageRemoved
	a.RemovedAt = &at
	a.RemovedReason = reason
	a.UpdatedAt = at
}
