package v1

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
)

// Lifecycle moves projects between stages.
// *allocation.ProjectLifecycleStateMachine satisfies this interface.
type Lifecycle interface {
	Transition(ctx context.Context, req allocation.TransitionRequest) (*domain.Project, error)
}

// Requirements sets per-skill headcounts.
// *allocation.RequirementPlanner satisfies this interface.
type Requirements interface {
	Set(ctx context.Context, req allocation.SetRequest) (*domain.ResourceRequirement, error)
}

// Assignments creates, advances and removes assignments.
// *allocation.AssignmentService satisfies this interface.
type Assignments interface {
	Assign(ctx context.Context, projectID, workerID, actorID uuid.UUID) (*domain.Assignment, error)
	AssignForSkill(ctx context.Context, projectID, workerID, skillID, actorID uuid.UUID) (*domain.Assignment, error)
	Remove(ctx context.Context, assignmentID uuid.UUID, reason string, actorID uuid.UUID) error
	Promote(ctx context.Context, assignmentID, actorID uuid.UUID) (*domain.Assignment, error)
	BulkAssign(ctx context.Context, projectID uuid.UUID, workerIDs []uuid.UUID, actorID uuid.UUID) *allocation.BulkResult[*domain.Assignment]
	BulkRemove(ctx context.Context, assignmentIDs []uuid.UUID, reason string, actorID uuid.UUID) *allocation.BulkResult[uuid.UUID]
	ListActive(ctx context.Context, projectID uuid.UUID) ([]*domain.Assignment, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Assignment, error)
}

// Validator dry-runs the assignment rules.
// *allocation.AssignmentValidator satisfies this interface.
type Validator interface {
	Validate(ctx context.Context, workerID, projectID uuid.UUID) (*allocation.Result, error)
}

// Availability answers calendar questions.
// *allocation.AvailabilityIndex satisfies this interface.
type Availability interface {
	IsAvailable(ctx context.Context, workerID uuid.UUID, start, end time.Time, excludeProjectID uuid.UUID) (bool, []domain.Conflict, error)
}

// Matcher previews and fills outstanding requirements.
// *allocation.AutoMatcher satisfies this interface.
type Matcher interface {
	Preview(ctx context.Context, projectID, skillID uuid.UUID) (*allocation.Preview, error)
	AutoMatch(ctx context.Context, projectID, skillID, actorID uuid.UUID) (*allocation.MatchResult, error)
}

// History reads the stage audit trail.
// *allocation.StageHistoryLog satisfies this interface.
type History interface {
	List(ctx context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error)
}

// Services bundles the allocation components the API exposes.
type Services struct {
	Lifecycle    Lifecycle
	Requirements Requirements
	Assignments  Assignments
	Validator    Validator
	Availability Availability
	Matcher      Matcher
	History      History
}

// NewServices exposes an engine's components through the API interfaces.
func NewServices(e *allocation.Engine) Services {
	return Services{
		Lifecycle:    e.Lifecycle,
		Requirements: e.Requirements,
		Assignments:  e.Assignments,
		Validator:    e.Validator,
		Availability: e.Availability,
		Matcher:      e.Matcher,
		History:      e.History,
	}
}

// RegisterRoutes wires every allocation operation onto api.
func RegisterRoutes(api huma.API, svc Services) {
	RegisterProjectRoutes(api, svc.Lifecycle, svc.Requirements, svc.Assignments)
	RegisterAssignmentRoutes(api, svc.Assignments, svc.Validator)
	RegisterWorkerRoutes(api, svc.Availability, svc.Assignments)
	RegisterMatchRoutes(api, svc.Matcher)
	RegisterHistoryRoutes(api, svc.History)
}
