package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the authenticated actor for DoCtx
// ---------------------------------------------------------------------------

func actorCtx(id uuid.UUID) context.Context {
	return middleware.WithActor(context.Background(), domain.Actor{
		ID:   id,
		Name: "coordinator",
		Role: domain.RoleCoordinator,
	})
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// ---------------------------------------------------------------------------
// Mock Lifecycle
// ---------------------------------------------------------------------------

type mockLifecycle struct {
	transitionFunc func(ctx context.Context, req allocation.TransitionRequest) (*domain.Project, error)
}

func (m *mockLifecycle) Transition(ctx context.Context, req allocation.TransitionRequest) (*domain.Project, error) {
	return m.transitionFunc(ctx, req)
}

// ---------------------------------------------------------------------------
// Mock Requirements
// ---------------------------------------------------------------------------

type mockRequirements struct {
	setFunc func(ctx context.Context, req allocation.SetRequest) (*domain.ResourceRequirement, error)
}

func (m *mockRequirements) Set(ctx context.Context, req allocation.SetRequest) (*domain.ResourceRequirement, error) {
	return m.setFunc(ctx, req)
}

// ---------------------------------------------------------------------------
// Mock Assignments
// ---------------------------------------------------------------------------

type mockAssignments struct {
	assignFunc         func(ctx context.Context, projectID, workerID, actorID uuid.UUID) (*domain.Assignment, error)
	assignForSkillFunc func(ctx context.Context, projectID, workerID, skillID, actorID uuid.UUID) (*domain.Assignment, error)
	removeFunc         func(ctx context.Context, assignmentID uuid.UUID, reason string, actorID uuid.UUID) error
	promoteFunc        func(ctx context.Context, assignmentID, actorID uuid.UUID) (*domain.Assignment, error)
	bulkAssignFunc     func(ctx context.Context, projectID uuid.UUID, workerIDs []uuid.UUID, actorID uuid.UUID) *allocation.BulkResult[*domain.Assignment]
	bulkRemoveFunc     func(ctx context.Context, ids []uuid.UUID, reason string, actorID uuid.UUID) *allocation.BulkResult[uuid.UUID]
	listActiveFunc     func(ctx context.Context, projectID uuid.UUID) ([]*domain.Assignment, error)
	listByWorkerFunc   func(ctx context.Context, workerID uuid.UUID) ([]*domain.Assignment, error)
}

func (m *mockAssignments) Assign(ctx context.Context, projectID, workerID, actorID uuid.UUID) (*domain.Assignment, error) {
	return m.assignFunc(ctx, projectID, workerID, actorID)
}

func (m *mockAssignments) AssignForSkill(ctx context.Context, projectID, workerID, skillID, actorID uuid.UUID) (*domain.Assignment, error) {
	return m.assignForSkillFunc(ctx, projectID, workerID, skillID, actorID)
}

func (m *mockAssignments) Remove(ctx context.Context, assignmentID uuid.UUID, reason string, actorID uuid.UUID) error {
	return m.removeFunc(ctx, assignmentID, reason, actorID)
}

func (m *mockAssignments) Promote(ctx context.Context, assignmentID, actorID uuid.UUID) (*domain.Assignment, error) {
	return m.promoteFunc(ctx, assignmentID, actorID)
}

func (m *mockAssignments) BulkAssign(ctx context.Context, projectID uuid.UUID, workerIDs []uuid.UUID, actorID uuid.UUID) *allocation.BulkResult[*domain.Assignment] {
	return m.bulkAssignFunc(ctx, projectID, workerIDs, actorID)
}

func (m *mockAssignments) BulkRemove(ctx context.Context, ids []uuid.UUID, reason string, actorID uuid.UUID) *allocation.BulkResult[uuid.UUID] {
	return m.bulkRemoveFunc(ctx, ids, reason, actorID)
}

func (m *mockAssignments) ListActive(ctx context.Context, projectID uuid.UUID) ([]*domain.Assignment, error) {
	return m.listActiveFunc(ctx, projectID)
}

func (m *mockAssignments) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Assignment, error) {
	return m.listByWorkerFunc(ctx, workerID)
}

// ---------------------------------------------------------------------------
// Mock Validator / Availability / Matcher / History
// ---------------------------------------------------------------------------

type mockValidator struct {
	validateFunc func(ctx context.Context, workerID, projectID uuid.UUID) (*allocation.Result, error)
}

func (m *mockValidator) Validate(ctx context.Context, workerID, projectID uuid.UUID) (*allocation.Result, error) {
	return m.validateFunc(ctx, workerID, projectID)
}

type mockAvailability struct {
	isAvailableFunc func(ctx context.Context, workerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, []domain.Conflict, error)
}

func (m *mockAvailability) IsAvailable(ctx context.Context, workerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, []domain.Conflict, error) {
	return m.isAvailableFunc(ctx, workerID, start, end, exclude)
}

type mockMatcher struct {
	previewFunc   func(ctx context.Context, projectID, skillID uuid.UUID) (*allocation.Preview, error)
	autoMatchFunc func(ctx context.Context, projectID, skillID, actorID uuid.UUID) (*allocation.MatchResult, error)
}

func (m *mockMatcher) Preview(ctx context.Context, projectID, skillID uuid.UUID) (*allocation.Preview, error) {
	return m.previewFunc(ctx, projectID, skillID)
}

func (m *mockMatcher) AutoMatch(ctx context.Context, projectID, skillID, actorID uuid.UUID) (*allocation.MatchResult, error) {
	return m.autoMatchFunc(ctx, projectID, skillID, actorID)
}

type mockHistory struct {
	listFunc func(ctx context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error)
}

func (m *mockHistory) List(ctx context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error) {
	return m.listFunc(ctx, entity, id)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newAssignment(projectID, workerID uuid.UUID, stage domain.AssignmentStage) *domain.Assignment {
	return &domain.Assignment{
		ID:        uuid.New(),
		ProjectID: projectID,
		WorkerID:  workerID,
		Stage:     stage,
		MatchedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func projectConflict(name string) domain.Conflict {
	return domain.Conflict{
		Commitment: domain.Commitment{
			Kind:  domain.CommitmentProject,
			ID:    uuid.New(),
			Name:  name,
			Range: domain.NewDateRange(day("2025-03-01"), day("2025-03-31")),
		},
		OverlapDays: 10,
	}
}
