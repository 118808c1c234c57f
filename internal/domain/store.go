package domain

import (
	"context"

	"github.com/google/uuid"
)

// WorkerRepository reads workers and persists stage changes. A worker's stage
// can only be written together with the audit record describing the change.
type WorkerRepository interface {
	// GetByID returns ErrNotFound for missing or soft-deleted workers.
	GetByID(ctx context.Context, id uuid.UUID) (*Worker, error)
	SaveStage(ctx context.Context, w *Worker, rec *StageTransitionRecord) error
	// AssignCode sets the permanent worker code. It returns ErrAlreadyExists if
	// the worker already has one.
	AssignCode(ctx context.Context, id uuid.UUID, code string) error
	ListEligible(ctx context.Context, q EligibilityQuery) ([]*Worker, error)
}

// EligibilityQuery selects the auto-match pool.
type EligibilityQuery struct {
	Type             WorkerType
	SkillCategoryID  uuid.UUID
	ExcludeProjectID uuid.UUID
	Limit            int
}

// ProjectRepository reads projects (with requirements) and persists stage changes.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	SaveStage(ctx context.Context, p *Project, rec *StageTransitionRecord) error
	SetRequirement(ctx context.Context, req ResourceRequirement, rec *StageTransitionRecord) error
}

// AssignmentRepository is the only writer of assignment rows.
type AssignmentRepository interface {
	// Create returns ErrAlreadyExists if the worker already has an active
	// assignment on the project.
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
	// GetActive returns ErrNotFound when no active row exists.
	GetActive(ctx context.Context, projectID, workerID uuid.UUID) (*Assignment, error)
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]*Assignment, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*Assignment, error)
	CountActiveBySkill(ctx context.Context, projectID, skillID uuid.UUID) (int, error)
	// CountCompleted counts the worker's completed assignments on projects
	// other than excludeProjectID.
	CountCompleted(ctx context.Context, workerID, excludeProjectID uuid.UUID) (int, error)
}

// CommitmentRepository lists what currently holds a worker's calendar.
type CommitmentRepository interface {
	// ListActive returns dated project assignments and active training
	// enrollments, skipping the excluded project.
	ListActive(ctx context.Context, workerID, excludeProjectID uuid.UUID) ([]Commitment, error)
}

// HistoryRepository reads the append-only stage audit trail.
type HistoryRepository interface {
	ListByEntity(ctx context.Context, entity EntityType, id uuid.UUID) ([]*StageTransitionRecord, error)
}

// CodeAllocator issues permanent worker codes.
type CodeAllocator interface {
	NextWorkerCode(ctx context.Context) (string, error)
}

// Tx is one unit of work. All repositories returned by a Tx share it.
type Tx interface {
	Workers() WorkerRepository
	Projects() ProjectRepository
	Assignments() AssignmentRepository
	Commitments() CommitmentRepository
	History() HistoryRepository
	Codes() CodeAllocator
	// LockWorker and LockProject serialize concurrent writers on the same
	// entity until the transaction ends.
	LockWorker(ctx context.Context, id uuid.UUID) error
	LockProject(ctx context.Context, id uuid.UUID) error
}

// TxRunner runs fn inside a transaction, committing on nil error and rolling
// back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
