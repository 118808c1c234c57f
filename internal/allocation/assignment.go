package allocation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/domain"
)

// BulkFailure is one item of a bulk operation that did not go through.
type BulkFailure struct {
	ID  uuid.UUID
	Err error
}

// BulkResult collects per-item outcomes. Items are independent: a failure
// never undoes a success.
type BulkResult[T any] struct {
	Successes []T
	Failures  []BulkFailure
}

// AssignmentService is the only writer of assignment rows.
type AssignmentService struct {
	runner    domain.TxRunner
	validator *AssignmentValidator
	history   *StageHistoryLog
	notifier  Notifier
	now       func() time.Time
}

func NewAssignmentService(runner domain.TxRunner, validator *AssignmentValidator, history *StageHistoryLog, notifier Notifier, now func() time.Time) *AssignmentService {
	return &AssignmentService{runner: runner, validator: validator, history: history, notifier: notifier, now: now}
}

// Assign matches a worker to a project. The assignment counts against the
// first outstanding requirement the worker's skills satisfy, if any.
func (s *AssignmentService) Assign(ctx context.Context, projectID, workerID, actorID uuid.UUID) (*domain.Assignment, error) {
	a, err := s.assign(ctx, projectID, workerID, nil, actorID)
	if err != nil {
		return nil, wrapErr("allocation.AssignmentService.Assign", err)
	}
	return a, nil
}

// AssignForSkill matches a worker against a specific skill requirement and
// refuses to exceed its required count.
func (s *AssignmentService) AssignForSkill(ctx context.Context, projectID, workerID, skillID, actorID uuid.UUID) (*domain.Assignment, error) {
	a, err := s.assign(ctx, projectID, workerID, &skillID, actorID)
	if err != nil {
		return nil, wrapErr("allocation.AssignmentService.AssignForSkill", err)
	}
	return a, nil
}

func (s *AssignmentService) assign(ctx context.Context, projectID, workerID uuid.UUID, skillID *uuid.UUID, actorID uuid.UUID) (*domain.Assignment, error) {
	var (
		created *domain.Assignment
		events  []domain.Event
	)
	err := s.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.LockProject(ctx, projectID); err != nil {
			return err
		}
		if err := tx.LockWorker(ctx, workerID); err != nil {
			return err
		}

		res, w, p, err := s.validator.check(ctx, tx, workerID, projectID)
		if err != nil {
			return err
		}
		if !res.Valid {
			return res.Err
		}

		attributed, err := attributeSkill(ctx, tx, p, w, skillID)
		if err != nil {
			return err
		}

		at := s.now()
		if w.IsCandidate() {
			code, err := tx.Codes().NextWorkerCode(ctx)
			if err != nil {
				return err
			}
			if err := tx.Workers().AssignCode(ctx, w.ID, code); err != nil {
				return err
			}
			w.Code = &code
		}

		a := domain.NewAssignment(p.ID, w.ID, attributed, actorID, at)
		if err := tx.Assignments().Create(ctx, a); err != nil {
			return err
		}

		rec, err := s.history.MoveWorker(ctx, tx, w, domain.WorkerStageMatched, actorID,
			fmt.Sprintf("matched to project %s", p.Name), at,
			map[string]any{"project_id": p.ID.String(), "assignment_id": a.ID.String()})
		if err != nil {
			return err
		}

		created = a
		events = []domain.Event{
			{
				Type:         domain.EventWorkerAssigned,
				ProjectID:    p.ID,
				WorkerID:     &a.WorkerID,
				AssignmentID: &a.ID,
				To:           string(a.Stage),
				ActorID:      actorID,
				OccurredAt:   at,
			},
			workerStageEvent(p.ID, a.ID, rec),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, events)
	return created, nil
}

// attributeSkill picks the requirement the new assignment counts against.
// With an explicit skill the requirement must exist, the worker must carry
// the skill, and the requirement must still have room.
func attributeSkill(ctx context.Context, tx domain.Tx, p *domain.Project, w *domain.Worker, skillID *uuid.UUID) (*uuid.UUID, error) {
	if skillID != nil {
		req, ok := p.Requirement(*skillID)
		if !ok {
			return nil, domain.Validationf("project %s has no requirement for skill %s", p.ID, *skillID)
		}
		if !w.HasSkill(*skillID) {
			return nil, domain.Validationf("worker %s lacks skill %s", w.ID, *skillID)
		}
		active, err := tx.Assignments().CountActiveBySkill(ctx, p.ID, *skillID)
		if err != nil {
			return nil, err
		}
		if active >= req.RequiredCount {
			return nil, domain.Validationf("requirement for skill %s is already filled (%d/%d)", *skillID, active, req.RequiredCount)
		}
		id := *skillID
		return &id, nil
	}

	reqs := slices.Clone(p.Requirements)
	slices.SortFunc(reqs, func(a, b domain.ResourceRequirement) int {
		if c := strings.Compare(a.SkillName, b.SkillName); c != 0 {
			return c
		}
		return cmp.Compare(a.SkillCategoryID.String(), b.SkillCategoryID.String())
	})
	for _, req := range reqs {
		if !w.HasSkill(req.SkillCategoryID) {
			continue
		}
		active, err := tx.Assignments().CountActiveBySkill(ctx, p.ID, req.SkillCategoryID)
		if err != nil {
			return nil, err
		}
		if active < req.RequiredCount {
			id := req.SkillCategoryID
			return &id, nil
		}
	}
	return nil, nil
}

// Remove detaches a worker from a project and returns them to the pool.
// A worker who never reached the site follows the completion-history rule;
// one removed mid-deployment goes to BENCHED.
func (s *AssignmentService) Remove(ctx context.Context, assignmentID uuid.UUID, reason string, actorID uuid.UUID) error {
	if strings.TrimSpace(reason) == "" {
		return domain.Validationf("removal reason is required")
	}

	var events []domain.Event
	err := s.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Assignments().GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if err := tx.LockProject(ctx, a.ProjectID); err != nil {
			return err
		}
		if err := tx.LockWorker(ctx, a.WorkerID); err != nil {
			return err
		}
		// Re-read under the locks.
		a, err = tx.Assignments().GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if !a.Active() {
			return fmt.Errorf("assignment %s: %w", a.ID, domain.ErrAlreadyRemoved)
		}

		p, err := tx.Projects().GetByID(ctx, a.ProjectID)
		if err != nil {
			return err
		}

		at := s.now()
		a.Remove(reason, at)
		if err := tx.Assignments().Update(ctx, a); err != nil {
			return err
		}
		events = append(events, domain.Event{
			Type:         domain.EventWorkerRemoved,
			ProjectID:    a.ProjectID,
			WorkerID:     &a.WorkerID,
			AssignmentID: &a.ID,
			To:           string(a.Stage),
			Reason:       reason,
			ActorID:      actorID,
			OccurredAt:   at,
		})

		w, err := tx.Workers().GetByID(ctx, a.WorkerID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		next := domain.WorkerStageBenched
		if beforeProjectStart(p, a) {
			n, err := tx.Assignments().CountCompleted(ctx, w.ID, p.ID)
			if err != nil {
				return err
			}
			next = ReleaseStage(n > 0)
		}
		if w.Stage == next {
			return nil
		}

		rec, err := s.history.MoveWorker(ctx, tx, w, next, actorID, reason, at,
			map[string]any{"project_id": p.ID.String(), "assignment_id": a.ID.String()})
		if err != nil {
			return err
		}
		events = append(events, workerStageEvent(p.ID, a.ID, rec))
		return nil
	})
	if err != nil {
		return wrapErr("allocation.AssignmentService.Remove", err)
	}

	notifyAll(ctx, s.notifier, events)
	return nil
}

// beforeProjectStart reports whether the worker never actually started work
// on the project.
func beforeProjectStart(p *domain.Project, a *domain.Assignment) bool {
	return !p.Started() || !a.Deployed()
}

// Promote advances an assignment one step along MATCHED -> ASSIGNED -> ON_SITE
// when the project has already moved past the point where the bulk sync would
// have done it.
func (s *AssignmentService) Promote(ctx context.Context, assignmentID, actorID uuid.UUID) (*domain.Assignment, error) {
	var (
		promoted *domain.Assignment
		events   []domain.Event
	)
	err := s.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Assignments().GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if err := tx.LockProject(ctx, a.ProjectID); err != nil {
			return err
		}
		if err := tx.LockWorker(ctx, a.WorkerID); err != nil {
			return err
		}
		a, err = tx.Assignments().GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if !a.Active() {
			return fmt.Errorf("assignment %s: %w", a.ID, domain.ErrAlreadyRemoved)
		}

		p, err := tx.Projects().GetByID(ctx, a.ProjectID)
		if err != nil {
			return err
		}
		w, err := tx.Workers().GetByID(ctx, a.WorkerID)
		if err != nil {
			return err
		}

		at := s.now()
		var to domain.WorkerStage
		switch a.Stage {
		case domain.AssignmentStageMatched:
			if p.Stage != domain.ProjectStageShared && p.Stage != domain.ProjectStageOngoing {
				return domain.Validationf("project %s is %s, workers are shared from %s onwards", p.ID, p.Stage, domain.ProjectStageShared)
			}
			a.Share(at)
			to = domain.WorkerStageAssigned
		case domain.AssignmentStageAssigned:
			if p.Stage != domain.ProjectStageOngoing {
				return domain.Validationf("project %s is %s, workers go on site only while %s", p.ID, p.Stage, domain.ProjectStageOngoing)
			}
			a.Deploy(at)
			to = domain.WorkerStageOnSite
		default:
			return domain.Validationf("assignment %s is already %s", a.ID, a.Stage)
		}

		if err := tx.Assignments().Update(ctx, a); err != nil {
			return err
		}
		rec, err := s.history.MoveWorker(ctx, tx, w, to, actorID,
			fmt.Sprintf("promoted on project %s", p.Name), at,
			map[string]any{"project_id": p.ID.String(), "assignment_id": a.ID.String()})
		if err != nil {
			return err
		}

		promoted = a
		events = []domain.Event{workerStageEvent(p.ID, a.ID, rec)}
		return nil
	})
	if err != nil {
		return nil, wrapErr("allocation.AssignmentService.Promote", err)
	}

	notifyAll(ctx, s.notifier, events)
	return promoted, nil
}

// BulkAssign assigns each worker in its own transaction.
func (s *AssignmentService) BulkAssign(ctx context.Context, projectID uuid.UUID, workerIDs []uuid.UUID, actorID uuid.UUID) *BulkResult[*domain.Assignment] {
	res := &BulkResult[*domain.Assignment]{}
	for _, workerID := range workerIDs {
		a, err := s.Assign(ctx, projectID, workerID, actorID)
		if err != nil {
			res.Failures = append(res.Failures, BulkFailure{ID: workerID, Err: err})
			continue
		}
		res.Successes = append(res.Successes, a)
	}

	log.Info().
		Str("project_id", projectID.String()).
		Int("assigned", len(res.Successes)).
		Int("failed", len(res.Failures)).
		Msg("allocation.BulkAssign: done")
	return res
}

// BulkRemove removes each assignment in its own transaction.
func (s *AssignmentService) BulkRemove(ctx context.Context, assignmentIDs []uuid.UUID, reason string, actorID uuid.UUID) *BulkResult[uuid.UUID] {
	res := &BulkResult[uuid.UUID]{}
	for _, id := range assignmentIDs {
		if err := s.Remove(ctx, id, reason, actorID); err != nil {
			res.Failures = append(res.Failures, BulkFailure{ID: id, Err: err})
			continue
		}
		res.Successes = append(res.Successes, id)
	}

	log.Info().
		Int("removed", len(res.Successes)).
		Int("failed", len(res.Failures)).
		Msg("allocation.BulkRemove: done")
	return res
}

// ListActive returns the project's active assignments, oldest first.
func (s *AssignmentService) ListActive(ctx context.Context, projectID uuid.UUID) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	err := s.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.Projects().GetByID(ctx, projectID); err != nil {
			return err
		}
		var err error
		out, err = tx.Assignments().ListActiveByProject(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, wrapErr("allocation.AssignmentService.ListActive", err)
	}
	return out, nil
}

// ListByWorker returns every assignment the worker ever had, active or not.
func (s *AssignmentService) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	err := s.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		out, err = tx.Assignments().ListByWorker(ctx, workerID)
		return err
	})
	if err != nil {
		return nil, wrapErr("allocation.AssignmentService.ListByWorker", err)
	}
	return out, nil
}
