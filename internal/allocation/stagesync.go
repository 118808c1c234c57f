package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// SyncAction is what happens to a worker when their project changes stage.
type SyncAction int

const (
	SyncNone SyncAction = iota
	SyncMove
	SyncHold
	SyncResume
)

func (a SyncAction) String() string {
	switch a {
	case SyncMove:
		return "move"
	case SyncHold:
		return "hold"
	case SyncResume:
		return "resume"
	default:
		return "none"
	}
}

// SyncInput describes one active assignment at the moment its project moves.
type SyncInput struct {
	From        domain.ProjectStage
	To          domain.ProjectStage
	Attribution *domain.HoldAttribution
	Assignment  domain.AssignmentStage
	Worker      domain.WorkerStage
	// HasSnapshot reports whether the worker carries a hold snapshot.
	HasSnapshot bool
	// HasPriorCompletion reports whether the worker completed another project before.
	HasPriorCompletion bool
}

// SyncPlan is the outcome of PlanSync. WorkerStage is only meaningful for
// SyncMove; an empty AssignmentStage leaves the assignment untouched.
type SyncPlan struct {
	Action          SyncAction
	WorkerStage     domain.WorkerStage
	AssignmentStage domain.AssignmentStage
}

// ReleaseStage is where a worker goes after leaving a project that ended
// normally or never started: BENCHED for workers with completion history,
// TRAINED otherwise.
func ReleaseStage(hasPriorCompletion bool) domain.WorkerStage {
	if hasPriorCompletion {
		return domain.WorkerStageBenched
	}
	return domain.WorkerStageTrained
}

// needsHistory reports whether PlanSync depends on HasPriorCompletion for to.
func needsHistory(to domain.ProjectStage) bool {
	switch to {
	case domain.ProjectStageCompleted, domain.ProjectStageTerminated, domain.ProjectStageCancelled:
		return true
	default:
		return false
	}
}

// PlanSync maps a project stage change onto one assignment and its worker.
func PlanSync(in SyncInput) SyncPlan {
	switch in.To {
	case domain.ProjectStageShared:
		if in.Assignment == domain.AssignmentStageMatched {
			return SyncPlan{Action: SyncMove, WorkerStage: domain.WorkerStageAssigned, AssignmentStage: domain.AssignmentStageAssigned}
		}

	case domain.ProjectStageOngoing:
		if in.From == domain.ProjectStageOnHold {
			if in.Worker == domain.WorkerStageOnHold && in.HasSnapshot {
				return SyncPlan{Action: SyncResume}
			}
			return SyncPlan{}
		}
		if in.Assignment == domain.AssignmentStageAssigned {
			return SyncPlan{Action: SyncMove, WorkerStage: domain.WorkerStageOnSite, AssignmentStage: domain.AssignmentStageOnSite}
		}

	case domain.ProjectStageOnHold:
		if in.Attribution == nil || in.Attribution.KeepsWorkersDeployed() || in.Worker == domain.WorkerStageOnHold {
			return SyncPlan{}
		}
		return SyncPlan{Action: SyncHold}

	case domain.ProjectStageCompleted:
		return SyncPlan{Action: SyncMove, WorkerStage: ReleaseStage(in.HasPriorCompletion), AssignmentStage: domain.AssignmentStageCompleted}

	case domain.ProjectStageTerminated, domain.ProjectStageCancelled:
		return SyncPlan{Action: SyncMove, WorkerStage: ReleaseStage(in.HasPriorCompletion), AssignmentStage: domain.AssignmentStageRemoved}

	case domain.ProjectStageShortClosed:
		return SyncPlan{Action: SyncMove, WorkerStage: domain.WorkerStageBenched, AssignmentStage: domain.AssignmentStageCompleted}
	}

	return SyncPlan{}
}

// WorkerStageSync applies PlanSync to every active assignment of a project.
type WorkerStageSync struct {
	history *StageHistoryLog
}

func NewWorkerStageSync(history *StageHistoryLog) *WorkerStageSync {
	return &WorkerStageSync{history: history}
}

// Apply runs inside the project transition's transaction. p must already
// carry its new stage; from is the stage it left.
func (s *WorkerStageSync) Apply(ctx context.Context, tx domain.Tx, p *domain.Project, from domain.ProjectStage, actorID uuid.UUID, at time.Time) ([]domain.Event, error) {
	active, err := tx.Assignments().ListActiveByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("project %s moved %s -> %s", p.Name, from, p.Stage)
	meta := map[string]any{"project_id": p.ID.String(), "project_stage": string(p.Stage)}

	var events []domain.Event
	for _, a := range active {
		if err := tx.LockWorker(ctx, a.WorkerID); err != nil {
			return nil, err
		}

		w, err := tx.Workers().GetByID(ctx, a.WorkerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		in := SyncInput{From: from, To: p.Stage, Attribution: p.HoldAttribution, Assignment: a.Stage}
		if w != nil {
			in.Worker = w.Stage
			in.HasSnapshot = w.PreviousStage != nil
			if needsHistory(p.Stage) {
				n, err := tx.Assignments().CountCompleted(ctx, w.ID, p.ID)
				if err != nil {
					return nil, err
				}
				in.HasPriorCompletion = n > 0
			}
		}
		plan := PlanSync(in)

		if plan.AssignmentStage != "" {
			applyAssignmentStage(a, plan.AssignmentStage, reason, at)
			if err := tx.Assignments().Update(ctx, a); err != nil {
				return nil, err
			}
		}

		// Soft-deleted workers still have their assignment closed out.
		if w == nil {
			continue
		}

		var rec *domain.StageTransitionRecord
		switch plan.Action {
		case SyncMove:
			if w.Stage == plan.WorkerStage {
				continue
			}
			rec, err = s.history.MoveWorker(ctx, tx, w, plan.WorkerStage, actorID, reason, at, meta)
		case SyncHold:
			rec, err = s.history.HoldWorker(ctx, tx, w, actorID, reason, at, meta)
		case SyncResume:
			rec, err = s.history.ResumeWorker(ctx, tx, w, actorID, reason, at, meta)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		events = append(events, workerStageEvent(p.ID, a.ID, rec))
	}

	return events, nil
}

func applyAssignmentStage(a *domain.Assignment, to domain.AssignmentStage, reason string, at time.Time) {
	switch to {
	case domain.AssignmentStageAssigned:
		a.Share(at)
	case domain.AssignmentStageOnSite:
		a.Deploy(at)
	case domain.AssignmentStageCompleted:
		a.Complete(at)
	case domain.AssignmentStageRemoved:
		a.Remove(reason, at)
	}
}

func workerStageEvent(projectID, assignmentID uuid.UUID, rec *domain.StageTransitionRecord) domain.Event {
	workerID := rec.EntityID
	return domain.Event{
		Type:         domain.EventWorkerStageChanged,
		ProjectID:    projectID,
		WorkerID:     &workerID,
		AssignmentID: &assignmentID,
		From:         rec.FromValue,
		To:           rec.ToValue,
		Reason:       rec.Reason,
		ActorID:      rec.ActorID,
		OccurredAt:   rec.CreatedAt,
	}
}
