package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/domain"
)

// TransitionRequest asks for a project stage change.
type TransitionRequest struct {
	ProjectID   uuid.UUID
	To          domain.ProjectStage
	Attribution *domain.HoldAttribution // required for on_hold, ignored otherwise
	Reason      string
	ActorID     uuid.UUID
	Evidence    []domain.EvidenceDocument
}

// ProjectLifecycleStateMachine validates project stage changes and carries
// the assigned workers along.
type ProjectLifecycleStateMachine struct {
	runner   domain.TxRunner
	history  *StageHistoryLog
	sync     *WorkerStageSync
	notifier Notifier
	now      func() time.Time
}

func NewProjectLifecycleStateMachine(runner domain.TxRunner, history *StageHistoryLog, sync *WorkerStageSync, notifier Notifier, now func() time.Time) *ProjectLifecycleStateMachine {
	return &ProjectLifecycleStateMachine{runner: runner, history: history, sync: sync, notifier: notifier, now: now}
}

// Transition moves the project along one edge of the stage graph and applies
// the worker stage consequences in the same transaction.
func (m *ProjectLifecycleStateMachine) Transition(ctx context.Context, req TransitionRequest) (*domain.Project, error) {
	if !req.To.Valid() {
		return nil, domain.Validationf("unknown project stage %q", req.To)
	}
	attribution := req.Attribution
	if req.To != domain.ProjectStageOnHold {
		attribution = nil
	}

	var (
		project *domain.Project
		events  []domain.Event
	)
	err := m.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.LockProject(ctx, req.ProjectID); err != nil {
			return err
		}
		p, err := tx.Projects().GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		from := p.Stage
		if !from.ValidTransition(req.To) {
			return fmt.Errorf("project %s: %s -> %s: %w", p.ID, from, req.To, domain.ErrInvalidTransition)
		}
		if req.To == domain.ProjectStageOnHold && (attribution == nil || !attribution.Valid()) {
			return domain.Validationf("hold attribution must be one of employer, operator, force_majeure")
		}
		if req.To == domain.ProjectStageOngoing && from == domain.ProjectStageShared && p.StartDate == nil {
			return domain.Validationf("project %s needs a start date before it can go ongoing", p.ID)
		}
		if req.To == domain.ProjectStageCancelled && p.Started() {
			return fmt.Errorf("project %s already started, terminate or short-close it instead: %w", p.ID, domain.ErrInvalidTransition)
		}

		at := m.now()
		rec, err := m.history.MoveProject(ctx, tx, p, req.To, attribution, req.ActorID, req.Reason, req.Evidence, at)
		if err != nil {
			return err
		}

		workerEvents, err := m.sync.Apply(ctx, tx, p, from, req.ActorID, at)
		if err != nil {
			return err
		}

		project = p
		events = append(events, domain.Event{
			Type:       domain.EventProjectStageChanged,
			ProjectID:  p.ID,
			From:       rec.FromValue,
			To:         rec.ToValue,
			Reason:     rec.Reason,
			ActorID:    rec.ActorID,
			OccurredAt: rec.CreatedAt,
		})
		events = append(events, workerEvents...)
		return nil
	})
	if err != nil {
		return nil, wrapErr("allocation.ProjectLifecycleStateMachine.Transition", err)
	}

	log.Info().
		Str("project_id", project.ID.String()).
		Str("stage", string(project.Stage)).
		Int("workers_changed", len(events)-1).
		Msg("allocation.Transition: project stage changed")

	notifyAll(ctx, m.notifier, events)
	return project, nil
}
