package allocation

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

// StageHistoryLog is the single path through which worker and project stages
// are mutated. Each mutation persists the entity together with exactly one
// audit record inside the caller's transaction.
type StageHistoryLog struct {
	runner domain.TxRunner
}

func NewStageHistoryLog(runner domain.TxRunner) *StageHistoryLog {
	return &StageHistoryLog{runner: runner}
}

// MoveWorker changes a worker's stage and records it.
func (l *StageHistoryLog) MoveWorker(ctx context.Context, tx domain.Tx, w *domain.Worker, to domain.WorkerStage, actorID uuid.UUID, reason string, at time.Time, meta map[string]any) (*domain.StageTransitionRecord, error) {
	rec, err := w.ChangeStage(to, actorID, reason, at)
	if err != nil {
		return nil, err
	}
	return rec, l.saveWorker(ctx, tx, w, rec, meta)
}

// HoldWorker snapshots the worker's stage and moves it to ON_HOLD.
func (l *StageHistoryLog) HoldWorker(ctx context.Context, tx domain.Tx, w *domain.Worker, actorID uuid.UUID, reason string, at time.Time, meta map[string]any) (*domain.StageTransitionRecord, error) {
	rec, err := w.Hold(actorID, reason, at)
	if err != nil {
		return nil, err
	}
	return rec, l.saveWorker(ctx, tx, w, rec, meta)
}

// ResumeWorker restores the stage captured by HoldWorker.
func (l *StageHistoryLog) ResumeWorker(ctx context.Context, tx domain.Tx, w *domain.Worker, actorID uuid.UUID, reason string, at time.Time, meta map[string]any) (*domain.StageTransitionRecord, error) {
	rec, err := w.Resume(actorID, reason, at)
	if err != nil {
		return nil, err
	}
	return rec, l.saveWorker(ctx, tx, w, rec, meta)
}

func (l *StageHistoryLog) saveWorker(ctx context.Context, tx domain.Tx, w *domain.Worker, rec *domain.StageTransitionRecord, meta map[string]any) error {
	for k, v := range meta {
		rec.Metadata[k] = v
	}
	return tx.Workers().SaveStage(ctx, w, rec)
}

// MoveProject changes a project's stage, links evidence and records it.
func (l *StageHistoryLog) MoveProject(ctx context.Context, tx domain.Tx, p *domain.Project, to domain.ProjectStage, attribution *domain.HoldAttribution, actorID uuid.UUID, reason string, evidence []domain.EvidenceDocument, at time.Time) (*domain.StageTransitionRecord, error) {
	rec, err := p.ChangeStage(to, attribution, actorID, reason, at)
	if err != nil {
		return nil, err
	}
	for i := range evidence {
		if evidence[i].ID == uuid.Nil {
			evidence[i].ID = uuid.New()
		}
	}
	rec.Evidence = evidence

	if err := tx.Projects().SaveStage(ctx, p, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// SetRequirement records a change to a project's required headcount for a skill.
func (l *StageHistoryLog) SetRequirement(ctx context.Context, tx domain.Tx, req domain.ResourceRequirement, previous int, actorID uuid.UUID, reason string, at time.Time) (*domain.StageTransitionRecord, error) {
	rec := domain.NewStageTransitionRecord(
		domain.EntityRequirement, req.ProjectID,
		strconv.Itoa(previous), strconv.Itoa(req.RequiredCount),
		actorID, reason, at,
	)
	rec.Metadata["skill_category_id"] = req.SkillCategoryID.String()
	if req.SkillName != "" {
		rec.Metadata["skill_name"] = req.SkillName
	}

	if err := tx.Projects().SetRequirement(ctx, req, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the audit trail of one entity, oldest first.
func (l *StageHistoryLog) List(ctx context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error) {
	if !entity.Valid() {
		return nil, domain.Validationf("unknown entity type %q", entity)
	}

	var records []*domain.StageTransitionRecord
	err := l.runner.InTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		records, err = tx.History().ListByEntity(ctx, entity, id)
		return err
	})
	if err != nil {
		return nil, wrapErr("allocation.StageHistoryLog.List", err)
	}
	return records, nil
}
