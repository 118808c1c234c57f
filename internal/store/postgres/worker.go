package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/crewhub/internal/domain"
)

type WorkerRepo struct {
	db querier
}

const workerColumns = `w.id, w.code, w.name, w.worker_type, w.stage, w.previous_stage,
	ARRAY(SELECT ws.skill_category_id FROM worker_skills ws WHERE ws.worker_id = w.id ORDER BY ws.skill_category_id),
	w.stage_changed_at, w.deleted_at, w.created_at, w.updated_at`

func (r *WorkerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Worker, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+workerColumns+`
		 FROM workers w WHERE w.id = $1 AND w.deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("workerRepo.GetByID: %w", err)
	}
	defer rows.Close()

	workers, err := scanWorkers(rows, "workerRepo.GetByID")
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return nil, fmt.Errorf("workerRepo.GetByID: %w", domain.ErrNotFound)
	}

	return workers[0], nil
}

func (r *WorkerRepo) SaveStage(ctx context.Context, w *domain.Worker, rec *domain.StageTransitionRecord) error {
	if err := checkRecord("workerRepo.SaveStage", rec, w.ID, string(w.Stage)); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE workers SET stage = $1, previous_stage = $2, stage_changed_at = $3, updated_at = $4
		 WHERE id = $5 AND deleted_at IS NULL`,
		w.Stage, w.PreviousStage, w.StageChangedAt, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("workerRepo.SaveStage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workerRepo.SaveStage: %w", domain.ErrNotFound)
	}

	return insertRecord(ctx, r.db, rec, "workerRepo.SaveStage")
}

func (r *WorkerRepo) AssignCode(ctx context.Context, id uuid.UUID, code string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE workers SET code = $1, updated_at = now()
		 WHERE id = $2 AND (code IS NULL OR code = '')`,
		code, id,
	)
	if err != nil {
		return mapPgError("workerRepo.AssignCode", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("workerRepo.AssignCode: %w", err)
	}
	if !exists {
		return fmt.Errorf("workerRepo.AssignCode: %w", domain.ErrNotFound)
	}

	return fmt.Errorf("workerRepo.AssignCode: %w", domain.ErrAlreadyExists)
}

// ListEligible orders benched workers before trained ones, then coded workers
// by code, then candidates, so repeated auto-matches pick the same people.
func (r *WorkerRepo) ListEligible(ctx context.Context, q domain.EligibilityQuery) ([]*domain.Worker, error) {
	stages := make([]string, 0, len(domain.AllocatableStages()))
	for _, s := range domain.AllocatableStages() {
		stages = append(stages, string(s))
	}

	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+workerColumns+`
		 FROM workers w
		 WHERE w.deleted_at IS NULL
		   AND w.stage = ANY($1)
		   AND w.worker_type = $2
		   AND EXISTS (SELECT 1 FROM worker_skills ws WHERE ws.worker_id = w.id AND ws.skill_category_id = $3)
		   AND NOT EXISTS (
		       SELECT 1 FROM assignments a
		       WHERE a.worker_id = w.id AND a.project_id = $4
		         AND a.removed_at IS NULL AND a.completed_at IS NULL)
		 ORDER BY array_position($1, w.stage::text), NULLIF(w.code, '') NULLS LAST, w.id
		 LIMIT $5`,
		stages, q.Type, q.SkillCategoryID, q.ExcludeProjectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("workerRepo.ListEligible: %w", err)
	}
	defer rows.Close()

	return scanWorkers(rows, "workerRepo.ListEligible")
}

func scanWorkers(rows pgx.Rows, caller string) ([]*domain.Worker, error) {
	var workers []*domain.Worker
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(
			&w.ID, &w.Code, &w.Name, &w.Type, &w.Stage, &w.PreviousStage,
			&w.SkillIDs,
			&w.StageChangedAt, &w.DeletedAt, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		workers = append(workers, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return workers, nil
}
