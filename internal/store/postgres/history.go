package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/crewhub/internal/domain"
)

type HistoryRepo struct {
	db querier
}

// insertRecord appends one audit row and its evidence links. It is only
// reachable through the SaveStage and SetRequirement methods so a stage never
// changes without its record.
func insertRecord(ctx context.Context, db querier, rec *domain.StageTransitionRecord, caller string) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("%s: marshal metadata: %w", caller, err)
	}

	_, err = db.Exec(ctx,
		`INSERT INTO stage_transitions (id, entity_type, entity_id, from_value, to_value, actor_id, reason, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.EntityType, rec.EntityID, rec.FromValue, rec.ToValue,
		rec.ActorID, rec.Reason, metadata, rec.CreatedAt,
	)
	if err != nil {
		return mapPgError(caller+": insert record", err)
	}

	for _, doc := range rec.Evidence {
		_, err = db.Exec(ctx,
			`INSERT INTO stage_transition_evidence (id, transition_id, name, url)
			 VALUES ($1, $2, $3, $4)`,
			doc.ID, rec.ID, doc.Name, doc.URL,
		)
		if err != nil {
			return mapPgError(caller+": insert evidence", err)
		}
	}

	return nil
}

func (r *HistoryRepo) ListByEntity(ctx context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.entity_type, t.entity_id, t.from_value, t.to_value, t.actor_id, t.reason, t.metadata, t.created_at,
		        COALESCE(
		            (SELECT jsonb_agg(jsonb_build_object('id', e.id, 'name', e.name, 'url', e.url) ORDER BY e.name)
		             FROM stage_transition_evidence e WHERE e.transition_id = t.id),
		            '[]'::jsonb)
		 FROM stage_transitions t
		 WHERE t.entity_type = $1 AND t.entity_id = $2
		 ORDER BY t.created_at, t.id`,
		entity, id,
	)
	if err != nil {
		return nil, fmt.Errorf("historyRepo.ListByEntity: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, "historyRepo.ListByEntity")
}

func scanRecords(rows pgx.Rows, caller string) ([]*domain.StageTransitionRecord, error) {
	var records []*domain.StageTransitionRecord
	for rows.Next() {
		var (
			rec      domain.StageTransitionRecord
			metadata []byte
			evidence []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.EntityType, &rec.EntityID, &rec.FromValue, &rec.ToValue,
			&rec.ActorID, &rec.Reason, &metadata, &rec.CreatedAt, &evidence,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}

		rec.Metadata = map[string]any{}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("%s: unmarshal metadata: %w", caller, err)
			}
		}
		if err := json.Unmarshal(evidence, &rec.Evidence); err != nil {
			return nil, fmt.Errorf("%s: unmarshal evidence: %w", caller, err)
		}
		if len(rec.Evidence) == 0 {
			rec.Evidence = nil
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return records, nil
}
