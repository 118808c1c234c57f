package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
)

type RequirementBody struct {
	SkillCategoryID uuid.UUID `json:"skill_category_id"`
	SkillName       string    `json:"skill_name"`
	RequiredCount   int       `json:"required_count"`
}

type ProjectBody struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	LaborCategory     string            `json:"labor_category"`
	Stage             string            `json:"stage"`
	StartDate         *string           `json:"start_date,omitempty" format:"date"`
	EndDate           *string           `json:"end_date,omitempty" format:"date"`
	ActualStartDate   *time.Time        `json:"actual_start_date,omitempty"`
	ActualEndDate     *time.Time        `json:"actual_end_date,omitempty"`
	HoldAttribution   *string           `json:"hold_attribution,omitempty"`
	StageChangedAt    *time.Time        `json:"stage_changed_at,omitempty"`
	StageChangeReason string            `json:"stage_change_reason,omitempty"`
	AllowedNext       []string          `json:"allowed_next"`
	Requirements      []RequirementBody `json:"requirements"`
}

type AssignmentBody struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	WorkerID        uuid.UUID  `json:"worker_id"`
	SkillCategoryID *uuid.UUID `json:"skill_category_id,omitempty"`
	Stage           string     `json:"stage"`
	MatchedAt       time.Time  `json:"matched_at"`
	SharedAt        *time.Time `json:"shared_at,omitempty"`
	DeployedAt      *time.Time `json:"deployed_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	RemovedAt       *time.Time `json:"removed_at,omitempty"`
	RemovedReason   string     `json:"removed_reason,omitempty"`
}

type WorkerBody struct {
	ID       uuid.UUID   `json:"id"`
	Code     *string     `json:"code,omitempty"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Stage    string      `json:"stage"`
	SkillIDs []uuid.UUID `json:"skill_ids"`
}

type ConflictBody struct {
	Kind        string    `json:"kind" enum:"project,training"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Start       string    `json:"start" format:"date"`
	End         string    `json:"end" format:"date"`
	OverlapDays int       `json:"overlap_days"`
}

type CandidateBody struct {
	Worker    WorkerBody     `json:"worker"`
	Available bool           `json:"available"`
	Conflicts []ConflictBody `json:"conflicts"`
}

type EvidenceBody struct {
	ID   uuid.UUID `json:"id,omitempty"`
	Name string    `json:"name" minLength:"1"`
	URL  string    `json:"url" format:"uri"`
}

type RecordBody struct {
	ID         uuid.UUID      `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Evidence   []EvidenceBody `json:"evidence,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type BulkFailureBody struct {
	ID     uuid.UUID `json:"id"`
	Status int       `json:"status"`
	Error  string    `json:"error"`
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func toProjectBody(p *domain.Project) ProjectBody {
	b := ProjectBody{
		ID:                p.ID,
		Name:              p.Name,
		LaborCategory:     string(p.LaborCategory),
		Stage:             string(p.Stage),
		StartDate:         dateString(p.StartDate),
		EndDate:           dateString(p.EndDate),
		ActualStartDate:   p.ActualStartDate,
		ActualEndDate:     p.ActualEndDate,
		StageChangedAt:    p.StageChangedAt,
		StageChangeReason: p.StageChangeReason,
		AllowedNext:       []string{},
		Requirements:      make([]RequirementBody, 0, len(p.Requirements)),
	}
	if p.HoldAttribution != nil {
		a := string(*p.HoldAttribution)
		b.HoldAttribution = &a
	}
	for _, s := range p.Stage.AllowedTransitions() {
		b.AllowedNext = append(b.AllowedNext, string(s))
	}
	for _, r := range p.Requirements {
		b.Requirements = append(b.Requirements, toRequirementBody(r))
	}
	return b
}

func toRequirementBody(r domain.ResourceRequirement) RequirementBody {
	return RequirementBody{SkillCategoryID: r.SkillCategoryID, SkillName: r.SkillName, RequiredCount: r.RequiredCount}
}

func toAssignmentBody(a *domain.Assignment) AssignmentBody {
	return AssignmentBody{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		WorkerID:        a.WorkerID,
		SkillCategoryID: a.SkillCategoryID,
		Stage:           string(a.Stage),
		MatchedAt:       a.MatchedAt,
		SharedAt:        a.SharedAt,
		DeployedAt:      a.DeployedAt,
		CompletedAt:     a.CompletedAt,
		RemovedAt:       a.RemovedAt,
		RemovedReason:   a.RemovedReason,
	}
}

func toAssignmentBodies(as []*domain.Assignment) []AssignmentBody {
	out := make([]AssignmentBody, 0, len(as))
	for _, a := range as {
		out = append(out, toAssignmentBody(a))
	}
	return out
}

func toWorkerBody(w *domain.Worker) WorkerBody {
	b := WorkerBody{
		ID:       w.ID,
		Code:     w.Code,
		Name:     w.Name,
		Type:     string(w.Type),
		Stage:    string(w.Stage),
		SkillIDs: w.SkillIDs,
	}
	if b.SkillIDs == nil {
		b.SkillIDs = []uuid.UUID{}
	}
	return b
}

func toConflictBodies(cs []domain.Conflict) []ConflictBody {
	out := make([]ConflictBody, 0, len(cs))
	for _, c := range cs {
		out = append(out, ConflictBody{
			Kind:        string(c.Kind),
			ID:          c.ID,
			Name:        c.Name,
			Start:       c.Range.Start.Format(time.DateOnly),
			End:         c.Range.End.Format(time.DateOnly),
			OverlapDays: c.OverlapDays,
		})
	}
	return out
}

func toCandidateBodies(cs []allocation.Candidate) []CandidateBody {
	out := make([]CandidateBody, 0, len(cs))
	for _, c := range cs {
		out = append(out, CandidateBody{
			Worker:    toWorkerBody(c.Worker),
			Available: c.Available(),
			Conflicts: toConflictBodies(c.Conflicts),
		})
	}
	return out
}

func toRecordBodies(rs []*domain.StageTransitionRecord) []RecordBody {
	out := make([]RecordBody, 0, len(rs))
	for _, r := range rs {
		b := RecordBody{
			ID:         r.ID,
			EntityType: string(r.EntityType),
			EntityID:   r.EntityID,
			From:       r.FromValue,
			To:         r.ToValue,
			ActorID:    r.ActorID,
			Reason:     r.Reason,
			Metadata:   r.Metadata,
			CreatedAt:  r.CreatedAt,
		}
		for _, e := range r.Evidence {
			b.Evidence = append(b.Evidence, EvidenceBody{ID: e.ID, Name: e.Name, URL: e.URL})
		}
		out = append(out, b)
	}
	return out
}

func toBulkFailures(fs []allocation.BulkFailure) []BulkFailureBody {
	out := make([]BulkFailureBody, 0, len(fs))
	for _, f := range fs {
		out = append(out, BulkFailureBody{ID: f.ID, Status: statusFor(f.Err), Error: errorMessage(f.Err)})
	}
	return out
}
