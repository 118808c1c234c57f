package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

type memTx struct {
	st *state
}

func (t *memTx) Workers() domain.WorkerRepository         { return workerRepo{st: t.st} }
func (t *memTx) Projects() domain.ProjectRepository       { return projectRepo{st: t.st} }
func (t *memTx) Assignments() domain.AssignmentRepository { return assignmentRepo{st: t.st} }
func (t *memTx) Commitments() domain.CommitmentRepository { return commitmentRepo{st: t.st} }
func (t *memTx) History() domain.HistoryRepository        { return historyRepo{st: t.st} }
func (t *memTx) Codes() domain.CodeAllocator              { return codeAllocator{st: t.st} }

// Transactions are already serialized by Store.mu.
func (t *memTx) LockWorker(context.Context, uuid.UUID) error  { return nil }
func (t *memTx) LockProject(context.Context, uuid.UUID) error { return nil }

func appendRecord(st *state, rec *domain.StageTransitionRecord) error {
	if rec == nil {
		return fmt.Errorf("memory: %w: audit record is required", domain.ErrValidation)
	}
	st.history = append(st.history, *rec)
	return nil
}

// --- workers ---

type workerRepo struct{ st *state }

func (r workerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Worker, error) {
	w, ok := r.st.workers[id]
	if !ok || w.Deleted() {
		return nil, fmt.Errorf("memory.workerRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := copyWorker(&w)
	return &out, nil
}

func (r workerRepo) SaveStage(_ context.Context, w *domain.Worker, rec *domain.StageTransitionRecord) error {
	cur, ok := r.st.workers[w.ID]
	if !ok {
		return fmt.Errorf("memory.workerRepo.SaveStage: %w", domain.ErrNotFound)
	}
	if rec == nil || rec.EntityID != w.ID || rec.ToValue != string(w.Stage) {
		return fmt.Errorf("memory.workerRepo.SaveStage: %w: record does not describe the change", domain.ErrValidation)
	}
	cur.Stage = w.Stage
	cur.PreviousStage = w.PreviousStage
	cur.StageChangedAt = w.StageChangedAt
	cur.UpdatedAt = w.UpdatedAt
	r.st.workers[w.ID] = cur

	return appendRecord(r.st, rec)
}

func (r workerRepo) AssignCode(_ context.Context, id uuid.UUID, code string) error {
	cur, ok := r.st.workers[id]
	if !ok {
		return fmt.Errorf("memory.workerRepo.AssignCode: %w", domain.ErrNotFound)
	}
	if !cur.IsCandidate() {
		return fmt.Errorf("memory.workerRepo.AssignCode: %w", domain.ErrAlreadyExists)
	}
	cur.Code = &code
	r.st.workers[id] = cur
	return nil
}

func (r workerRepo) ListEligible(_ context.Context, q domain.EligibilityQuery) ([]*domain.Worker, error) {
	busy := map[uuid.UUID]struct{}{}
	for _, a := range r.st.assignments {
		if a.ProjectID == q.ExcludeProjectID && a.Active() {
			busy[a.WorkerID] = struct{}{}
		}
	}

	var out []*domain.Worker
	for _, w := range r.st.workers {
		if w.Deleted() || !w.Stage.Allocatable() || w.Type != q.Type || !w.HasSkill(q.SkillCategoryID) {
			continue
		}
		if _, taken := busy[w.ID]; taken {
			continue
		}
		cp := copyWorker(&w)
		out = append(out, &cp)
	}

	slices.SortFunc(out, compareEligible)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// compareEligible orders by stage (benched first), then code (candidates last), then ID.
func compareEligible(a, b *domain.Worker) int {
	rank := func(s domain.WorkerStage) int { return slices.Index(domain.AllocatableStages(), s) }
	if c := cmp.Compare(rank(a.Stage), rank(b.Stage)); c != 0 {
		return c
	}
	switch {
	case a.IsCandidate() && !b.IsCandidate():
		return 1
	case !a.IsCandidate() && b.IsCandidate():
		return -1
	case !a.IsCandidate() && !b.IsCandidate():
		if c := cmp.Compare(*a.Code, *b.Code); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// --- projects ---

type projectRepo struct{ st *state }

func (r projectRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	p, ok := r.st.projects[id]
	if !ok {
		return nil, fmt.Errorf("memory.projectRepo.GetByID: %w", domain.ErrNotFound)
	}
	out := copyProject(&p)
	return &out, nil
}

func (r projectRepo) SaveStage(_ context.Context, p *domain.Project, rec *domain.StageTransitionRecord) error {
	cur, ok := r.st.projects[p.ID]
	if !ok {
		return fmt.Errorf("memory.projectRepo.SaveStage: %w", domain.ErrNotFound)
	}
	if rec == nil || rec.EntityID != p.ID || rec.ToValue != string(p.Stage) {
		return fmt.Errorf("memory.projectRepo.SaveStage: %w: record does not describe the change", domain.ErrValidation)
	}
	cur.Stage = p.Stage
	cur.StageChangedAt = p.StageChangedAt
	cur.StageChangeReason = p.StageChangeReason
	cur.HoldAttribution = p.HoldAttribution
	cur.ActualStartDate = p.ActualStartDate
	cur.ActualEndDate = p.ActualEndDate
	cur.UpdatedAt = p.UpdatedAt
	r.st.projects[p.ID] = cur

	return appendRecord(r.st, rec)
}

func (r projectRepo) SetRequirement(_ context.Context, req domain.ResourceRequirement, rec *domain.StageTransitionRecord) error {
	cur, ok := r.st.projects[req.ProjectID]
	if !ok {
		return fmt.Errorf("memory.projectRepo.SetRequirement: %w", domain.ErrNotFound)
	}

	reqs := make([]domain.ResourceRequirement, 0, len(cur.Requirements)+1)
	replaced := false
	for _, existing := range cur.Requirements {
		if existing.SkillCategoryID == req.SkillCategoryID {
			if req.SkillName == "" {
				req.SkillName = existing.SkillName
			}
			reqs = append(reqs, req)
			replaced = true
			continue
		}
		reqs = append(reqs, existing)
	}
	if !replaced {
		reqs = append(reqs, req)
	}
	cur.Requirements = reqs
	r.st.projects[req.ProjectID] = cur

	return appendRecord(r.st, rec)
}

// --- assignments ---

type assignmentRepo struct{ st *state }

func (r assignmentRepo) Create(_ context.Context, a *domain.Assignment) error {
	for _, existing := range r.st.assignments {
		if existing.ProjectID == a.ProjectID && existing.WorkerID == a.WorkerID && existing.Active() {
			return fmt.Errorf("memory.assignmentRepo.Create: %w", domain.ErrAlreadyExists)
		}
	}
	r.st.assignments[a.ID] = *a
	return nil
}

func (r assignmentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Assignment, error) {
	a, ok := r.st.assignments[id]
	if !ok {
		return nil, fmt.Errorf("memory.assignmentRepo.GetByID: %w", domain.ErrNotFound)
	}
	return &a, nil
}

func (r assignmentRepo) Update(_ context.Context, a *domain.Assignment) error {
	if _, ok := r.st.assignments[a.ID]; !ok {
		return fmt.Errorf("memory.assignmentRepo.Update: %w", domain.ErrNotFound)
	}
	r.st.assignments[a.ID] = *a
	return nil
}

func (r assignmentRepo) GetActive(_ context.Context, projectID, workerID uuid.UUID) (*domain.Assignment, error) {
	for _, a := range r.st.assignments {
		if a.ProjectID == projectID && a.WorkerID == workerID && a.Active() {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("memory.assignmentRepo.GetActive: %w", domain.ErrNotFound)
}

func (r assignmentRepo) ListActiveByProject(_ context.Context, projectID uuid.UUID) ([]*domain.Assignment, error) {
	return r.filter(func(a *domain.Assignment) bool { return a.ProjectID == projectID && a.Active() }), nil
}

func (r assignmentRepo) ListByWorker(_ context.Context, workerID uuid.UUID) ([]*domain.Assignment, error) {
	return r.filter(func(a *domain.Assignment) bool { return a.WorkerID == workerID }), nil
}

func (r assignmentRepo) CountActiveBySkill(_ context.Context, projectID, skillID uuid.UUID) (int, error) {
	return len(r.filter(func(a *domain.Assignment) bool {
		return a.ProjectID == projectID && a.Active() && a.SkillCategoryID != nil && *a.SkillCategoryID == skillID
	})), nil
}

func (r assignmentRepo) CountCompleted(_ context.Context, workerID, excludeProjectID uuid.UUID) (int, error) {
	return len(r.filter(func(a *domain.Assignment) bool {
		return a.WorkerID == workerID && a.ProjectID != excludeProjectID && a.Stage == domain.AssignmentStageCompleted
	})), nil
}

func (r assignmentRepo) filter(keep func(a *domain.Assignment) bool) []*domain.Assignment {
	var out []*domain.Assignment
	for _, a := range r.st.assignments {
		if keep(&a) {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Assignment) int {
		if c := a.MatchedAt.Compare(b.MatchedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// --- commitments ---

type commitmentRepo struct{ st *state }

func (r commitmentRepo) ListActive(_ context.Context, workerID, excludeProjectID uuid.UUID) ([]domain.Commitment, error) {
	var out []domain.Commitment
	for _, a := range r.st.assignments {
		if a.WorkerID != workerID || !a.Active() || a.ProjectID == excludeProjectID {
			continue
		}
		p, ok := r.st.projects[a.ProjectID]
		if !ok {
			continue
		}
		rng, dated := p.PlannedRange()
		if !dated {
			continue
		}
		out = append(out, domain.Commitment{Kind: domain.CommitmentProject, ID: p.ID, Name: p.Name, Range: rng})
	}
	for _, e := range r.st.trainings {
		if e.WorkerID != workerID || !e.Active() || !e.Range.Valid() {
			continue
		}
		out = append(out, domain.Commitment{Kind: domain.CommitmentTraining, ID: e.BatchID, Name: e.BatchName, Range: e.Range})
	}

	slices.SortFunc(out, func(a, b domain.Commitment) int {
		return cmp.Or(
			a.Range.Start.Compare(b.Range.Start),
			cmp.Compare(a.Kind, b.Kind),
			bytes.Compare(a.ID[:], b.ID[:]),
		)
	})
	return out, nil
}

// --- history ---

type historyRepo struct{ st *state }

func (r historyRepo) ListByEntity(_ context.Context, entity domain.EntityType, id uuid.UUID) ([]*domain.StageTransitionRecord, error) {
	var out []*domain.StageTransitionRecord
	for i := range r.st.history {
		rec := r.st.history[i]
		if rec.EntityType == entity && rec.EntityID == id {
			out = append(out, &rec)
		}
	}
	return out, nil
}

// --- codes ---

type codeAllocator struct{ st *state }

func (c codeAllocator) NextWorkerCode(context.Context) (string, error) {
	c.st.codeSeq++
	return fmt.Sprintf("WRK-%06d", c.st.codeSeq), nil
}
