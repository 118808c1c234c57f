package allocation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/store/memory"
)

// ---------------------------------------------------------------------------
// Notification recorder
// ---------------------------------------------------------------------------

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Notify(_ context.Context, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(typ domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var clockStart = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	engine *allocation.Engine
	events *recorder
	actor  uuid.UUID
	helper uuid.UUID // skill category used by most tests

	mu  sync.Mutex
	now time.Time
	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:  memory.New(),
		events: &recorder{},
		actor:  uuid.New(),
		helper: uuid.New(),
		now:    clockStart,
	}
	f.engine = allocation.New(f.store,
		allocation.WithClock(f.tick),
		allocation.WithNotifier(f.events),
	)
	return f
}

// tick advances the clock by one minute per call so records are ordered.
func (f *fixture) tick() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Minute)
	return f.now
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type workerOpt func(*domain.Worker)

func coded(code string) workerOpt {
	return func(w *domain.Worker) { w.Code = &code }
}

func whiteCollar() workerOpt {
	return func(w *domain.Worker) { w.Type = domain.WorkerTypeWhiteCollar }
}

func skills(ids ...uuid.UUID) workerOpt {
	return func(w *domain.Worker) { w.SkillIDs = ids }
}

func (f *fixture) addWorker(stage domain.WorkerStage, opts ...workerOpt) *domain.Worker {
	f.mu.Lock()
	f.seq++
	name := fmt.Sprintf("worker-%02d", f.seq)
	f.mu.Unlock()

	w := &domain.Worker{
		ID:        uuid.New(),
		Name:      name,
		Type:      domain.WorkerTypeBlueCollar,
		Stage:     stage,
		SkillIDs:  []uuid.UUID{f.helper},
		CreatedAt: clockStart,
		UpdatedAt: clockStart,
	}
	for _, opt := range opts {
		opt(w)
	}
	f.store.PutWorker(w)
	return w
}

type projectOpt func(*domain.Project)

func dated(start, end *time.Time) projectOpt {
	return func(p *domain.Project) {
		p.StartDate = start
		p.EndDate = end
	}
}

func requires(skillID uuid.UUID, name string, count int) projectOpt {
	return func(p *domain.Project) {
		p.Requirements = append(p.Requirements, domain.ResourceRequirement{
			ProjectID:       p.ID,
			SkillCategoryID: skillID,
			SkillName:       name,
			RequiredCount:   count,
		})
	}
}

func started(at *time.Time) projectOpt {
	return func(p *domain.Project) { p.ActualStartDate = at }
}

func (f *fixture) addProject(stage domain.ProjectStage, opts ...projectOpt) *domain.Project {
	p := &domain.Project{
		ID:            uuid.New(),
		Name:          "project-" + uuid.NewString()[:8],
		LaborCategory: domain.WorkerTypeBlueCollar,
		Stage:         stage,
		CreatedAt:     clockStart,
		UpdatedAt:     clockStart,
	}
	for _, opt := range opts {
		opt(p)
	}
	f.store.PutProject(p)
	return p
}

// placeWorker seeds an active assignment in the given stage and mirrors the
// worker stage, bypassing the engine.
func (f *fixture) placeWorker(p *domain.Project, w *domain.Worker, stage domain.AssignmentStage) *domain.Assignment {
	a := domain.NewAssignment(p.ID, w.ID, &f.helper, f.actor, clockStart)
	switch stage {
	case domain.AssignmentStageAssigned:
		a.Share(clockStart)
	case domain.AssignmentStageOnSite:
		a.Share(clockStart)
		a.Deploy(clockStart)
	}
	f.store.PutAssignment(a)

	ws, _ := stage.WorkerStage()
	w.Stage = ws
	f.store.PutWorker(w)
	return a
}

func (f *fixture) worker(t *testing.T, id uuid.UUID) *domain.Worker {
	t.Helper()
	w, ok := f.store.Worker(id)
	if !ok {
		t.Fatalf("worker %s not in store", id)
	}
	return w
}

func (f *fixture) project(t *testing.T, id uuid.UUID) *domain.Project {
	t.Helper()
	p, ok := f.store.Project(id)
	if !ok {
		t.Fatalf("project %s not in store", id)
	}
	return p
}

func (f *fixture) assignment(t *testing.T, id uuid.UUID) *domain.Assignment {
	t.Helper()
	for _, a := range f.store.Assignments() {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("assignment %s not in store", id)
	return nil
}

func (f *fixture) historyOf(entity domain.EntityType, id uuid.UUID) []*domain.StageTransitionRecord {
	var out []*domain.StageTransitionRecord
	for _, rec := range f.store.History() {
		if rec.EntityType == entity && rec.EntityID == id {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fixture) transition(t *testing.T, p *domain.Project, to domain.ProjectStage, attribution *domain.HoldAttribution) (*domain.Project, error) {
	t.Helper()
	return f.engine.Lifecycle.Transition(t.Context(), allocation.TransitionRequest{
		ProjectID:   p.ID,
		To:          to,
		Attribution: attribution,
		Reason:      "test",
		ActorID:     f.actor,
	})
}

func attribution(a domain.HoldAttribution) *domain.HoldAttribution {
	return &a
}
