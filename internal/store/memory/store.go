// Package memory provides an in-memory transactional store. Each transaction
// works on a private copy of the whole state which replaces the committed state
// only when the transaction function returns nil.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/crewhub/internal/domain"
)

type state struct {
	workers     map[uuid.UUID]domain.Worker
	projects    map[uuid.UUID]domain.Project
	assignments map[uuid.UUID]domain.Assignment
	trainings   map[uuid.UUID]domain.TrainingEnrollment
	history     []domain.StageTransitionRecord
	codeSeq     int
}

func newState() *state {
	return &state{
		workers:     map[uuid.UUID]domain.Worker{},
		projects:    map[uuid.UUID]domain.Project{},
		assignments: map[uuid.UUID]domain.Assignment{},
		trainings:   map[uuid.UUID]domain.TrainingEnrollment{},
	}
}

func (s *state) clone() *state {
	return &state{
		workers:     maps.Clone(s.workers),
		projects:    maps.Clone(s.projects),
		assignments: maps.Clone(s.assignments),
		trainings:   maps.Clone(s.trainings),
		history:     slices.Clone(s.history),
		codeSeq:     s.codeSeq,
	}
}

// Store is a domain.TxRunner backed by process memory. Transactions are fully
// serialized by a single mutex.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ domain.TxRunner = (*Store)(nil) //nolint:gochecknoglobals // compile-time check

func New() *Store {
	return &Store{state: newState()}
}

// InTx runs fn against a private copy of the state and commits it on success.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory.Store.InTx: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.state = work

	return nil
}

// PutWorker inserts or replaces a worker outside of any transaction.
func (s *Store) PutWorker(w *domain.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.workers[w.ID] = copyWorker(w)
}

// PutProject inserts or replaces a project outside of any transaction.
func (s *Store) PutProject(p *domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.projects[p.ID] = copyProject(p)
}

// PutAssignment inserts or replaces an assignment outside of any transaction.
func (s *Store) PutAssignment(a *domain.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.assignments[a.ID] = *a
}

// PutTraining inserts or replaces a training enrollment.
func (s *Store) PutTraining(e *domain.TrainingEnrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.trainings[e.ID] = *e
}

// Worker returns a copy of the committed worker row, deleted or not.
func (s *Store) Worker(id uuid.UUID) (*domain.Worker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.state.workers[id]
	if !ok {
		return nil, false
	}
	out := copyWorker(&w)
	return &out, true
}

// Project returns a copy of the committed project row.
func (s *Store) Project(id uuid.UUID) (*domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.projects[id]
	if !ok {
		return nil, false
	}
	out := copyProject(&p)
	return &out, true
}

// Assignments returns copies of every committed assignment.
func (s *Store) Assignments() []*domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Assignment, 0, len(s.state.assignments))
	for _, a := range s.state.assignments {
		out = append(out, &a)
	}
	slices.SortFunc(out, func(a, b *domain.Assignment) int { return a.MatchedAt.Compare(b.MatchedAt) })
	return out
}

// History returns every committed audit record in append order.
func (s *Store) History() []*domain.StageTransitionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.StageTransitionRecord, 0, len(s.state.history))
	for i := range s.state.history {
		rec := s.state.history[i]
		out = append(out, &rec)
	}
	return out
}

func copyWorker(w *domain.Worker) domain.Worker {
	out := *w
	out.SkillIDs = slices.Clone(w.SkillIDs)
	return out
}

func copyProject(p *domain.Project) domain.Project {
	out := *p
	out.Requirements = slices.Clone(p.Requirements)
	return out
}
