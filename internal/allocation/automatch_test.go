package allocation_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/store/memory"
)

func TestAutoMatch_FillsRemainingOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.addProject(domain.ProjectStagePlanningResources, requires(f.helper, "Helper", 3))
	first := f.addWorker(domain.WorkerStageBenched, coded("WRK-000001"))
	_, err := f.engine.Assignments.AssignForSkill(t.Context(), p.ID, first.ID, f.helper, f.actor)
	require.NoError(t, err)

	for range 5 {
		f.addWorker(domain.WorkerStageTrained)
	}

	res, err := f.engine.Matcher.AutoMatch(t.Context(), p.ID, f.helper, f.actor)
	require.NoError(t, err)
	assert.Len(t, res.Matched, 2)
	assert.Equal(t, 0, res.StillNeeded)
	assert.Empty(t, res.Errors)

	active, err := f.engine.Assignments.ListActive(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	// A second run is a no-op.
	res, err = f.engine.Matcher.AutoMatch(t.Context(), p.ID, f.helper, f.actor)
	require.NoError(t, err)
	assert.Empty(t, res.Matched)
	assert.Equal(t, 0, res.StillNeeded)
}

func TestAutoMatch_PoolExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.addProject(domain.ProjectStagePlanningResources, requires(f.helper, "Helper", 4))
	f.addWorker(domain.WorkerStageBenched, coded("WRK-000001"))
	f.addWorker(domain.WorkerStageTrained)
	f.addWorker(domain.WorkerStageInTraining)                  // not allocatable
	f.addWorker(domain.WorkerStageTrained, whiteCollar())      // wrong labor category
	f.addWorker(domain.WorkerStageTrained, skills(uuid.New())) // wrong skill

	res, err := f.engine.Matcher.AutoMatch(t.Context(), p.ID, f.helper, f.actor)
	require.NoError(t, err)
	assert.Len(t, res.Matched, 2)
	assert.Equal(t, 2, res.StillNeeded)
}

func TestAutoMatch_SkipsConflictedCandidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.addProject(domain.ProjectStagePlanningResources,
		dated(date(2026, 7, 1), date(2026, 7, 31)),
		requires(f.helper, "Helper", 2),
	)
	busy := f.addWorker(domain.WorkerStageBenched, coded("WRK-000001"))
	f.store.PutTraining(&domain.TrainingEnrollment{
		ID:        uuid.New(),
		WorkerID:  busy.ID,
		BatchID:   uuid.New(),
		BatchName: "Safety refresher",
		Range:     domain.NewDateRange(*date(2026, 7, 10), *date(2026, 7, 12)),
		Status:    domain.TrainingEnrolled,
	})
	free := f.addWorker(domain.WorkerStageBenched, coded("WRK-000002"))

	preview, err := f.engine.Matcher.Preview(t.Context(), p.ID, f.helper)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.Required)
	assert.Equal(t, 0, preview.Active)
	assert.Equal(t, 2, preview.Remaining)
	require.Len(t, preview.Candidates, 2)
	assert.Equal(t, busy.ID, preview.Candidates[0].Worker.ID, "ordered by code")
	assert.False(t, preview.Candidates[0].Available())
	assert.True(t, preview.Candidates[1].Available())

	res, err := f.engine.Matcher.AutoMatch(t.Context(), p.ID, f.helper, f.actor)
	require.NoError(t, err)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, free.ID, res.Matched[0].WorkerID)
	assert.Equal(t, 1, res.StillNeeded)
	assert.Equal(t, domain.WorkerStageBenched, f.worker(t, busy.ID).Stage)
}

func TestPreview_OrdersBenchedBeforeTrained(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	p := f.addProject(domain.ProjectStagePlanningResources, requires(f.helper, "Helper", 5))
	trained := f.addWorker(domain.WorkerStageTrained, coded("WRK-000001"))
	candidate := f.addWorker(domain.WorkerStageTrained)
	benched := f.addWorker(domain.WorkerStageBenched, coded("WRK-000009"))

	preview, err := f.engine.Matcher.Preview(t.Context(), p.ID, f.helper)
	require.NoError(t, err)
	require.Len(t, preview.Candidates, 3)
	assert.Equal(t, benched.ID, preview.Candidates[0].Worker.ID)
	assert.Equal(t, trained.ID, preview.Candidates[1].Worker.ID)
	assert.Equal(t, candidate.ID, preview.Candidates[2].Worker.ID)

	// Preview never writes.
	assert.Empty(t, f.store.History())
	assert.Empty(t, f.store.Assignments())
}

func TestPreview_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.engine.Matcher.Preview(t.Context(), uuid.New(), f.helper)
	require.ErrorIs(t, err, domain.ErrNotFound)

	p := f.addProject(domain.ProjectStagePlanningResources)
	_, err = f.engine.Matcher.Preview(t.Context(), p.ID, f.helper)
	require.ErrorIs(t, err, domain.ErrValidation)

	closed := f.addProject(domain.ProjectStageCompleted, requires(f.helper, "Helper", 1))
	_, err = f.engine.Matcher.AutoMatch(t.Context(), closed.ID, f.helper, f.actor)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAutoMatch_MaxPoolBoundsCandidates(t *testing.T) {
	t.Parallel()

	store := memory.New()
	helper := uuid.New()
	engine := allocation.New(store, allocation.WithMaxPool(2))

	p := &domain.Project{
		ID:            uuid.New(),
		Name:          "bounded",
		LaborCategory: domain.WorkerTypeBlueCollar,
		Stage:         domain.ProjectStagePlanningResources,
		Requirements:  []domain.ResourceRequirement{{SkillCategoryID: helper, SkillName: "Helper", RequiredCount: 10}},
	}
	p.Requirements[0].ProjectID = p.ID
	store.PutProject(p)
	for range 4 {
		store.PutWorker(&domain.Worker{
			ID:       uuid.New(),
			Type:     domain.WorkerTypeBlueCollar,
			Stage:    domain.WorkerStageTrained,
			SkillIDs: []uuid.UUID{helper},
		})
	}

	preview, err := engine.Matcher.Preview(t.Context(), p.ID, helper)
	require.NoError(t, err)
	assert.Len(t, preview.Candidates, 2)
}
