package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProjectStage is a project's position in its lifecycle.
type ProjectStage string

const (
	ProjectStagePlanning          ProjectStage = "planning"
	ProjectStageApproved          ProjectStage = "approved"
	ProjectStagePlanningResources ProjectStage = "planning_resources"
	ProjectStageShared            ProjectStage = "shared"
	ProjectStageOngoing           ProjectStage = "ongoing"
	ProjectStageOnHold            ProjectStage = "on_hold"
	ProjectStageCompleted         ProjectStage = "completed"
	ProjectStageShortClosed       ProjectStage = "short_closed"
	ProjectStageTerminated        ProjectStage = "terminated"
	ProjectStageCancelled         ProjectStage = "cancelled"
)

//nolint:gochecknoglobals // fixed transition graph
var projectTransitions = map[ProjectStage][]ProjectStage{
	ProjectStagePlanning:          {ProjectStageApproved, ProjectStageCancelled},
	ProjectStageApproved:          {ProjectStagePlanningResources, ProjectStageCancelled},
	ProjectStagePlanningResources: {ProjectStageShared, ProjectStageCancelled},
	ProjectStageShared:            {ProjectStageOngoing, ProjectStageCancelled},
	ProjectStageOngoing: {
		ProjectStageOnHold, ProjectStageCompleted,
		ProjectStageShortClosed, ProjectStageTerminated,
	},
	ProjectStageOnHold:      {ProjectStageOngoing, ProjectStageTerminated},
	ProjectStageCompleted:   {},
	ProjectStageShortClosed: {},
	ProjectStageTerminated:  {},
	ProjectStageCancelled:   {},
}

// ProjectStages lists every project stage in lifecycle order.
func ProjectStages() []ProjectStage {
	return []ProjectStage{
		ProjectStagePlanning, ProjectStageApproved, ProjectStagePlanningResources,
		ProjectStageShared, ProjectStageOngoing, ProjectStageOnHold,
		ProjectStageCompleted, ProjectStageShortClosed, ProjectStageTerminated, ProjectStageCancelled,
	}
}

// Valid reports whether s is a known project stage.
func (s ProjectStage) Valid() bool {
	_, ok := projectTransitions[s]
	return ok
}

// ValidTransition checks if a project stage transition is an edge of the fixed graph.
func (s ProjectStage) ValidTransition(to ProjectStage) bool {
	for _, next := range projectTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the stages reachable from s in one step.
func (s ProjectStage) AllowedTransitions() []ProjectStage {
	next := projectTransitions[s]
	out := make([]ProjectStage, len(next))
	copy(out, next)
	return out
}

// Terminal reports whether no further transitions are possible.
func (s ProjectStage) Terminal() bool {
	next, ok := projectTransitions[s]
	return ok && len(next) == 0
}

// HoldAttribution names the party accountable for a project being put on hold.
type HoldAttribution string

const (
	HoldByEmployer     HoldAttribution = "employer"
	HoldByOperator     HoldAttribution = "operator"
	HoldByForceMajeure HoldAttribution = "force_majeure"
)

// Valid reports whether a is a known attribution.
func (a HoldAttribution) Valid() bool {
	switch a {
	case HoldByEmployer, HoldByOperator, HoldByForceMajeure:
		return true
	default:
		return false
	}
}

// KeepsWorkersDeployed reports whether workers stay on site during the hold.
// Employer-caused holds keep workers deployed.
func (a HoldAttribution) KeepsWorkersDeployed() bool {
	return a == HoldByEmployer
}

// ResourceRequirement is the number of workers a project needs for one skill.
type ResourceRequirement struct {
	ProjectID       uuid.UUID
	SkillCategoryID uuid.UUID
	SkillName       string
	RequiredCount   int
}

type Project struct {
	ID                uuid.UUID
	Name              string
	LaborCategory     WorkerType
	Stage             ProjectStage
	StartDate         *time.Time
	EndDate           *time.Time
	ActualStartDate   *time.Time
	ActualEndDate     *time.Time
	HoldAttribution   *HoldAttribution
	StageChangedAt    *time.Time
	StageChangeReason string
	Requirements      []ResourceRequirement
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PlannedRange returns the planned date range when both ends are set.
func (p *Project) PlannedRange() (DateRange, bool) {
	if p.StartDate == nil || p.EndDate == nil {
		return DateRange{}, false
	}
	return NewDateRange(*p.StartDate, *p.EndDate), true
}

// Started reports whether the project has actually begun.
func (p *Project) Started() bool {
	return p.ActualStartDate != nil
}

// Requirement returns the requirement row for a skill category.
func (p *Project) Requirement(skillID uuid.UUID) (ResourceRequirement, bool) {
	for _, r := range p.Requirements {
		if r.SkillCategoryID == skillID {
			return r, true
		}
	}
	return ResourceRequirement{}, false
}

// ChangeStage applies a validated stage change and returns its audit record.
// Callers are responsible for stage-specific preconditions.
func (p *Project) ChangeStage(to ProjectStage, attribution *HoldAttribution, actorID uuid.UUID, reason string, at time.Time) (*StageTransitionRecord, error) {
	if !p.Stage.ValidTransition(to) {
		return nil, fmt.Errorf("project %s: %s -> %s: %w", p.ID, p.Stage, to, ErrInvalidTransition)
	}

	rec := NewStageTransitionRecord(EntityProject, p.ID, string(p.Stage), string(to), actorID, reason, at)
	if to == ProjectStageOnHold {
		p.HoldAttribution = attribution
		if attribution != nil {
			rec.Metadata["hold_attribution"] = string(*attribution)
		}
	} else {
		p.HoldAttribution = nil
	}

	switch to {
	case ProjectStageOngoing:
		if p.ActualStartDate == nil {
			p.ActualStartDate = &at
		}
	case ProjectStageCompleted, ProjectStageShortClosed, ProjectStageTerminated:
		p.ActualEndDate = &at
	}

	p.Stage = to
	p.StageChangedAt = &at
	p.StageChangeReason = reason
	p.UpdatedAt = at

	return rec, nil
}
