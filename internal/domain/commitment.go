package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CommitmentKind distinguishes what is holding a worker's time.
type CommitmentKind string

const (
	CommitmentProject  CommitmentKind = "project"
	CommitmentTraining CommitmentKind = "training"
)

// Commitment is an existing claim on a worker's calendar: an active project
// assignment or a training enrollment.
type Commitment struct {
	Kind  CommitmentKind
	ID    uuid.UUID // project or training batch ID
	Name  string
	Range DateRange
}

// Conflict is a commitment that overlaps a proposed date range.
type Conflict struct {
	Commitment
	OverlapDays int
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %q (%s, %d day overlap)", c.Kind, c.Name, c.Range, c.OverlapDays)
}

// TrainingStatus tracks a worker's enrollment in a training batch.
type TrainingStatus string

const (
	TrainingEnrolled  TrainingStatus = "enrolled"
	TrainingCompleted TrainingStatus = "completed"
	TrainingDropped   TrainingStatus = "dropped"
)

// TrainingEnrollment places a worker in a dated training batch.
type TrainingEnrollment struct {
	ID        uuid.UUID
	WorkerID  uuid.UUID
	BatchID   uuid.UUID
	BatchName string
	Range     DateRange
	Status    TrainingStatus
}

// Active reports whether the enrollment still blocks the worker's calendar.
func (e *TrainingEnrollment) Active() bool {
	return e.Status == TrainingEnrolled
}
