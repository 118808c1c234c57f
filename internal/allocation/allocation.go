// Package allocation is the worker allocation and project lifecycle engine.
//
// Every state-changing operation runs in exactly one transaction that covers
// the domain rows, the worker stage writes and the audit records. Bulk
// operations run one transaction per item. Notifications are sent only after
// a transaction commits and never affect its outcome.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuda/crewhub/internal/domain"
)

// Notifier receives committed-change events. Implementations must not block
// for long and must swallow their own delivery failures.
type Notifier interface {
	Notify(ctx context.Context, ev domain.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Event) {}

// DefaultMaxPool bounds how many eligible workers a single auto-match looks at.
const DefaultMaxPool = 500

type options struct {
	now      func() time.Time
	maxPool  int
	notifier Notifier
}

// Option customizes an Engine.
type Option func(*options)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMaxPool bounds the auto-match candidate query.
func WithMaxPool(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPool = n
		}
	}
}

// WithNotifier sets the sink for committed-change events.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// Engine bundles the allocation components over one store.
type Engine struct {
	History      *StageHistoryLog
	Availability *AvailabilityIndex
	Validator    *AssignmentValidator
	Assignments  *AssignmentService
	Sync         *WorkerStageSync
	Lifecycle    *ProjectLifecycleStateMachine
	Matcher      *AutoMatcher
	Requirements *RequirementPlanner
}

// New wires every component against runner.
func New(runner domain.TxRunner, opts ...Option) *Engine {
	o := options{now: time.Now, maxPool: DefaultMaxPool, notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(&o)
	}
	now := func() time.Time { return o.now().UTC() }

	history := NewStageHistoryLog(runner)
	availability := NewAvailabilityIndex(runner)
	validator := NewAssignmentValidator(runner, availability)
	assignments := NewAssignmentService(runner, validator, history, o.notifier, now)
	sync := NewWorkerStageSync(history)

	return &Engine{
		History:      history,
		Availability: availability,
		Validator:    validator,
		Assignments:  assignments,
		Sync:         sync,
		Lifecycle:    NewProjectLifecycleStateMachine(runner, history, sync, o.notifier, now),
		Matcher:      NewAutoMatcher(runner, availability, assignments, o.maxPool),
		Requirements: NewRequirementPlanner(runner, history, now),
	}
}

// wrapErr prefixes err with op and classifies unknown store failures as
// domain.ErrInternal.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKnown(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrInternal, err)
}

func notifyAll(ctx context.Context, n Notifier, events []domain.Event) {
	for _, ev := range events {
		n.Notify(ctx, ev)
	}
}
