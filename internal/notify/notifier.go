package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/crewhub/internal/allocation"
	"github.com/gosuda/crewhub/internal/domain"
	"github.com/gosuda/crewhub/internal/messenger"
)

// ErrPlatformNotFound is returned when a messenger platform is not registered.
var ErrPlatformNotFound = errors.New("notify: platform not found") //nolint:gochecknoglobals // sentinel error

const (
	defaultTimeout   = 5 * time.Second
	defaultQueueSize = 1024
)

// MessengerRegistry maps platform names to Messenger implementations.
type MessengerRegistry interface {
	Get(platform string) (messenger.Messenger, bool)
}

// EventPublisher fans an event out to live subscribers (redis pub/sub).
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev domain.Event) error
}

// Route sends events to one chat channel. An empty Types list matches every
// event type.
type Route struct {
	Platform  string
	ChannelID string
	Types     []domain.EventType
}

func (r Route) matches(t domain.EventType) bool {
	return len(r.Types) == 0 || slices.Contains(r.Types, t)
}

// Notifier delivers committed allocation events. Notify only enqueues; a
// single worker goroutine publishes and posts each event in order. Delivery
// failures are logged and never reach the caller: the change they describe is
// already committed.
type Notifier struct {
	publisher  EventPublisher
	messengers MessengerRegistry
	routes     []Route
	timeout    time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.Event
	done   chan struct{}
}

var _ allocation.Notifier = (*Notifier)(nil) //nolint:gochecknoglobals // compile-time check

// New creates a Notifier and starts its delivery worker. publisher may be nil
// when no pub/sub is configured. Call Close to drain pending events.
func New(publisher EventPublisher, messengers MessengerRegistry, routes ...Route) *Notifier {
	return NewWithQueue(defaultQueueSize, publisher, messengers, routes...)
}

// NewWithQueue is New with an explicit queue capacity. Events arriving while
// the queue is full are dropped with a warning.
func NewWithQueue(size int, publisher EventPublisher, messengers MessengerRegistry, routes ...Route) *Notifier {
	if size < 1 {
		size = 1
	}
	n := &Notifier{
		publisher:  publisher,
		messengers: messengers,
		routes:     routes,
		timeout:    defaultTimeout,
		queue:      make(chan domain.Event, size),
		done:       make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.queue {
		n.Deliver(context.Background(), ev)
	}
}

// Notify queues ev for delivery and returns immediately.
func (n *Notifier) Notify(_ context.Context, ev domain.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		log.Warn().Str("event", string(ev.Type)).Stringer("project_id", ev.ProjectID).
			Msg("notify.Notifier.Notify: closed, event dropped")
		return
	}

	select {
	case n.queue <- ev:
	default:
		log.Warn().Str("event", string(ev.Type)).Stringer("project_id", ev.ProjectID).
			Int("capacity", cap(n.queue)).
			Msg("notify.Notifier.Notify: queue full, event dropped")
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify.Notifier.Close: %d events undelivered: %w", len(n.queue), ctx.Err())
	}
}

// Deliver publishes ev and posts it to every matching route, synchronously.
// Each event gets its own timeout, detached from ctx cancellation.
func (n *Notifier) Deliver(ctx context.Context, ev domain.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if n.publisher != nil {
		if err := n.publisher.PublishEvent(ctx, ev); err != nil {
			log.Warn().Err(err).Str("event", string(ev.Type)).Stringer("project_id", ev.ProjectID).
				Msg("notify.Notifier.Deliver: publish failed")
		}
	}

	for _, route := range n.routes {
		if !route.matches(ev.Type) {
			continue
		}
		if err := n.NotifyVia(ctx, route.Platform, route.ChannelID, ev); err != nil {
			log.Warn().Err(err).Str("event", string(ev.Type)).Str("platform", route.Platform).
				Msg("notify.Notifier.Deliver: chat delivery failed")
		}
	}
}

// NotifyVia posts ev to a specific platform channel.
func (n *Notifier) NotifyVia(ctx context.Context, platform, channelID string, ev domain.Event) error {
	msg, ok := n.messengers.Get(platform)
	if !ok {
		return fmt.Errorf("notify.Notifier.NotifyVia: platform %q: %w", platform, ErrPlatformNotFound)
	}

	if _, err := msg.SendMessage(ctx, channelID, FormatEvent(ev)); err != nil {
		return fmt.Errorf("notify.Notifier.NotifyVia: send: %w", err)
	}

	return nil
}

// FormatEvent renders an event as a chat message.
func FormatEvent(ev domain.Event) messenger.Message {
	var title string
	switch ev.Type {
	case domain.EventProjectStageChanged:
		title = fmt.Sprintf("Project moved %s -> %s", ev.From, ev.To)
	case domain.EventWorkerStageChanged:
		title = fmt.Sprintf("Worker stage %s -> %s", ev.From, ev.To)
	case domain.EventWorkerAssigned:
		title = "Worker assigned"
	case domain.EventWorkerRemoved:
		title = "Worker removed"
	default:
		title = string(ev.Type)
	}

	fields := []messenger.Field{{Label: "Project", Value: ev.ProjectID.String()}}
	if ev.WorkerID != nil {
		fields = append(fields, messenger.Field{Label: "Worker", Value: ev.WorkerID.String()})
	}
	if ev.AssignmentID != nil {
		fields = append(fields, messenger.Field{Label: "Assignment", Value: ev.AssignmentID.String()})
	}
	if ev.Reason != "" {
		fields = append(fields, messenger.Field{Label: "Reason", Value: ev.Reason})
	}
	fields = append(fields, messenger.Field{Label: "At", Value: ev.OccurredAt.Format(time.RFC3339)})

	return messenger.Message{Title: title, Fields: fields}
}
