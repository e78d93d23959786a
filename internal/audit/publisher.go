package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	id "cashout/pkg/domain"
)

// Store is the persistence sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. With an
// async buffer, Emit never blocks the domain call path.
type Publisher struct {
	store  Store
	logger *slog.Logger

	events  chan Event
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

// Option configures the publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches Emit to a buffered background worker.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.events = make(chan Event, size)
	}
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}

// Emit records one event, stamping the time if the caller did not. On an
// async publisher a full buffer drops the event rather than stalling the
// domain call path; drops are counted and logged.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.events != nil {
		select {
		case p.events <- event:
		default:
			p.dropped.Add(1)
			p.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", event.Action,
				"dropped_total", p.dropped.Load(),
			)
		}
		return nil
	}
	return p.store.Append(ctx, event)
}

// Dropped reports how many events the async buffer has discarded.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// List returns a user's audit trail.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains the async buffer. Safe to call on sync publishers.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.events != nil {
			close(p.events)
			p.wg.Wait()
		}
	})
}
