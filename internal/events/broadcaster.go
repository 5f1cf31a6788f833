package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultBuffer      = 256
	defaultMaxAttempts = 3
	defaultBackoff     = 200 * time.Millisecond
)

// Broadcaster fans events out to its sinks from a single goroutine.
type Broadcaster struct {
	queue       chan Event
	sinks       []Sink
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
	observe     func(ev Event, sink string, err error)
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithBuffer sets the queue capacity.
func WithBuffer(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.queue = make(chan Event, n)
		}
	}
}

// WithMaxAttempts sets how often delivery to one sink is tried.
func WithMaxAttempts(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithBackoff sets the wait before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) { b.backoff = d }
}

// WithLogger sets the broadcaster logger.
func WithLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) { b.logger = logger }
}

// WithObserver registers a hook called once per event and sink with the
// final delivery error, or nil.
func WithObserver(fn func(ev Event, sink string, err error)) BroadcasterOption {
	return func(b *Broadcaster) { b.observe = fn }
}

// NewBroadcaster builds a Broadcaster. Call Run to start delivery.
func NewBroadcaster(sinks []Sink, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		queue:       make(chan Event, defaultBuffer),
		sinks:       sinks,
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish queues ev. When the queue is full the event is dropped.
func (b *Broadcaster) Publish(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case b.queue <- ev:
	default:
		b.logger.WarnContext(ctx, "event queue full, dropping event", "event", ev.Name)
	}
}

// Run delivers queued events until ctx is cancelled, then delivers what is
// still queued and returns.
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		case <-ctx.Done():
			b.drain()
			return nil
		}
	}
}

func (b *Broadcaster) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (b *Broadcaster) deliver(ctx context.Context, ev Event) {
	for _, sink := range b.sinks {
		err := b.deliverTo(ctx, sink, ev)
		if err != nil {
			b.logger.ErrorContext(ctx, "event delivery failed",
				"event", ev.Name,
				"sink", sink.Name(),
				"error", err,
			)
		}
		if b.observe != nil {
			b.observe(ev, sink.Name(), err)
		}
	}
}

// deliverTo tries sink up to maxAttempts times, doubling the wait between
// attempts, and gives up early when ctx is done.
func (b *Broadcaster) deliverTo(ctx context.Context, sink Sink, ev Event) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = b.backoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, sink.Deliver(ctx, ev)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(b.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			b.logger.DebugContext(ctx, "retrying event delivery",
				"event", ev.Name,
				"sink", sink.Name(),
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}),
	)
	return err
}
