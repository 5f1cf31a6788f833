package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type flakySink struct {
	failures int32
	calls    atomic.Int32
	rec      Recorder
}

func (s *flakySink) Name() string { return "flaky" }

func (s *flakySink) Deliver(ctx context.Context, ev Event) error {
	if s.calls.Add(1) <= s.failures {
		return errors.New("broker unavailable")
	}
	return s.rec.Deliver(ctx, ev)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runBroadcaster(t *testing.T, b *Broadcaster) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("broadcaster did not stop")
		}
	}
}

func TestBroadcaster(t *testing.T) {
	t.Run("delivers to every sink in order", func(t *testing.T) {
		var a, b Recorder
		br := NewBroadcaster([]Sink{&a, &b}, WithLogger(quietLogger()))
		stop := runBroadcaster(t, br)

		br.Publish(context.Background(), Event{Name: GroupCreated, GroupID: "g1"})
		br.Publish(context.Background(), Event{Name: GroupInvitation, GroupID: "g1"})
		stop()

		for _, r := range []*Recorder{&a, &b} {
			names := r.Names()
			if len(names) != 2 || names[0] != GroupCreated || names[1] != GroupInvitation {
				t.Errorf("unexpected events: %v", names)
			}
		}
		if a.Events()[0].OccurredAt.IsZero() {
			t.Error("expected OccurredAt to be stamped")
		}
	})

	t.Run("retries failed deliveries", func(t *testing.T) {
		sink := &flakySink{failures: 2}
		var mu sync.Mutex
		var observed []error
		br := NewBroadcaster([]Sink{sink},
			WithLogger(quietLogger()),
			WithMaxAttempts(3),
			WithBackoff(time.Millisecond),
			WithObserver(func(_ Event, _ string, err error) {
				mu.Lock()
				observed = append(observed, err)
				mu.Unlock()
			}),
		)
		stop := runBroadcaster(t, br)
		br.Publish(context.Background(), Event{Name: TransactionCreated})
		stop()

		if got := sink.calls.Load(); got != 3 {
			t.Errorf("expected 3 attempts, got %d", got)
		}
		if len(sink.rec.Events()) != 1 {
			t.Errorf("expected the event to be delivered once")
		}
		if len(observed) != 1 || observed[0] != nil {
			t.Errorf("expected one successful observation, got %v", observed)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		sink := &flakySink{failures: 10}
		var failed atomic.Int32
		br := NewBroadcaster([]Sink{sink},
			WithLogger(quietLogger()),
			WithMaxAttempts(2),
			WithBackoff(time.Millisecond),
			WithObserver(func(_ Event, _ string, err error) {
				if err != nil {
					failed.Add(1)
				}
			}),
		)
		stop := runBroadcaster(t, br)
		br.Publish(context.Background(), Event{Name: TransactionDeleted})
		stop()

		if got := sink.calls.Load(); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
		if failed.Load() != 1 {
			t.Errorf("expected one failed observation, got %d", failed.Load())
		}
	})

	t.Run("publish never blocks when the queue is full", func(t *testing.T) {
		br := NewBroadcaster(nil, WithLogger(quietLogger()), WithBuffer(1))

		done := make(chan struct{})
		go func() {
			br.Publish(context.Background(), Event{Name: GroupCreated})
			br.Publish(context.Background(), Event{Name: GroupCreated})
			br.Publish(context.Background(), Event{Name: GroupCreated})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full queue")
		}
		if len(br.queue) != 1 {
			t.Errorf("expected one queued event, got %d", len(br.queue))
		}
	})
}

func TestDeliverToStopsWhenContextDone(t *testing.T) {
	sink := &flakySink{failures: 10}
	br := NewBroadcaster([]Sink{sink},
		WithLogger(quietLogger()),
		WithMaxAttempts(5),
		WithBackoff(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := br.deliverTo(ctx, sink, Event{Name: TransactionCreated})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("retry wait ignored cancellation, took %v", elapsed)
	}
	if got := sink.calls.Load(); got != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", got)
	}
}
