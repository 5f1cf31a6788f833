package events

import (
	"context"
	"log/slog"
	"sync"
)

// LogSink writes each event to a logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that logs at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, ev Event) error {
	s.logger.InfoContext(ctx, "change event",
		"event", ev.Name,
		"actor_id", ev.ActorID,
		"group_id", ev.GroupID,
		"invitation_id", ev.InvitationID,
		"modification_id", ev.ModificationID,
		"transaction_id", ev.TransactionID,
		"status", ev.Status,
	)
	return nil
}

// Recorder keeps published events in memory. It is both a Publisher and a
// Sink, which makes it useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Publish(ctx context.Context, ev Event) {
	_ = r.Deliver(ctx, ev)
}

func (r *Recorder) Deliver(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []Name {
	evs := r.Events()
	out := make([]Name, len(evs))
	for i, ev := range evs {
		out[i] = ev.Name
	}
	return out
}
