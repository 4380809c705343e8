package events

import (
	"context"
	"log/slog"
	"sync"

	"bridgecore/core/types"
)

// Event represents a structured record emitted by a contract operation.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Flattener is implemented by events that have a flat attribute form.
type Flattener interface {
	Event() *types.Event
}

// LogEmitter writes each event as a log line. NEP-297 events are written in
// their EVENT_JSON form so indexers can tail the log; flat attributes go in
// an "attributes" group.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(evt Event) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{slog.String("event", evt.EventType())}
	if std, ok := evt.(StandardEvent); ok {
		line, err := LogLine(std)
		if err != nil {
			logger.Error("event encoding failed", slog.String("event", evt.EventType()), slog.Any("error", err))
			return
		}
		attrs = append(attrs, slog.String("log", line))
	}
	if flat, ok := evt.(Flattener); ok {
		if record := flat.Event(); record != nil {
			group := make([]any, 0, len(record.Attributes))
			for _, k := range record.Keys() {
				group = append(group, slog.String(k, record.Attributes[k]))
			}
			attrs = append(attrs, slog.Group("attributes", group...))
		}
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "contract event", attrs...)
}

// Fanout forwards events to every emitter in order.
type Fanout []Emitter

func (f Fanout) Emit(evt Event) {
	for _, e := range f {
		if e != nil {
			e.Emit(evt)
		}
	}
}
