package events

import (
	"log/slog"
	"sync"

	"serpledger/core/types"
)

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Renderer is implemented by events that expose a string attribute map for
// downstream consumers (audit logs, indexers).
type Renderer interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers. The ledger treats the
// emitter as an injected capability; every successful mutation is paired with
// exactly one emission.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder retains emitted events in order. It backs tests and in-process
// audit consumers.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogEmitter writes every event to a structured logger.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{slog.String("event", evt.EventType())}
	if renderer, ok := evt.(Renderer); ok {
		if rendered := renderer.Event(); rendered != nil {
			for key, value := range rendered.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	logger.Info("ledger event", args...)
}
