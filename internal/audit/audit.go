package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event is one audit record produced by the validation engine: a
// rejected or accepted validation, an access-policy denial, or an
// explicit cache invalidation. PublicID and SessionID identify the
// principal and session involved when known; Error carries the stable
// machine-readable code, not the raw error text.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	PublicID  string            `json:"public_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink consumes emitted events. Implementations must tolerate
// concurrent calls; slow sinks apply backpressure to the dispatcher,
// not to the request path.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink buffers events on a channel for consumption by tests or a
// caller-owned drain loop. When the buffer is full, Emit blocks until a
// reader catches up or ctx is done.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving side of the buffer.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink appends events to an [io.Writer] as newline-delimited
// JSON, one object per event. Writes are serialized; write errors are
// swallowed because audit output must never fail a request.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}

// FanOutSink delivers each event to every member sink in order. A nil
// member is skipped.
type FanOutSink struct {
	sinks []Sink
}

func NewFanOutSink(sinks ...Sink) *FanOutSink {
	return &FanOutSink{sinks: sinks}
}

func (s *FanOutSink) Emit(ctx context.Context, event Event) {
	if s == nil {
		return
	}
	for _, sink := range s.sinks {
		if sink != nil {
			sink.Emit(ctx, event)
		}
	}
}
