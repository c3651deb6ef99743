package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType names an account operation recorded in the audit trail.
type EventType string

const (
	EventSignup               EventType = "signup"
	EventVerification         EventType = "verification"
	EventVerificationResend   EventType = "verification_resend"
	EventLoginSuccess         EventType = "login_success"
	EventLoginFailure         EventType = "login_failure"
	EventLoginCodeRequest     EventType = "login_code_request"
	EventExternalLogin        EventType = "external_login"
	EventAccountLocked        EventType = "account_locked"
	EventLockoutReleased      EventType = "lockout_released"
	EventRefreshSuccess       EventType = "refresh_success"
	EventRefreshInvalid       EventType = "refresh_invalid"
	EventPasswordResetRequest EventType = "password_reset_request"
	EventPasswordResetConfirm EventType = "password_reset_confirm"
	EventAccountStatusChange  EventType = "account_status_change"
	EventRoleChange           EventType = "role_change"
	EventDeliveryFailure      EventType = "delivery_failure"
)

// Event is one audit record. Error holds a stable code, never error text,
// and Metadata never carries passwords, codes or tokens.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives events from the dispatcher goroutine. Emit must not retain
// event.Metadata after returning.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// MultiSink forwards every event to each sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}

// ChannelSink hands events to a consumer over a buffered channel. Emit
// blocks while the buffer is full, until ctx ends.
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

// Events is the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes newline-delimited JSON, one event per line.
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
	_ = s.enc.Encode(event)
	s.mu.Unlock()
}
