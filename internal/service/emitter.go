package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from how changes are announced
// ─────────────────────────────────────────────────────────────

// Change events emitted by the services.
const (
	EventButtonsChanged  = "buttons:changed"
	EventSectionsChanged = "sections:changed"
	EventPageChanged     = "page:changed"
	EventPageDeleted     = "page:deleted"
	EventContentSaved    = "content:saved"
	EventConfigChanged   = "site-config:changed"
	EventFileUploaded    = "file:uploaded"
	EventMetricsRolledUp = "metrics:rolled-up"
	EventSessionExpired  = "auth:session-expired"
)

// EventEmitter is how services announce changes. Services receive this
// interface so they stay testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the structured log.
type LogEmitter struct {
	Logger *zap.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Logger.Debug("event", zap.String("event", event), zap.Any("data", data))
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}
