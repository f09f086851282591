package channel

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/talkio/realtime-client/internal/domain/model"
)

// Handler consumes one frame for a topic it subscribed to.
type Handler func(frame *model.Frame)

// Subscriber is the host-facing subscription surface of the channel.
type Subscriber interface {
	On(event string, h Handler) uuid.UUID
	Off(event string, id uuid.UUID)
}

// Registry holds open-ended handler sets keyed by event name. Fan-out is
// synchronous and in registration order; a panicking handler never breaks
// delivery to the handlers behind it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	logger   *slog.Logger
}

type subscription struct {
	id uuid.UUID
	fn Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// On registers a handler for the event and returns its subscription ID,
// which Off needs because Go functions are not comparable.
func (r *Registry) On(event string, h Handler) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.handlers[event] = append(r.handlers[event], subscription{id: id, fn: h})
	r.mu.Unlock()
	return id
}

// Off removes the subscription; unknown IDs are a no-op.
func (r *Registry) Off(event string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.handlers[event]
	for i, s := range subs {
		if s.id == id {
			r.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Dispatch fans the frame out to every handler registered for its event.
func (r *Registry) Dispatch(frame *model.Frame) {
	r.mu.RLock()
	subs := r.handlers[frame.Event]
	r.mu.RUnlock()

	for _, s := range subs {
		r.invoke(s, frame)
	}
}

func (r *Registry) invoke(s subscription, frame *model.Frame) {
	// [PANIC_RECOVERY] A subscriber's callback must not corrupt channel
	// state or starve its siblings.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber handler panicked",
				"event", frame.Event,
				"subscription_id", s.id,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.fn(frame)
}

// Clear drops every registration. Called on explicit disconnect.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.handlers = make(map[string][]subscription)
	r.mu.Unlock()
}

// Len reports the total number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, subs := range r.handlers {
		n += len(subs)
	}
	return n
}
