package trigger

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// Engine-fired event names. Authored content may register callbacks for
// arbitrary names; these are the ones the mission manager fires itself.
const (
	EventMissionAccepted    = "mission_accepted"
	EventMissionCompleted   = "mission_completed"
	EventMissionBotched     = "mission_botched"
	EventObjectiveCompleted = "objective_completed"
)

// Hook is a declarative side-effect descriptor returned to the caller. The
// engine performs none of these effects; the presentation layer interprets
// them (play a sound, show a notification, spawn enemies).
type Hook struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Callback produces a hook for an event, or nil to contribute nothing.
// Context carries event-specific values (reason, objective id, ...).
type Callback func(m *mission.Mission, context map[string]any) *Hook

// Registry maps event names to ordered lists of callbacks. Registration
// order is execution order. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string][]Callback
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		callbacks: make(map[string][]Callback),
		logger:    logger,
	}
}

// Register appends a callback for the event. Multiple callbacks per event
// are supported.
func (r *Registry) Register(event string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[event] = append(r.callbacks[event], cb)
}

// Fire invokes every callback registered for the event, collecting non-nil
// hooks in registration order. A panicking callback is logged and skipped;
// it does not prevent the remaining callbacks from running.
func (r *Registry) Fire(event string, m *mission.Mission, context map[string]any) []Hook {
	r.mu.RLock()
	cbs := r.callbacks[event]
	r.mu.RUnlock()

	hooks := make([]Hook, 0, len(cbs))
	for i, cb := range cbs {
		if h := r.fireOne(event, i, cb, m, context); h != nil {
			hooks = append(hooks, *h)
		}
	}
	return hooks
}

func (r *Registry) fireOne(event string, index int, cb Callback, m *mission.Mission, context map[string]any) (h *Hook) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("trigger callback panicked",
				"event", event,
				"callback_index", index,
				"panic", fmt.Sprint(rec))
			h = nil
		}
	}()
	return cb(m, context)
}
