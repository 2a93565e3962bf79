package queue

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/datatypes"
)

// Handler performs a job's actual work. It receives the raw payload and
// returns a result value that is stored on the row when it completes.
type Handler func(ctx context.Context, payload datatypes.JSON) (any, error)

// Registry maps job types to handlers. It is populated once at startup;
// dispatching an unregistered type is a ValidationError, not a silent no-op.
type Registry struct {
	mu       sync.RWMutex
	handlers map[JobType]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[JobType]Handler)}
}

// Register binds a handler to a job type. Registering the same type twice
// panics: it is always a wiring mistake.
func (r *Registry) Register(t JobType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[t]; dup {
		panic(fmt.Sprintf("queue: handler for %q registered twice", t))
	}
	r.handlers[t] = h
}

func (r *Registry) lookup(t JobType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Types returns the registered job types, for startup logging.
func (r *Registry) Types() []JobType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]JobType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}
