package scheduled

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/voter-canvass-backend/internal/platform/logger"
)

// Task is one named unit of recurring maintenance work dispatched through
// the scheduled queue (spec §9's Open Question resolution: a small
// registry analogous to the importer/geocoder ones, rather than inventing
// unscoped product features for the scheduled queue).
type Task interface {
	Name() string
	Run(ctx context.Context, log *logger.Logger) error
}

// Registry is the taskName -> Task dispatch table, the same
// concurrency-safe single-owner-per-key shape as runtime.Registry and
// importer.Registry.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

func (r *Registry) Register(t Task) error {
	if t == nil {
		return fmt.Errorf("nil task")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("task Name() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("task already registered for name=%s", name)
	}
	r.tasks[name] = t
	return nil
}

func (r *Registry) Get(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}
