package inhibit

import (
	"context"
	"sync"
)

// Registry stores inhibitors by name in registration order. It does not
// dispatch; callers iterate All or use Check.
type Registry struct {
	mu    sync.RWMutex
	names []string
	fns   map[string]Inhibitor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Inhibitor)}
}

// Register adds fn under name. Re-registering a name replaces the function
// and keeps its original position.
func (r *Registry) Register(name string, fn Inhibitor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fns[name]; !ok {
		r.names = append(r.names, name)
	}
	r.fns[name] = fn
}

// Lookup returns the inhibitor registered under name.
func (r *Registry) Lookup(name string) (Inhibitor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// All returns registered inhibitors in registration order.
func (r *Registry) All() []Inhibitor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Inhibitor, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.fns[n])
	}
	return out
}

// Len returns the number of registered inhibitors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Check runs every inhibitor in registration order and stops at the first
// denial or fault, returning the name of the inhibitor that stopped it.
// An empty name with nil denial and error means the invocation may proceed.
func (r *Registry) Check(ctx context.Context, bot *Bot, cmd *Command, opts Options) (string, Denial, error) {
	for _, name := range r.Names() {
		fn, ok := r.Lookup(name)
		if !ok {
			continue
		}
		d, err := fn(ctx, bot, cmd, opts)
		if err != nil {
			return name, nil, err
		}
		if d != nil {
			return name, d, nil
		}
	}
	return "", nil, nil
}
