package tasks

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownBackend is wrapped when a name has no registered factory.
var ErrUnknownBackend = errors.New("unknown task backend")

// Registry resolves backend names to factories. Backend packages add
// themselves from init, so a backend is selectable once its package is
// imported.
type Registry struct {
	mu        sync.Mutex
	factories map[string]BackendFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]BackendFactory{}}
}

// Register records factory under name. Each name can be taken once.
func (r *Registry) Register(name string, factory BackendFactory) error {
	if name == "" || factory == nil {
		return errors.New("registering task backend: name and factory are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.factories[name]; taken {
		return fmt.Errorf("registering task backend %q: name in use", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds a fresh backend from the factory registered under name.
func (r *Registry) Create(name string) (Backend, error) {
	r.mu.Lock()
	factory := r.factories[name]
	r.mu.Unlock()

	if factory == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, name)
	}
	return factory(), nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// backends holds every backend compiled into the binary.
var backends = NewRegistry()

// Register adds a backend factory to the process-wide registry.
func Register(name string, factory BackendFactory) error {
	return backends.Register(name, factory)
}

// CreateBackend builds the named backend from the process-wide registry.
func CreateBackend(name string) (Backend, error) {
	return backends.Create(name)
}

// ListBackends names every backend in the process-wide registry.
func ListBackends() []string {
	return backends.List()
}
