package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
)

// Factory creates a fresh, initialised instance of a class.
type Factory func() object.Object

// Registry maps class names to their runtime classes. It is what snapshot loading and
// the schema builder use to turn a stored class name back into objects.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*object.Class
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*object.Class),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a class to the registry and, when factory is non-nil, installs it as
// the class factory. If a class with the same name exists, it is overwritten.
func (r *Registry) Register(class *object.Class, factory Factory) {
	if factory != nil {
		class.SetFactory(factory)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class.Name()] = class
}

// Lookup resolves a class by name.
func (r *Registry) Lookup(name string) (*object.Class, error) {
	r.mu.RLock()
	c, ok := r.classes[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrClassNotFound, name)
	}
	return c, nil
}

// New instantiates the named class through its factory.
func (r *Registry) New(name string) (object.Object, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.New()
}

// Field resolves a field of the named class, inherited fields included.
func (r *Registry) Field(className, field string) (*object.FieldDescriptor, error) {
	c, err := r.Lookup(className)
	if err != nil {
		return nil, err
	}
	fd, ok := c.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, className, field)
	}
	return fd, nil
}

// Classes lists the registered classes sorted by name.
func (r *Registry) Classes() []*object.Class {
	r.mu.RLock()
	out := make([]*object.Class, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names lists the registered class names, sorted.
func (r *Registry) Names() []string {
	classes := r.Classes()
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.Name()
	}
	return names
}
