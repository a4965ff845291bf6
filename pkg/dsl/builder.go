package dsl

import (
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/schema"
)

// Builder manages the class table construction.
type Builder struct {
	classes []*ClassBuilder
	byName  map[string]*ClassBuilder
}

// New creates a new class table builder.
func New() *Builder {
	return &Builder{
		byName: make(map[string]*ClassBuilder),
	}
}

// Class declares a class.
// If the class already exists, it returns the existing builder.
func (b *Builder) Class(name string) *ClassBuilder {
	if cb, ok := b.byName[name]; ok {
		return cb
	}
	cb := &ClassBuilder{
		spec:    schema.ClassSpec{Name: name},
		builder: b,
	}
	b.byName[name] = cb
	b.classes = append(b.classes, cb)
	return cb
}

// Specs returns the class table in declaration order.
func (b *Builder) Specs() []schema.ClassSpec {
	specs := make([]schema.ClassSpec, len(b.classes))
	for i, cb := range b.classes {
		specs[i] = cb.Spec()
	}
	return specs
}

// Build validates the table and registers its classes in reg.
func (b *Builder) Build(reg *registry.Registry) ([]*object.Class, error) {
	return schema.Build(reg, b.Specs())
}

// Marshal renders the table as YAML, in the format schema.Parse reads.
func (b *Builder) Marshal() ([]byte, error) {
	return schema.Marshal(b.Specs())
}
