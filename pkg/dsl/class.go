package dsl

import "github.com/aretw0/refgraph/pkg/schema"

// ClassBuilder provides a fluent API for configuring a class.
type ClassBuilder struct {
	spec    schema.ClassSpec
	builder *Builder
}

// FieldOption configures a field declared through a ClassBuilder.
type FieldOption func(*schema.FieldSpec)

// Default sets the initial value of a property.
func Default(v any) FieldOption {
	return func(f *schema.FieldSpec) { f.Default = v }
}

// Flags adds symbolic field flags such as "weak", "no_undo" or "dont_save".
func Flags(names ...string) FieldOption {
	return func(f *schema.FieldSpec) { f.Flags = append(f.Flags, names...) }
}

// Event sets the extra change event sent after the field changed.
func Event(name string) FieldOption {
	return func(f *schema.FieldSpec) { f.ExtraEvent = name }
}

// Description documents the field.
func Description(text string) FieldOption {
	return func(f *schema.FieldSpec) { f.Description = text }
}

// Extends sets the parent class.
func (c *ClassBuilder) Extends(parent string) *ClassBuilder {
	c.spec.Parent = parent
	return c
}

// Owner marks the class as a non-target class: its instances hold references but
// cannot be referenced.
func (c *ClassBuilder) Owner() *ClassBuilder {
	target := false
	c.spec.Target = &target
	return c
}

// Describe documents the class.
func (c *ClassBuilder) Describe(text string) *ClassBuilder {
	c.spec.Description = text
	return c
}

// Property adds a scalar field of the given type ("string", "int", "[string]"...).
func (c *ClassBuilder) Property(name, typ string, opts ...FieldOption) *ClassBuilder {
	return c.field(schema.FieldSpec{Name: name, Kind: schema.KindProperty, Type: typ}, opts)
}

// Reference adds a single reference field. An empty target accepts any target class.
func (c *ClassBuilder) Reference(name, target string, opts ...FieldOption) *ClassBuilder {
	return c.field(schema.FieldSpec{Name: name, Kind: schema.KindReference, Target: target}, opts)
}

// Vector adds an ordered reference list field.
func (c *ClassBuilder) Vector(name, target string, opts ...FieldOption) *ClassBuilder {
	return c.field(schema.FieldSpec{Name: name, Kind: schema.KindVector, Target: target}, opts)
}

func (c *ClassBuilder) field(fs schema.FieldSpec, opts []FieldOption) *ClassBuilder {
	for _, opt := range opts {
		opt(&fs)
	}
	c.spec.Fields = append(c.spec.Fields, fs)
	return c
}

// Class continues with another class of the same table.
func (c *ClassBuilder) Class(name string) *ClassBuilder {
	return c.builder.Class(name)
}

// Spec returns a copy of the underlying schema.ClassSpec.
func (c *ClassBuilder) Spec() schema.ClassSpec {
	spec := c.spec
	spec.Fields = append([]schema.FieldSpec(nil), c.spec.Fields...)
	return spec
}
