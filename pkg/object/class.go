package object

import (
	"fmt"

	"github.com/aretw0/refgraph/pkg/domain"
)

// Class describes a family of objects and the fields they declare.
// Classes are created once at package initialisation and never change afterwards,
// except for the factory which is attached from an init function.
type Class struct {
	name    string
	parent  *Class
	target  bool
	fields  []*FieldDescriptor
	byName  map[string]*FieldDescriptor
	factory func() Object
}

// NewClass creates a class whose instances can be referenced by other objects and can
// record undo operations. A nil parent starts a new hierarchy.
func NewClass(name string, parent *Class) *Class {
	return newClass(name, parent, true)
}

// NewOwnerClass creates a class whose instances may hold references but can never be
// referenced themselves. Fields of such classes must opt out of undo and change events.
func NewOwnerClass(name string, parent *Class) *Class {
	if parent != nil && parent.target {
		panic(fmt.Errorf("%w: owner class %s cannot derive from target class %s",
			domain.ErrInvalidFieldConfiguration, name, parent.name))
	}
	return newClass(name, parent, false)
}

func newClass(name string, parent *Class, target bool) *Class {
	if name == "" {
		panic(fmt.Errorf("%w: class name must not be empty", domain.ErrInvalidFieldConfiguration))
	}
	return &Class{
		name:   name,
		parent: parent,
		target: target,
		byName: make(map[string]*FieldDescriptor),
	}
}

// Name returns the class identifier.
func (c *Class) Name() string { return c.name }

// Parent returns the base class, or nil for a root class.
func (c *Class) Parent() *Class { return c.parent }

// IsTarget reports whether instances can be referenced and participate in undo.
func (c *Class) IsTarget() bool { return c.target }

// IsDerivedFrom reports whether c is other or one of its subclasses.
// Every class derives from the nil class.
func (c *Class) IsDerivedFrom(other *Class) bool {
	if other == nil {
		return true
	}
	for cls := c; cls != nil; cls = cls.parent {
		if cls == other {
			return true
		}
	}
	return false
}

// Fields returns all fields of the class, inherited fields first.
func (c *Class) Fields() []*FieldDescriptor {
	var out []*FieldDescriptor
	c.eachField(func(fd *FieldDescriptor) bool {
		out = append(out, fd)
		return true
	})
	return out
}

// Field looks up a field by identifier in the class or its ancestors.
func (c *Class) Field(name string) (*FieldDescriptor, bool) {
	for cls := c; cls != nil; cls = cls.parent {
		if fd, ok := cls.byName[name]; ok {
			return fd, true
		}
	}
	return nil, false
}

// eachField visits inherited fields first and stops when fn returns false.
func (c *Class) eachField(fn func(*FieldDescriptor) bool) bool {
	if c.parent != nil && !c.parent.eachField(fn) {
		return false
	}
	for _, fd := range c.fields {
		if !fn(fd) {
			return false
		}
	}
	return true
}

func (c *Class) addField(fd *FieldDescriptor) {
	if _, exists := c.Field(fd.name); exists {
		panic(fmt.Errorf("%w: duplicate field %s.%s", domain.ErrInvalidFieldConfiguration, c.name, fd.name))
	}
	c.fields = append(c.fields, fd)
	c.byName[fd.name] = fd
}

// SetFactory attaches the constructor used by clones and snapshot loading.
// It is meant to be called from an init function of the package declaring the class.
func (c *Class) SetFactory(fn func() Object) {
	c.factory = fn
}

// New creates a fresh, initialised instance of the class.
func (c *Class) New() (Object, error) {
	if c.factory == nil {
		return nil, fmt.Errorf("class %s has no factory", c.name)
	}
	obj := c.factory()
	if obj == nil || obj.ObjectBase().class == nil {
		return nil, fmt.Errorf("factory of class %s returned an uninitialised object", c.name)
	}
	if !obj.ObjectBase().class.IsDerivedFrom(c) {
		return nil, fmt.Errorf("factory of class %s returned an instance of %s", c.name, obj.ObjectBase().class.name)
	}
	return obj, nil
}

func (c *Class) String() string {
	if c == nil {
		return "<any>"
	}
	return c.name
}
