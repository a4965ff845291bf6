package object

import (
	"fmt"
	"reflect"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// FieldKind distinguishes the three storage shapes a field can have.
type FieldKind int

const (
	KindProperty FieldKind = iota
	KindReference
	KindVector
)

func (k FieldKind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindReference:
		return "reference"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// FieldDescriptor is the immutable metadata of one field of a class.
// It also exposes an untyped reflection surface used by generic walkers
// such as the snapshot encoder.
type FieldDescriptor struct {
	class     *Class
	name      string
	kind      FieldKind
	target    *Class
	flags     domain.Flags
	extra     domain.EventType
	valueType reflect.Type
	access    func(Object) any
}

// FieldOption configures a field at definition time.
type FieldOption func(*FieldDescriptor)

// WithFlags adds behaviour flags to the field.
func WithFlags(flags domain.Flags) FieldOption {
	return func(fd *FieldDescriptor) {
		fd.flags |= flags
	}
}

// WithExtraEvent makes every change of the field also emit the given event type.
func WithExtraEvent(t domain.EventType) FieldOption {
	return func(fd *FieldDescriptor) {
		fd.extra = t
	}
}

func (fd *FieldDescriptor) Name() string                       { return fd.name }
func (fd *FieldDescriptor) DefiningClass() *Class              { return fd.class }
func (fd *FieldDescriptor) Kind() FieldKind                    { return fd.kind }
func (fd *FieldDescriptor) TargetClass() *Class                { return fd.target }
func (fd *FieldDescriptor) Flags() domain.Flags                { return fd.flags }
func (fd *FieldDescriptor) ExtraChangeEvent() domain.EventType { return fd.extra }
func (fd *FieldDescriptor) ValueType() reflect.Type            { return fd.valueType }

// IsReferenceField reports whether the field holds targets rather than a plain value.
func (fd *FieldDescriptor) IsReferenceField() bool { return fd.kind != KindProperty }

// IsVector reports whether the field is an ordered sequence of targets.
func (fd *FieldDescriptor) IsVector() bool { return fd.flags.Has(domain.FlagVector) }

// IsWeakReference reports whether the field leaves target reference counts untouched.
func (fd *FieldDescriptor) IsWeakReference() bool { return fd.flags.Has(domain.FlagWeakRef) }

// AutomaticUndo reports whether mutations of the field are recorded.
func (fd *FieldDescriptor) AutomaticUndo() bool { return !fd.flags.Has(domain.FlagNoUndo) }

// ShouldGenerateChangeEvent reports whether mutations raise TargetChanged on the owner.
func (fd *FieldDescriptor) ShouldGenerateChangeEvent() bool {
	return !fd.flags.Has(domain.FlagNoChangeMessage)
}

// String renders the qualified field name.
func (fd *FieldDescriptor) String() string {
	return fd.class.name + "." + fd.name
}

func newDescriptor(c *Class, name string, kind FieldKind, opts []FieldOption) *FieldDescriptor {
	if c == nil {
		panic(fmt.Errorf("%w: field %s defined without a class", domain.ErrInvalidFieldConfiguration, name))
	}
	if name == "" {
		panic(fmt.Errorf("%w: empty field name on class %s", domain.ErrInvalidFieldConfiguration, c.name))
	}
	fd := &FieldDescriptor{class: c, name: name, kind: kind}
	for _, opt := range opts {
		opt(fd)
	}
	if kind == KindVector {
		fd.flags |= domain.FlagVector
	} else if fd.flags.Has(domain.FlagVector) {
		panic(fmt.Errorf("%w: %s is flagged as vector but is a %s field", domain.ErrInvalidFieldConfiguration, fd, kind))
	}
	if !c.target && (fd.AutomaticUndo() || fd.ShouldGenerateChangeEvent()) {
		panic(fmt.Errorf("%w: %s: fields of owner class %s must set no_undo and no_change_message",
			domain.ErrInvalidFieldConfiguration, fd, c.name))
	}
	return fd
}

func (fd *FieldDescriptor) storage(owner Object) any {
	if owner == nil {
		panic(fmt.Errorf("%w: nil owner for field %s", domain.ErrNotInitialized, fd))
	}
	return fd.access(owner)
}

func castOwner[O Object](fd *FieldDescriptor, owner Object) O {
	o, ok := owner.(O)
	if !ok {
		panic(fmt.Errorf("field %s applied to %T", fd, owner))
	}
	return o
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// DefineProperty declares a scalar field on class c. O may be an interface type so that
// subclasses whose Go type embeds the declaring type reuse the accessor.
func DefineProperty[O Object, T any](c *Class, name string, access func(O) *Property[T], opts ...FieldOption) *PropertyDescriptor[O, T] {
	fd := newDescriptor(c, name, KindProperty, opts)
	if fd.flags.Has(domain.FlagWeakRef) {
		panic(fmt.Errorf("%w: property %s cannot be weak", domain.ErrInvalidFieldConfiguration, fd))
	}
	fd.valueType = typeOf[T]()
	fd.access = func(o Object) any { return access(castOwner[O](fd, o)) }
	c.addField(fd)
	return &PropertyDescriptor[O, T]{FieldDescriptor: fd, access: access}
}

// DefineReference declares a single-target field on class c. A nil target class
// accepts any target.
func DefineReference[O Object, T Object](c *Class, name string, target *Class, access func(O) *Reference[T], opts ...FieldOption) *ReferenceDescriptor[O, T] {
	fd := newDescriptor(c, name, KindReference, opts)
	if target != nil && !target.target {
		panic(fmt.Errorf("%w: %s points to non-target class %s", domain.ErrInvalidFieldConfiguration, fd, target.name))
	}
	fd.target = target
	fd.valueType = typeOf[T]()
	fd.access = func(o Object) any { return access(castOwner[O](fd, o)) }
	c.addField(fd)
	return &ReferenceDescriptor[O, T]{FieldDescriptor: fd, access: access}
}

// DefineVector declares an ordered multi-target field on class c.
func DefineVector[O Object, T Object](c *Class, name string, target *Class, access func(O) *Vector[T], opts ...FieldOption) *VectorDescriptor[O, T] {
	fd := newDescriptor(c, name, KindVector, opts)
	if target != nil && !target.target {
		panic(fmt.Errorf("%w: %s points to non-target class %s", domain.ErrInvalidFieldConfiguration, fd, target.name))
	}
	fd.target = target
	fd.valueType = typeOf[T]()
	fd.access = func(o Object) any { return access(castOwner[O](fd, o)) }
	c.addField(fd)
	return &VectorDescriptor[O, T]{FieldDescriptor: fd, access: access}
}

// PropertyDescriptor binds a scalar field to its accessor.
type PropertyDescriptor[O Object, T any] struct {
	*FieldDescriptor
	access func(O) *Property[T]
}

func (d *PropertyDescriptor[O, T]) Get(owner O) T {
	return d.access(owner).Get()
}

func (d *PropertyDescriptor[O, T]) Set(rec ports.UndoRecorder, owner O, v T) error {
	return d.access(owner).Set(rec, owner, d.FieldDescriptor, v)
}

// ReferenceDescriptor binds a single-target field to its accessor.
type ReferenceDescriptor[O Object, T Object] struct {
	*FieldDescriptor
	access func(O) *Reference[T]
}

func (d *ReferenceDescriptor[O, T]) Get(owner O) T {
	return d.access(owner).Get()
}

func (d *ReferenceDescriptor[O, T]) Set(rec ports.UndoRecorder, owner O, target T) error {
	return d.access(owner).Set(rec, owner, d.FieldDescriptor, target)
}

// VectorDescriptor binds a vector field to its accessor.
type VectorDescriptor[O Object, T Object] struct {
	*FieldDescriptor
	access func(O) *Vector[T]
}

// Field returns the vector storage of owner for read access.
func (d *VectorDescriptor[O, T]) Field(owner O) *Vector[T] {
	return d.access(owner)
}

func (d *VectorDescriptor[O, T]) Len(owner O) int {
	return d.access(owner).Len()
}

func (d *VectorDescriptor[O, T]) Get(owner O, index int) T {
	return d.access(owner).Get(index)
}

func (d *VectorDescriptor[O, T]) All(owner O) []T {
	return d.access(owner).All()
}

func (d *VectorDescriptor[O, T]) Insert(rec ports.UndoRecorder, owner O, target T, index int) (int, error) {
	return d.access(owner).Insert(rec, owner, d.FieldDescriptor, target, index)
}

func (d *VectorDescriptor[O, T]) PushBack(rec ports.UndoRecorder, owner O, target T) (int, error) {
	return d.access(owner).PushBack(rec, owner, d.FieldDescriptor, target)
}

func (d *VectorDescriptor[O, T]) Remove(rec ports.UndoRecorder, owner O, index int) error {
	return d.access(owner).Remove(rec, owner, d.FieldDescriptor, index)
}

func (d *VectorDescriptor[O, T]) SetAt(rec ports.UndoRecorder, owner O, index int, target T) error {
	return d.access(owner).SetAt(rec, owner, d.FieldDescriptor, index, target)
}

func (d *VectorDescriptor[O, T]) Assign(rec ports.UndoRecorder, owner O, targets []T) error {
	return d.access(owner).Assign(rec, owner, d.FieldDescriptor, targets)
}

func (d *VectorDescriptor[O, T]) Clear(rec ports.UndoRecorder, owner O) error {
	return d.access(owner).Clear(rec, owner, d.FieldDescriptor)
}
