package object

import (
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/aretw0/refgraph/pkg/domain"
)

// Object is implemented by every node of the graph. Domain types satisfy it by
// embedding Base and calling InitObject from their constructor.
type Object interface {
	ObjectBase() *Base
}

// Root marks the top object of a document. Undo operations hold their owner through
// a weak pointer when the owner is a root, so the log never keeps a document alive.
type Root interface {
	Object
	IsDocumentRoot() bool
}

var nextID atomic.Uint64

// Base carries the bookkeeping shared by every object: its class, the list of
// objects holding references to it and the number of strong references.
type Base struct {
	self       Object
	class      *Class
	id         uint64
	dependents []*Base
	refCount   int
}

// InitObject binds the embedded Base to the object embedding it. It must be called
// before the object is used.
func (b *Base) InitObject(self Object, class *Class) {
	if self == nil || self.ObjectBase() != b {
		panic(fmt.Errorf("%w: InitObject must receive the object embedding this base", domain.ErrNotInitialized))
	}
	if class == nil {
		panic(fmt.Errorf("%w: nil class", domain.ErrNotInitialized))
	}
	b.self = self
	b.class = class
	b.id = nextID.Add(1)
}

// ObjectBase returns b; it is promoted to every type embedding Base.
func (b *Base) ObjectBase() *Base { return b }

// Self returns the object embedding b.
func (b *Base) Self() Object {
	b.mustInit()
	return b.self
}

// Class returns the class the object was initialised with.
func (b *Base) Class() *Class {
	b.mustInit()
	return b.class
}

// ID is a process-unique identifier assigned at initialisation.
func (b *Base) ID() uint64 { return b.id }

// ReferenceCount is the number of strong field slots currently pointing at the object.
func (b *Base) ReferenceCount() int { return b.refCount }

// Dependents returns the objects holding at least one reference to b, in the order
// they started referencing it.
func (b *Base) Dependents() []Object {
	out := make([]Object, 0, len(b.dependents))
	for _, d := range b.dependents {
		out = append(out, d.self)
	}
	return out
}

// HasDependent reports whether obj holds a reference to b.
func (b *Base) HasDependent(obj Object) bool {
	if obj == nil {
		return false
	}
	return slices.Contains(b.dependents, obj.ObjectBase())
}

// IsReferencedBy reports whether obj reaches b by following references, directly
// or through intermediate objects.
func (b *Base) IsReferencedBy(obj Object) bool {
	obj = asObject(obj)
	if obj == nil {
		return false
	}
	needle := obj.ObjectBase()
	visited := map[*Base]struct{}{b: {}}
	queue := []*Base{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cur.dependents {
			if d == needle {
				return true
			}
			if _, seen := visited[d]; !seen {
				visited[d] = struct{}{}
				queue = append(queue, d)
			}
		}
	}
	return false
}

func (b *Base) mustInit() {
	if b.class == nil {
		panic(domain.ErrNotInitialized)
	}
}

func (b *Base) addDependent(d *Base) {
	if !slices.Contains(b.dependents, d) {
		b.dependents = append(b.dependents, d)
	}
}

func (b *Base) removeDependent(d *Base) {
	if i := slices.Index(b.dependents, d); i >= 0 {
		b.dependents = slices.Delete(b.dependents, i, i+1)
	}
}

func (b *Base) String() string {
	if b.class == nil {
		return "<uninitialised>"
	}
	return fmt.Sprintf("%s#%d", b.class.name, b.id)
}

// asObject normalises typed nil pointers to an untyped nil Object.
// IsNil reports whether obj is nil or an interface holding a nil pointer.
func IsNil(obj Object) bool { return asObject(obj) == nil }

func asObject(v any) Object {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	o, ok := v.(Object)
	if !ok {
		return nil
	}
	return o
}

func same(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ObjectBase() == b.ObjectBase()
}

func isRoot(obj Object) bool {
	r, ok := obj.(Root)
	return ok && r.IsDocumentRoot()
}
