package object

import (
	"fmt"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Reference stores a single, possibly nil, target.
type Reference[T Object] struct {
	ptr Object
}

// Get returns the current target or the zero T.
func (r *Reference[T]) Get() T {
	var zero T
	if r.ptr == nil {
		return zero
	}
	t, ok := r.ptr.(T)
	if !ok {
		return zero
	}
	return t
}

// IsNil reports whether the field is empty.
func (r *Reference[T]) IsNil() bool { return r.ptr == nil }

// Set replaces the target. Assigning the current target is a no-op.
func (r *Reference[T]) Set(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target T) error {
	return r.set(rec, owner, field, asObject(target))
}

func (r *Reference[T]) set(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object) error {
	if same(r.ptr, target) {
		return nil
	}
	if err := checkTarget[T](owner, field, target); err != nil {
		return err
	}
	if recording(rec, field) {
		op := &SetReferenceOperation{
			fieldOperation: newFieldOperation(rec, owner, field),
			inactive:       target,
		}
		applied, err := op.apply()
		if applied {
			rec.Push(op)
		}
		return err
	}
	inactive := target
	_, err := r.swap(rec, owner, field, &inactive)
	return err
}

// swap exchanges the stored target with *inactive. The cycle check happens before
// anything is touched, so a rejected swap leaves no trace.
func (r *Reference[T]) swap(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, inactive *Object) (bool, error) {
	ob := owner.ObjectBase()
	next := *inactive
	if err := checkCycle(owner, field, next); err != nil {
		return false, err
	}
	prev := r.ptr
	if next != nil && !field.IsWeakReference() {
		next.ObjectBase().refCount++
	}
	if prev != nil && !field.IsWeakReference() {
		prev.ObjectBase().refCount--
	}
	r.ptr = next
	if prev != nil && !ob.HasReferenceTo(prev) {
		prev.ObjectBase().removeDependent(ob)
	}
	if next != nil {
		next.ObjectBase().addDependent(ob)
	}
	*inactive = prev
	return true, ob.referenceReplaced(rec, field, prev, next)
}

func (r *Reference[T]) target() Object { return r.ptr }

func (r *Reference[T]) setTarget(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object) error {
	return r.set(rec, owner, field, asObject(target))
}

func (r *Reference[T]) contains(t Object) bool {
	return t != nil && same(r.ptr, t)
}

func (r *Reference[T]) targets() []Object {
	if r.ptr == nil {
		return nil
	}
	return []Object{r.ptr}
}

type targetStorage interface {
	contains(t Object) bool
	targets() []Object
}

type singleStorage interface {
	targetStorage
	target() Object
	setTarget(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object) error
}

type swapper interface {
	swap(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, inactive *Object) (bool, error)
}

// SetReferenceOperation restores the previous target of a single reference field.
// Undo and redo perform the same swap.
type SetReferenceOperation struct {
	fieldOperation
	inactive Object
}

func (op *SetReferenceOperation) DisplayName() string {
	return fmt.Sprintf("Set %s of %s", op.descriptor.name, op.ownerName())
}

func (op *SetReferenceOperation) apply() (bool, error) {
	owner, err := op.owner()
	if err != nil {
		return false, err
	}
	return op.descriptor.storage(owner).(swapper).swap(op.rec, owner, op.descriptor, &op.inactive)
}

func (op *SetReferenceOperation) Undo() error {
	_, err := op.apply()
	return err
}

func (op *SetReferenceOperation) Redo() error {
	_, err := op.apply()
	return err
}

// Inactive is the target the operation will restore next.
func (op *SetReferenceOperation) Inactive() Object { return op.inactive }

// checkTarget verifies that target is acceptable for field: its class must be a target
// class derived from the field's target class, and its Go type must be a T.
func checkTarget[T Object](owner Object, field *FieldDescriptor, target Object) error {
	if target == nil {
		return nil
	}
	tb := target.ObjectBase()
	if tb.class == nil {
		return fieldError("set", owner, field, domain.ErrNotInitialized, "target %T was never initialised", target)
	}
	if !tb.class.target || !tb.class.IsDerivedFrom(field.target) {
		return fieldError("set", owner, field, domain.ErrTypeMismatch, "cannot assign %s to a field of %s", tb.class, field.target)
	}
	if _, ok := target.(T); !ok {
		return fieldError("set", owner, field, domain.ErrTypeMismatch, "cannot assign %T to %s", target, field.valueType)
	}
	return nil
}
