package object

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Property stores a plain value inside an owner object.
type Property[T any] struct {
	value T
}

// NewProperty returns a property holding an initial value. Use it in constructors;
// initial values are neither recorded nor announced.
func NewProperty[T any](v T) Property[T] {
	return Property[T]{value: v}
}

// Get returns the stored value.
func (p *Property[T]) Get() T { return p.value }

// Set stores v. Setting an equal value is a no-op; otherwise the previous value is
// recorded when rec is recording and the change is announced to the owner and its
// dependents.
func (p *Property[T]) Set(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, v T) error {
	if equalValues(p.value, v) {
		return nil
	}
	if recording(rec, field) {
		rec.Push(&PropertyChangeOperation[T]{
			fieldOperation: newFieldOperation(rec, owner, field),
			value:          p.value,
		})
	}
	p.value = v
	return owner.ObjectBase().propertyChanged(rec, field)
}

func (p *Property[T]) getAny() any { return p.value }

func (p *Property[T]) setAny(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, v any) error {
	if v == nil {
		var zero T
		return p.Set(rec, owner, field, zero)
	}
	tv, ok := v.(T)
	if !ok {
		return fieldError("set", owner, field, domain.ErrTypeMismatch, "cannot assign %T to %s", v, field.valueType)
	}
	return p.Set(rec, owner, field, tv)
}

func (p *Property[T]) marshal() ([]byte, error) {
	return json.Marshal(p.value)
}

func (p *Property[T]) unmarshal(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, raw []byte) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fieldError("decode", owner, field, domain.ErrTypeMismatch, "%v", err)
	}
	return p.Set(rec, owner, field, v)
}

type valueStorage interface {
	getAny() any
	setAny(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, v any) error
	marshal() ([]byte, error)
	unmarshal(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, raw []byte) error
}

// PropertyChangeOperation restores the previous value of a scalar field.
// Undo and redo are the same swap.
type PropertyChangeOperation[T any] struct {
	fieldOperation
	value T
}

func (op *PropertyChangeOperation[T]) DisplayName() string {
	return fmt.Sprintf("Change %s of %s", op.descriptor.name, op.ownerName())
}

func (op *PropertyChangeOperation[T]) Undo() error {
	owner, err := op.owner()
	if err != nil {
		return err
	}
	p := op.descriptor.storage(owner).(*Property[T])
	p.value, op.value = op.value, p.value
	return owner.ObjectBase().propertyChanged(op.rec, op.descriptor)
}

func (op *PropertyChangeOperation[T]) Redo() error {
	return op.Undo()
}

// Value is the value the operation will restore next.
func (op *PropertyChangeOperation[T]) Value() T { return op.value }

// equalValues compares with == when the dynamic type allows it, falls back to an
// Equal(T) bool method, and otherwise reports a change. Nil values are only equal to
// each other and never reach Equal.
func equalValues[T any](a, b T) bool {
	va, vb := reflect.ValueOf(any(a)), reflect.ValueOf(any(b))
	if aNil, bNil := isNil(va), isNil(vb); aNil || bNil {
		return aNil && bNil
	}
	if eq, ok := any(a).(interface{ Equal(T) bool }); ok {
		return eq.Equal(b)
	}
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
