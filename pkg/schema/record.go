package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Record is the instance type of every class built from a class table. Its fields
// live in named slots and are reached through the class's field descriptors, so
// records take part in undo, notification and snapshots like hand written objects.
type Record struct {
	object.Base
	info  *ClassInfo
	slots map[string]any
}

// Info returns the schema information of the record's class.
func (r *Record) Info() *ClassInfo { return r.info }

// Field resolves a field descriptor by name.
func (r *Record) Field(name string) (*object.FieldDescriptor, error) {
	fd, ok := r.Class().Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, r.Class().Name(), name)
	}
	return fd, nil
}

// Value returns the value of a scalar field.
func (r *Record) Value(name string) (any, error) {
	fd, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	return fd.Value(r)
}

// SetValue checks v against the declared type of the field, converts it to the stored
// representation and assigns it.
func (r *Record) SetValue(rec ports.UndoRecorder, name string, v any) error {
	fd, err := r.Field(name)
	if err != nil {
		return err
	}
	conv, err := r.convert(name, v)
	if err != nil {
		return err
	}
	return fd.SetValue(rec, r, conv)
}

// SetValues assigns several scalar fields. Nothing is assigned unless every value is
// valid.
func (r *Record) SetValues(rec ports.UndoRecorder, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := ValidateFields(r.info.Schema(), values, names...); err != nil {
		return err
	}
	for _, name := range names {
		if err := r.SetValue(rec, name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the scalar fields as a map.
func (r *Record) Values() map[string]any {
	out := make(map[string]any)
	for _, fd := range r.Class().Fields() {
		if fd.IsReferenceField() {
			continue
		}
		if v, err := fd.Value(r); err == nil {
			out[fd.Name()] = v
		}
	}
	return out
}

// Target returns the target of a single reference field.
func (r *Record) Target(name string) (object.Object, error) {
	fd, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	return fd.Target(r)
}

// SetTarget replaces the target of a single reference field.
func (r *Record) SetTarget(rec ports.UndoRecorder, name string, target object.Object) error {
	fd, err := r.Field(name)
	if err != nil {
		return err
	}
	return fd.SetTarget(rec, r, target)
}

// Targets lists the targets of a reference field.
func (r *Record) Targets(name string) ([]object.Object, error) {
	fd, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	return fd.Targets(r)
}

// InsertTarget inserts into a vector field; index may be object.Append.
func (r *Record) InsertTarget(rec ports.UndoRecorder, name string, target object.Object, index int) (int, error) {
	fd, err := r.Field(name)
	if err != nil {
		return 0, err
	}
	return fd.InsertTarget(rec, r, target, index)
}

// RemoveTarget removes the entry at index from a vector field.
func (r *Record) RemoveTarget(rec ports.UndoRecorder, name string, index int) error {
	fd, err := r.Field(name)
	if err != nil {
		return err
	}
	return fd.RemoveTarget(rec, r, index)
}

// DecodeValue restores a scalar field from JSON, converting numbers to the declared
// type.
func (r *Record) DecodeValue(rec ports.UndoRecorder, fd *object.FieldDescriptor, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", fd, err)
	}
	return r.SetValue(rec, fd.Name(), v)
}

func (r *Record) convert(name string, v any) (any, error) {
	typ, ok := r.info.TypeOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a scalar field", domain.ErrWrongFieldKind, r.Class().Name(), name)
	}
	conv, err := typ.Convert(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTypeMismatch,
			&ValidationError{Class: r.Class().Name(), Key: name, Reason: err.Error(), Value: v})
	}
	return conv, nil
}
