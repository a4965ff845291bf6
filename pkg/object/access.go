package object

import (
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// The methods below give generic code access to a field of owner without knowing its
// Go types. Calls against the wrong kind of field return domain.ErrWrongFieldKind.

func (fd *FieldDescriptor) valueStorage(owner Object) (valueStorage, error) {
	if s, ok := fd.storage(owner).(valueStorage); ok {
		return s, nil
	}
	return nil, fieldError("access", owner, fd, domain.ErrWrongFieldKind, "%s is a %s field", fd, fd.kind)
}

func (fd *FieldDescriptor) singleStorage(owner Object) (singleStorage, error) {
	if s, ok := fd.storage(owner).(singleStorage); ok {
		return s, nil
	}
	return nil, fieldError("access", owner, fd, domain.ErrWrongFieldKind, "%s is a %s field", fd, fd.kind)
}

func (fd *FieldDescriptor) vectorStorage(owner Object) (vectorStorage, error) {
	if s, ok := fd.storage(owner).(vectorStorage); ok {
		return s, nil
	}
	return nil, fieldError("access", owner, fd, domain.ErrWrongFieldKind, "%s is a %s field", fd, fd.kind)
}

// Value returns the current value of a scalar field.
func (fd *FieldDescriptor) Value(owner Object) (any, error) {
	s, err := fd.valueStorage(owner)
	if err != nil {
		return nil, err
	}
	return s.getAny(), nil
}

// SetValue assigns a scalar field. v must be assignable to the field's value type.
func (fd *FieldDescriptor) SetValue(rec ports.UndoRecorder, owner Object, v any) error {
	s, err := fd.valueStorage(owner)
	if err != nil {
		return err
	}
	return s.setAny(rec, owner, fd, v)
}

// MarshalValue encodes a scalar field as JSON.
func (fd *FieldDescriptor) MarshalValue(owner Object) ([]byte, error) {
	s, err := fd.valueStorage(owner)
	if err != nil {
		return nil, err
	}
	return s.marshal()
}

// UnmarshalValue decodes JSON into a scalar field through the regular setter.
func (fd *FieldDescriptor) UnmarshalValue(rec ports.UndoRecorder, owner Object, raw []byte) error {
	s, err := fd.valueStorage(owner)
	if err != nil {
		return err
	}
	return s.unmarshal(rec, owner, fd, raw)
}

// Target returns the target of a single reference field.
func (fd *FieldDescriptor) Target(owner Object) (Object, error) {
	s, err := fd.singleStorage(owner)
	if err != nil {
		return nil, err
	}
	return s.target(), nil
}

// SetTarget assigns a single reference field.
func (fd *FieldDescriptor) SetTarget(rec ports.UndoRecorder, owner Object, target Object) error {
	s, err := fd.singleStorage(owner)
	if err != nil {
		return err
	}
	return s.setTarget(rec, owner, fd, target)
}

// Targets returns the targets held by a reference field of either kind. Vector
// entries keep their positions, including nil entries; an empty single reference
// yields no entries.
func (fd *FieldDescriptor) Targets(owner Object) ([]Object, error) {
	s, ok := fd.storage(owner).(targetStorage)
	if !ok {
		return nil, fieldError("access", owner, fd, domain.ErrWrongFieldKind, "%s is a %s field", fd, fd.kind)
	}
	return s.targets(), nil
}

// Len returns the number of entries of a vector field.
func (fd *FieldDescriptor) Len(owner Object) (int, error) {
	s, err := fd.vectorStorage(owner)
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// InsertTarget inserts into a vector field; index may be Append.
func (fd *FieldDescriptor) InsertTarget(rec ports.UndoRecorder, owner Object, target Object, index int) (int, error) {
	s, err := fd.vectorStorage(owner)
	if err != nil {
		return 0, err
	}
	return s.insertTarget(rec, owner, fd, target, index)
}

// RemoveTarget removes the entry at index from a vector field.
func (fd *FieldDescriptor) RemoveTarget(rec ports.UndoRecorder, owner Object, index int) error {
	s, err := fd.vectorStorage(owner)
	if err != nil {
		return err
	}
	return s.removeAt(rec, owner, fd, index)
}

// ReplaceTarget replaces the entry at index of a vector field.
func (fd *FieldDescriptor) ReplaceTarget(rec ports.UndoRecorder, owner Object, index int, target Object) error {
	s, err := fd.vectorStorage(owner)
	if err != nil {
		return err
	}
	return s.replaceAt(rec, owner, fd, index, target)
}
