package object

import (
	"fmt"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// CloneHelper copies object graphs. An object reached several times during one copy
// is cloned once, so shared targets stay shared in the copy.
type CloneHelper struct {
	rec    ports.UndoRecorder
	clones map[*Base]Object
}

// NewCloneHelper returns a helper whose field assignments go through rec.
func NewCloneHelper(rec ports.UndoRecorder) *CloneHelper {
	return &CloneHelper{rec: rec, clones: make(map[*Base]Object)}
}

// Clone copies obj with a fresh helper.
func Clone(rec ports.UndoRecorder, obj Object, deep bool) (Object, error) {
	return NewCloneHelper(rec).CloneObject(obj, deep)
}

// CloneObject returns the copy of obj made during this helper's lifetime, creating
// it on first use. A deep copy also copies referenced targets unless their field is
// flagged never_clone_target.
func (h *CloneHelper) CloneObject(obj Object, deep bool) (Object, error) {
	obj = asObject(obj)
	if obj == nil {
		return nil, nil
	}
	ob := obj.ObjectBase()
	if c, ok := h.clones[ob]; ok {
		return c, nil
	}
	cls := ob.Class()
	if !cls.target {
		return nil, fmt.Errorf("%w: instances of %s cannot be cloned", domain.ErrTypeMismatch, cls.name)
	}
	clone, err := cls.New()
	if err != nil {
		return nil, err
	}
	h.clones[ob] = clone
	for _, fd := range cls.Fields() {
		if err := h.copyField(fd, obj, clone, deep); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// CopyReference returns a deep copy of obj when deep is set, and obj itself otherwise.
func (h *CloneHelper) CopyReference(obj Object, deep bool) (Object, error) {
	if deep {
		return h.CloneObject(obj, true)
	}
	return asObject(obj), nil
}

func (h *CloneHelper) copyTarget(fd *FieldDescriptor, t Object, deep bool) (Object, error) {
	switch {
	case t == nil || fd.flags.Has(domain.FlagNeverCloneTarget):
		return t, nil
	case fd.flags.Has(domain.FlagAlwaysClone):
		return h.CloneObject(t, deep)
	case fd.flags.Has(domain.FlagAlwaysDeepCopy):
		return h.CloneObject(t, true)
	default:
		return h.CopyReference(t, deep)
	}
}

func (h *CloneHelper) copyField(fd *FieldDescriptor, src, dst Object, deep bool) error {
	switch s := fd.storage(src).(type) {
	case valueStorage:
		return fd.storage(dst).(valueStorage).setAny(h.rec, dst, fd, s.getAny())
	case singleStorage:
		t, err := h.copyTarget(fd, s.target(), deep)
		if err != nil {
			return err
		}
		return fd.storage(dst).(singleStorage).setTarget(h.rec, dst, fd, t)
	case vectorStorage:
		d := fd.storage(dst).(vectorStorage)
		if err := d.clearAll(h.rec, dst, fd); err != nil {
			return err
		}
		for _, item := range s.targets() {
			t, err := h.copyTarget(fd, item, deep)
			if err != nil {
				return err
			}
			if _, err := d.insertTarget(h.rec, dst, fd, t, Append); err != nil {
				return err
			}
		}
	}
	return nil
}
