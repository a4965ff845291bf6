package object

import (
	"errors"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

func (b *Base) eachReferenceField(fn func(fd *FieldDescriptor, s targetStorage) bool) {
	b.mustInit()
	b.class.eachField(func(fd *FieldDescriptor) bool {
		if !fd.IsReferenceField() {
			return true
		}
		return fn(fd, fd.storage(b.self).(targetStorage))
	})
}

// HasReferenceTo reports whether any reference field of b holds target.
func (b *Base) HasReferenceTo(target Object) bool {
	target = asObject(target)
	if target == nil {
		return false
	}
	found := false
	b.eachReferenceField(func(_ *FieldDescriptor, s targetStorage) bool {
		found = s.contains(target)
		return !found
	})
	return found
}

// Dependencies returns every object reachable from b through reference fields, in
// breadth-first order and without duplicates. b itself is not included.
func (b *Base) Dependencies() []Object {
	b.mustInit()
	visited := map[*Base]struct{}{b: {}}
	var out []Object
	queue := []*Base{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cur.eachReferenceField(func(_ *FieldDescriptor, s targetStorage) bool {
			for _, t := range s.targets() {
				if t == nil {
					continue
				}
				tb := t.ObjectBase()
				if _, seen := visited[tb]; seen {
					continue
				}
				visited[tb] = struct{}{}
				out = append(out, t)
				queue = append(queue, tb)
			}
			return true
		})
	}
	return out
}

// ClearReferencesTo empties every slot of b that holds target. Vector entries are
// removed, single references are set to nil.
func (b *Base) ClearReferencesTo(rec ports.UndoRecorder, target Object) error {
	target = asObject(target)
	if target == nil {
		return nil
	}
	var errs []error
	for _, fd := range b.Class().Fields() {
		if !fd.IsReferenceField() {
			continue
		}
		switch s := fd.storage(b.self).(type) {
		case singleStorage:
			if s.contains(target) {
				errs = append(errs, s.setTarget(rec, b.self, fd, nil))
			}
		case vectorStorage:
			for i := s.Len() - 1; i >= 0; i-- {
				if i < s.Len() && same(s.at(i), target) {
					errs = append(errs, s.removeAt(rec, b.self, fd, i))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// ReplaceReferencesTo makes every slot of b that holds oldTarget point to newTarget.
// Fields whose target class does not accept oldTarget are left alone. The new target
// is validated against every affected field before anything changes.
func (b *Base) ReplaceReferencesTo(rec ports.UndoRecorder, oldTarget, newTarget Object) error {
	oldTarget, newTarget = asObject(oldTarget), asObject(newTarget)
	if oldTarget == nil || same(oldTarget, newTarget) {
		return nil
	}
	var affected []*FieldDescriptor
	b.eachReferenceField(func(fd *FieldDescriptor, s targetStorage) bool {
		if s.contains(oldTarget) {
			affected = append(affected, fd)
		}
		return true
	})
	if len(affected) == 0 {
		return nil
	}
	if err := checkCycle(b.self, affected[0], newTarget); err != nil {
		return err
	}
	if newTarget != nil {
		nc := newTarget.ObjectBase().class
		for _, fd := range affected {
			if nc == nil || !nc.target || !nc.IsDerivedFrom(fd.target) {
				return fieldError("replace", b.self, fd, domain.ErrTypeMismatch, "cannot assign %s to a field of %s", nc, fd.target)
			}
		}
	}
	var errs []error
	for _, fd := range affected {
		switch s := fd.storage(b.self).(type) {
		case singleStorage:
			errs = append(errs, s.setTarget(rec, b.self, fd, newTarget))
		case vectorStorage:
			for i := s.Len() - 1; i >= 0; i-- {
				if i < s.Len() && same(s.at(i), oldTarget) {
					errs = append(errs, s.replaceAt(rec, b.self, fd, i, newTarget))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// ClearReferenceField empties one reference field of b.
func (b *Base) ClearReferenceField(rec ports.UndoRecorder, field *FieldDescriptor) error {
	b.mustInit()
	switch s := field.storage(b.self).(type) {
	case singleStorage:
		return s.setTarget(rec, b.self, field, nil)
	case vectorStorage:
		return s.clearAll(rec, b.self, field)
	default:
		return fieldError("clear", b.self, field, domain.ErrWrongFieldKind, "%s is a %s field", field, field.kind)
	}
}

// ClearAllReferences empties every reference field of b.
func (b *Base) ClearAllReferences(rec ports.UndoRecorder) error {
	var errs []error
	for _, fd := range b.Class().Fields() {
		if fd.IsReferenceField() {
			errs = append(errs, b.ClearReferenceField(rec, fd))
		}
	}
	return errors.Join(errs...)
}

// DeleteObject announces the deletion of b. Every dependent drops its references to
// b; with a recording recorder the removals are undoable.
func (b *Base) DeleteObject(rec ports.UndoRecorder) error {
	b.mustInit()
	return b.notify(&Event{Type: domain.EventTargetDeleted, Sender: b.self, Recorder: rec})
}
