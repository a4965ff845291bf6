package object

import (
	"fmt"
	"slices"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Append as an insertion index places the new entry after the last one.
const Append = -1

// Vector stores an ordered sequence of targets. Entries may be nil and the same
// target may appear more than once.
type Vector[T Object] struct {
	items []Object
}

// Len returns the number of entries.
func (v *Vector[T]) Len() int { return len(v.items) }

// Get returns the entry at index, or the zero T for a nil entry.
// It panics when index is out of range, like a slice.
func (v *Vector[T]) Get(index int) T {
	var zero T
	t, ok := v.items[index].(T)
	if !ok {
		return zero
	}
	return t
}

// All returns a copy of the entries.
func (v *Vector[T]) All() []T {
	out := make([]T, len(v.items))
	for i := range v.items {
		out[i] = v.Get(i)
	}
	return out
}

// IndexOf returns the first position of target, or -1.
func (v *Vector[T]) IndexOf(target Object) int {
	target = asObject(target)
	return slices.IndexFunc(v.items, func(o Object) bool { return same(o, target) })
}

// Contains reports whether target occupies at least one slot.
func (v *Vector[T]) Contains(target Object) bool {
	target = asObject(target)
	return target != nil && v.IndexOf(target) >= 0
}

// Insert adds target at index, or at the end when index is Append, and returns the
// position it was stored at.
func (v *Vector[T]) Insert(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target T, index int) (int, error) {
	return v.insert(rec, owner, field, asObject(target), index)
}

// PushBack appends target.
func (v *Vector[T]) PushBack(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target T) (int, error) {
	return v.Insert(rec, owner, field, target, Append)
}

// Remove deletes the entry at index.
func (v *Vector[T]) Remove(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int) error {
	if index < 0 || index >= len(v.items) {
		return fieldError("remove", owner, field, domain.ErrIndexOutOfRange, "index %d, length %d", index, len(v.items))
	}
	if recording(rec, field) {
		op := &RemoveReferenceOperation{
			fieldOperation: newFieldOperation(rec, owner, field),
			index:          index,
		}
		err := op.Redo()
		rec.Push(op)
		return err
	}
	_, err := v.removeReference(rec, owner, field, index)
	return err
}

// SetAt replaces the entry at index. It is a removal followed by an insertion, with
// the insertion validated before anything is removed.
func (v *Vector[T]) SetAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int, target T) error {
	return v.setAt(rec, owner, field, index, asObject(target))
}

func (v *Vector[T]) setAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int, target Object) error {
	if index < 0 || index >= len(v.items) {
		return fieldError("set", owner, field, domain.ErrIndexOutOfRange, "index %d, length %d", index, len(v.items))
	}
	if err := checkTarget[T](owner, field, target); err != nil {
		return err
	}
	if err := checkCycle(owner, field, target); err != nil {
		return err
	}
	if err := v.Remove(rec, owner, field, index); err != nil {
		return err
	}
	_, err := v.insert(rec, owner, field, target, index)
	return err
}

// Clear removes every entry, starting from the back.
func (v *Vector[T]) Clear(rec ports.UndoRecorder, owner Object, field *FieldDescriptor) error {
	for len(v.items) > 0 {
		if err := v.Remove(rec, owner, field, len(v.items)-1); err != nil {
			return err
		}
	}
	return nil
}

// Assign makes the vector equal to targets: overlapping slots are rewritten, extra
// targets are appended and surplus entries are removed from the back.
func (v *Vector[T]) Assign(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, targets []T) error {
	overlap := min(len(targets), len(v.items))
	for i := 0; i < overlap; i++ {
		if err := v.SetAt(rec, owner, field, i, targets[i]); err != nil {
			return err
		}
	}
	for i := overlap; i < len(targets); i++ {
		if _, err := v.PushBack(rec, owner, field, targets[i]); err != nil {
			return err
		}
	}
	for len(v.items) > len(targets) {
		if err := v.Remove(rec, owner, field, len(v.items)-1); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vector[T]) insert(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object, index int) (int, error) {
	if index != Append && (index < 0 || index > len(v.items)) {
		return 0, fieldError("insert", owner, field, domain.ErrIndexOutOfRange, "index %d, length %d", index, len(v.items))
	}
	if err := checkTarget[T](owner, field, target); err != nil {
		return 0, err
	}
	if recording(rec, field) {
		op := &InsertReferenceOperation{
			fieldOperation: newFieldOperation(rec, owner, field),
			target:         target,
			index:          index,
		}
		applied, err := op.apply()
		if applied {
			rec.Push(op)
		}
		return op.index, err
	}
	index, _, err := v.addReference(rec, owner, field, target, index)
	return index, err
}

// addReference places target at index and performs the bookkeeping. It returns the
// resolved index and whether the vector was modified.
func (v *Vector[T]) addReference(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object, index int) (int, bool, error) {
	if err := checkCycle(owner, field, target); err != nil {
		return index, false, err
	}
	if index == Append {
		index = len(v.items)
	}
	ob := owner.ObjectBase()
	v.items = slices.Insert(v.items, index, target)
	if target != nil {
		if !field.IsWeakReference() {
			target.ObjectBase().refCount++
		}
		target.ObjectBase().addDependent(ob)
	}
	return index, true, ob.referenceInserted(rec, field, target, index)
}

// removeReference takes the entry at index out and performs the bookkeeping.
func (v *Vector[T]) removeReference(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int) (Object, error) {
	if index < 0 || index >= len(v.items) {
		return nil, fieldError("remove", owner, field, domain.ErrIndexOutOfRange, "index %d, length %d", index, len(v.items))
	}
	ob := owner.ObjectBase()
	target := v.items[index]
	v.items = slices.Delete(v.items, index, index+1)
	if target != nil {
		if !field.IsWeakReference() {
			target.ObjectBase().refCount--
		}
		if !ob.HasReferenceTo(target) {
			target.ObjectBase().removeDependent(ob)
		}
	}
	return target, ob.referenceRemoved(rec, field, target, index)
}

func (v *Vector[T]) contains(t Object) bool { return v.Contains(t) }

func (v *Vector[T]) targets() []Object { return slices.Clone(v.items) }

func (v *Vector[T]) at(index int) Object { return v.items[index] }

func (v *Vector[T]) insertTarget(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object, index int) (int, error) {
	return v.insert(rec, owner, field, asObject(target), index)
}

func (v *Vector[T]) removeAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int) error {
	return v.Remove(rec, owner, field, index)
}

func (v *Vector[T]) replaceAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int, target Object) error {
	return v.setAt(rec, owner, field, index, asObject(target))
}

func (v *Vector[T]) clearAll(rec ports.UndoRecorder, owner Object, field *FieldDescriptor) error {
	return v.Clear(rec, owner, field)
}

type vectorStorage interface {
	targetStorage
	Len() int
	at(index int) Object
	insertTarget(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object, index int) (int, error)
	removeAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int) error
	replaceAt(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int, target Object) error
	clearAll(rec ports.UndoRecorder, owner Object, field *FieldDescriptor) error
}

func (op *fieldOperation) editor(owner Object) vectorEditor {
	return op.descriptor.storage(owner).(vectorEditor)
}

type vectorEditor interface {
	addReference(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, target Object, index int) (int, bool, error)
	removeReference(rec ports.UndoRecorder, owner Object, field *FieldDescriptor, index int) (Object, error)
}

// InsertReferenceOperation undoes an insertion by removing the entry again.
type InsertReferenceOperation struct {
	fieldOperation
	target Object
	index  int
}

func (op *InsertReferenceOperation) DisplayName() string {
	return fmt.Sprintf("Insert into %s of %s", op.descriptor.name, op.ownerName())
}

func (op *InsertReferenceOperation) apply() (bool, error) {
	owner, err := op.owner()
	if err != nil {
		return false, err
	}
	index, applied, err := op.editor(owner).addReference(op.rec, owner, op.descriptor, op.target, op.index)
	if applied {
		op.index = index
	}
	return applied, err
}

func (op *InsertReferenceOperation) Undo() error {
	owner, err := op.owner()
	if err != nil {
		return err
	}
	_, err = op.editor(owner).removeReference(op.rec, owner, op.descriptor, op.index)
	return err
}

func (op *InsertReferenceOperation) Redo() error {
	_, err := op.apply()
	return err
}

// Index is the position the target was inserted at.
func (op *InsertReferenceOperation) Index() int { return op.index }

// RemoveReferenceOperation undoes a removal by inserting the removed target again at
// its former position.
type RemoveReferenceOperation struct {
	fieldOperation
	target Object
	index  int
}

func (op *RemoveReferenceOperation) DisplayName() string {
	return fmt.Sprintf("Remove from %s of %s", op.descriptor.name, op.ownerName())
}

func (op *RemoveReferenceOperation) Undo() error {
	owner, err := op.owner()
	if err != nil {
		return err
	}
	_, _, err = op.editor(owner).addReference(op.rec, owner, op.descriptor, op.target, op.index)
	op.target = nil
	return err
}

func (op *RemoveReferenceOperation) Redo() error {
	owner, err := op.owner()
	if err != nil {
		return err
	}
	op.target, err = op.editor(owner).removeReference(op.rec, owner, op.descriptor, op.index)
	return err
}

// Index is the position of the removed entry.
func (op *RemoveReferenceOperation) Index() int { return op.index }

func checkCycle(owner Object, field *FieldDescriptor, target Object) error {
	if target == nil {
		return nil
	}
	ob := owner.ObjectBase()
	if same(target, owner) || ob.IsReferencedBy(target) {
		return fieldError("set", owner, field, domain.ErrCyclicReference, "%s already references %s", target.ObjectBase(), ob)
	}
	return nil
}
