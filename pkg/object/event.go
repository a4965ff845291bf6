package object

import (
	"errors"
	"log/slog"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// Event is delivered to the dependents of the object that raised it.
type Event struct {
	Type      domain.EventType
	Sender    Object
	Field     *FieldDescriptor
	OldTarget Object
	NewTarget Object
	Index     int
	// Recorder is the undo recorder active when the event was raised; handlers
	// performing cascading mutations pass it on.
	Recorder ports.UndoRecorder
}

// EventHandler is implemented by objects that react to events of the targets they
// reference. Returning false stops a propagating event at this object; a handler can
// suppress propagation but never force it.
type EventHandler interface {
	OnReferenceEvent(source Object, ev *Event) (bool, error)
}

// PropertyChangeHandler is called after a scalar field of the object changed.
type PropertyChangeHandler interface {
	OnPropertyChanged(rec ports.UndoRecorder, field *FieldDescriptor) error
}

// ReferenceChangeHandler is called after a single reference field of the object was swapped.
type ReferenceChangeHandler interface {
	OnReferenceReplaced(rec ports.UndoRecorder, field *FieldDescriptor, oldTarget, newTarget Object) error
}

// VectorChangeHandler is called after a vector field of the object gained or lost an entry.
type VectorChangeHandler interface {
	OnReferenceInserted(rec ports.UndoRecorder, field *FieldDescriptor, target Object, index int) error
	OnReferenceRemoved(rec ports.UndoRecorder, field *FieldDescriptor, target Object, index int) error
}

// NotifyDependents broadcasts an event of the given type to every dependent.
func (b *Base) NotifyDependents(rec ports.UndoRecorder, t domain.EventType) error {
	b.mustInit()
	return b.notify(&Event{Type: t, Sender: b.self, Recorder: rec})
}

// NotifyTargetChanged tells dependents that the object changed. field may be nil when
// the change is not tied to a single field.
func (b *Base) NotifyTargetChanged(rec ports.UndoRecorder, field *FieldDescriptor) error {
	b.mustInit()
	if !b.class.target {
		return nil
	}
	return b.notify(&Event{Type: domain.EventTargetChanged, Sender: b.self, Field: field, Recorder: rec})
}

// notify walks the dependents from the back; handlers may add or remove dependents
// while the broadcast is running.
func (b *Base) notify(ev *Event) error {
	var errs []error
	for i := len(b.dependents) - 1; i >= 0; i-- {
		if i >= len(b.dependents) {
			continue
		}
		if err := b.dependents[i].handleEvent(b.self, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Base) handleEvent(source Object, ev *Event) error {
	propagate, err := b.referenceEvent(source, ev)
	if ev.Type == domain.EventTargetDeleted {
		return errors.Join(err, b.ClearReferencesTo(ev.Recorder, ev.Sender))
	}
	if err != nil || !propagate || !b.class.target {
		return err
	}
	return b.notify(ev)
}

func (b *Base) referenceEvent(source Object, ev *Event) (bool, error) {
	propagate := ev.Type.Propagates() && !b.holdsInSilentField(source)
	if h, ok := b.self.(EventHandler); ok {
		handled, err := h.OnReferenceEvent(source, ev)
		return propagate && handled, err
	}
	return propagate, nil
}

func (b *Base) holdsInSilentField(source Object) bool {
	found := false
	b.class.eachField(func(fd *FieldDescriptor) bool {
		if fd.IsReferenceField() && fd.flags.Has(domain.FlagDontPropagateMessages) {
			found = fd.storage(b.self).(targetStorage).contains(source)
		}
		return !found
	})
	return found
}

// fieldChanged raises TargetChanged and the field's extra event after a mutation.
func (b *Base) fieldChanged(rec ports.UndoRecorder, fd *FieldDescriptor) error {
	var errs []error
	if fd.ShouldGenerateChangeEvent() && b.class.target {
		errs = append(errs, b.notify(&Event{Type: domain.EventTargetChanged, Sender: b.self, Field: fd, Recorder: rec}))
	}
	if fd.extra != 0 {
		errs = append(errs, b.notify(&Event{Type: fd.extra, Sender: b.self, Field: fd, Recorder: rec}))
	}
	return errors.Join(errs...)
}

func (b *Base) propertyChanged(rec ports.UndoRecorder, fd *FieldDescriptor) error {
	var errs []error
	if h, ok := b.self.(PropertyChangeHandler); ok {
		errs = append(errs, h.OnPropertyChanged(rec, fd))
	}
	errs = append(errs, b.fieldChanged(rec, fd))
	return contain(rec, errors.Join(errs...))
}

func (b *Base) referenceReplaced(rec ports.UndoRecorder, fd *FieldDescriptor, oldTarget, newTarget Object) error {
	var errs []error
	if h, ok := b.self.(ReferenceChangeHandler); ok {
		errs = append(errs, h.OnReferenceReplaced(rec, fd, oldTarget, newTarget))
	}
	if b.class.target {
		errs = append(errs, b.notify(&Event{
			Type:      domain.EventReferenceChanged,
			Sender:    b.self,
			Field:     fd,
			OldTarget: oldTarget,
			NewTarget: newTarget,
			Recorder:  rec,
		}))
	}
	errs = append(errs, b.fieldChanged(rec, fd))
	return contain(rec, errors.Join(errs...))
}

func (b *Base) referenceInserted(rec ports.UndoRecorder, fd *FieldDescriptor, target Object, index int) error {
	var errs []error
	if h, ok := b.self.(VectorChangeHandler); ok {
		errs = append(errs, h.OnReferenceInserted(rec, fd, target, index))
	}
	if b.class.target {
		errs = append(errs, b.notify(&Event{
			Type:      domain.EventReferenceAdded,
			Sender:    b.self,
			Field:     fd,
			NewTarget: target,
			Index:     index,
			Recorder:  rec,
		}))
	}
	errs = append(errs, b.fieldChanged(rec, fd))
	return contain(rec, errors.Join(errs...))
}

func (b *Base) referenceRemoved(rec ports.UndoRecorder, fd *FieldDescriptor, target Object, index int) error {
	var errs []error
	if h, ok := b.self.(VectorChangeHandler); ok {
		errs = append(errs, h.OnReferenceRemoved(rec, fd, target, index))
	}
	if b.class.target {
		errs = append(errs, b.notify(&Event{
			Type:      domain.EventReferenceRemoved,
			Sender:    b.self,
			Field:     fd,
			OldTarget: target,
			Index:     index,
			Recorder:  rec,
		}))
	}
	errs = append(errs, b.fieldChanged(rec, fd))
	return contain(rec, errors.Join(errs...))
}

// contain swallows handler failures raised while the recorder is replaying history,
// so that a rollback always runs to completion.
func contain(rec ports.UndoRecorder, err error) error {
	if err == nil || rec == nil || !rec.IsUndoingOrRedoing() {
		return err
	}
	loggerFor(rec).Warn("Ignoring handler error during undo/redo", "error", err)
	return nil
}

func loggerFor(rec ports.UndoRecorder) *slog.Logger {
	if l, ok := rec.(interface{ Logger() *slog.Logger }); ok && l.Logger() != nil {
		return l.Logger()
	}
	return slog.Default()
}

func recording(rec ports.UndoRecorder, fd *FieldDescriptor) bool {
	return rec != nil && fd.AutomaticUndo() && rec.IsRecording()
}
