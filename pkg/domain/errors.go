package domain

import "errors"

// ErrTypeMismatch is returned when a reference field is assigned an object whose class is
// not derived from the field's declared target class.
var ErrTypeMismatch = errors.New("incompatible reference target type")

// ErrCyclicReference is returned when an assignment would make an object reference itself,
// directly or through a chain of references.
var ErrCyclicReference = errors.New("cyclic reference")

// ErrInvalidFieldConfiguration signals a class authoring defect, such as automatic undo
// declared on a class whose instances cannot be reference targets. It is raised as a panic.
var ErrInvalidFieldConfiguration = errors.New("invalid field configuration")

// ErrIndexOutOfRange is returned by vector reference fields for an invalid slot index.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrNotInitialized is raised (as a panic) when an object is used before InitObject.
var ErrNotInitialized = errors.New("object not initialized")

// ErrClassNotFound is returned when a class name cannot be resolved in a registry.
var ErrClassNotFound = errors.New("class not found")

// ErrSnapshotNotFound is returned when a snapshot ID cannot be found in the store.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrNothingToUndo is returned by the undo stack when no operation can be undone.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by the undo stack when no operation can be redone.
var ErrNothingToRedo = errors.New("nothing to redo")

// ErrNoTransaction is returned when a transaction is ended that was never begun.
var ErrNoTransaction = errors.New("no transaction in progress")

// ErrFieldNotFound is returned when a field name cannot be resolved on a class.
var ErrFieldNotFound = errors.New("field not found")

// ErrWrongFieldKind is returned when a field is accessed through an API for another
// kind of field, such as setting a target on a scalar property.
var ErrWrongFieldKind = errors.New("wrong field kind")
