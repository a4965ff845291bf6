package object

import (
	"fmt"
	"weak"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/ports"
)

// fieldOperation is the state shared by the four field undo operations: the owner
// and the descriptor of the mutated field. A document root is held weakly so that a
// history entry never outlives the document it belongs to.
type fieldOperation struct {
	rec        ports.UndoRecorder
	descriptor *FieldDescriptor
	strong     Object
	root       weak.Pointer[Base]
}

func newFieldOperation(rec ports.UndoRecorder, owner Object, field *FieldDescriptor) fieldOperation {
	op := fieldOperation{rec: rec, descriptor: field}
	if isRoot(owner) {
		op.root = weak.Make(owner.ObjectBase())
	} else {
		op.strong = owner
	}
	return op
}

// Owner returns the object whose field was mutated, or nil when it was a document
// root that no longer exists.
func (op *fieldOperation) Owner() Object {
	if op.strong != nil {
		return op.strong
	}
	if b := op.root.Value(); b != nil {
		return b.self
	}
	return nil
}

// Descriptor returns the mutated field.
func (op *fieldOperation) Descriptor() *FieldDescriptor { return op.descriptor }

func (op *fieldOperation) owner() (Object, error) {
	o := op.Owner()
	if o == nil {
		return nil, fmt.Errorf("%w: owner of %s is gone", domain.ErrNotInitialized, op.descriptor)
	}
	return o, nil
}

func (op *fieldOperation) ownerName() string {
	if o := op.Owner(); o != nil {
		return o.ObjectBase().String()
	}
	return "<gone>"
}

// FieldError reports a rejected field mutation.
type FieldError struct {
	Op     string
	Class  string
	Field  string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("%s %s.%s: %v", e.Op, e.Class, e.Field, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(op string, owner Object, field *FieldDescriptor, err error, format string, args ...any) *FieldError {
	return &FieldError{
		Op:     op,
		Class:  owner.ObjectBase().class.name,
		Field:  field.name,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}
