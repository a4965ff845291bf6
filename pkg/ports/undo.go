package ports

// UndoableOperation is a command object that can revert and re-apply exactly one
// recorded change. The undo log replays operations in strict LIFO order.
type UndoableOperation interface {
	// DisplayName returns a human readable description of the change.
	DisplayName() string
	// Undo reverts the change.
	Undo() error
	// Redo re-applies the change after it was undone.
	Redo() error
}

// UndoRecorder is the view of the undo log consumed by the field machinery.
// A nil UndoRecorder is valid wherever one is accepted and means "not recording".
type UndoRecorder interface {
	// IsRecording reports whether mutations must push undo operations right now.
	IsRecording() bool
	// IsUndoingOrRedoing reports whether a rollback or replay is in progress.
	IsUndoingOrRedoing() bool
	// Push appends an operation to the current transaction.
	Push(op UndoableOperation)
}
