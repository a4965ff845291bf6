/*
Package undo provides the transactional undo log used by documents.

A Stack satisfies ports.UndoRecorder. Field mutations push operations only while a
transaction is open; a committed outermost transaction becomes one undo step and a
rolled back one is reverted on the spot:

	stack := undo.New(undo.WithUndoLimit(100))
	err := stack.Transaction("Rename", func() error {
		return nodeTitle.Set(stack, node, "renamed")
	})
	_ = stack.Undo()

While a step is replayed recording is suspended, and IsUndoingOrRedoing reports true
so that change handlers can tell a replay from a user edit.

# Key Entities

  - Stack: Ordered undo steps, the open transactions and the clean marker.
  - Metrics: Optional prometheus collectors for pushes, replays and outcomes.
*/
package undo
