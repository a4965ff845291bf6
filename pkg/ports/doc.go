/*
Package ports defines the driven ports (interfaces) of the refgraph object system.

These interfaces decouple the field machinery from the undo log that consumes its
operations and from the backends that persist object graph snapshots.

# Key Interfaces

  - UndoRecorder: The undo log as seen by fields (is it recording, push an operation).
  - UndoableOperation: A command that inverts exactly one field mutation.
  - SnapshotStore: Persists and loads object graph snapshots.
*/
package ports
