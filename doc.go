/*
Package refgraph is an object graph substrate with reference tracking, change
notification and transactional undo.

Objects declare typed fields once per class. Scalar properties, single references and
ordered reference vectors keep the graph consistent on every mutation: reference counts
and dependents lists are maintained, cycles are rejected, dependents are notified and,
inside a transaction, every change is recorded so it can be undone and redone.

# Concept

A Document is the root of a graph. It owns the top level objects and an undo stack;
everything reachable from it can be captured as a snapshot and stored through a
ports.SnapshotStore (memory, file or redis adapters).

# Key Features

  - Typed fields: object.Property, object.Reference and object.Vector, declared through descriptors.
  - Bookkeeping: reference counts for strong references and dependents lists for every reference.
  - Notification: TargetChanged and friends travel up the dependents graph.
  - Undo: automatic operations grouped in transactions by the undo package.
  - Schemas: classes declared in YAML tables (package schema) behave like hand written ones.

# Usage

	doc := refgraph.New(refgraph.WithStore(file.New("./snapshots")))

	err := doc.Transaction("Add shape", func(rec ports.UndoRecorder) error {
		if err := shape.SetValue(rec, "title", "box"); err != nil {
			return err
		}
		return doc.Add(shape)
	})

	_ = doc.Undo()
	_ = doc.Save(ctx, "draft")

# Key Entities

  - Document: Graph root, undo stack, registry and store.
  - History: Read-only view of the undo stack.
*/
package refgraph
