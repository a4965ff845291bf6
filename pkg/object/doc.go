/*
Package object implements the reference graph substrate: objects that own typed fields,
single and vector references between objects, and the bookkeeping that keeps the graph
consistent.

Every object embeds Base and is bound to a Class at construction. A class declares its
fields once, at package initialisation, through DefineProperty, DefineReference and
DefineVector. The returned descriptors are used to read and mutate the fields:

	var NodeClass = object.NewClass("Node", nil)

	var nodeTitle = object.DefineProperty(NodeClass, "title",
		func(n *Node) *object.Property[string] { return &n.title })

	type Node struct {
		object.Base
		title object.Property[string]
	}

	func NewNode() *Node {
		n := &Node{}
		n.InitObject(n, NodeClass)
		return n
	}

	err := nodeTitle.Set(rec, node, "hello")

# Key Entities

  - Base: Identity, dependents list and reference count of an object.
  - Property[T]: A scalar field. Changes are recorded and announced.
  - Reference[T]: A single, possibly nil, target. Assignments are type and cycle checked.
  - Vector[T]: An ordered list of targets with insert/remove semantics.
  - PropertyChangeOperation, SetReferenceOperation, InsertReferenceOperation,
    RemoveReferenceOperation: The undo records produced by field mutations.
  - Listener: A weak observer for code outside the graph.

# Invariants

For every object, the reference count equals the number of strong field slots pointing at
it, and the dependents list holds exactly the objects with at least one slot pointing at
it. References never form a cycle. Mutations rejected with an error leave no trace.

Passing a nil ports.UndoRecorder performs a mutation without recording it.
*/
package object
