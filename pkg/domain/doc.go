/*
Package domain contains the leaf vocabulary of the refgraph object system.

It defines the field flags carried by every field descriptor, the notification event
types broadcast through the dependents graph, and the sentinel errors returned by
rejected mutations. The package has no dependencies so every other layer can share it.

# Key Types

  - Flags: Per-field behaviour switches (vector, weak reference, no undo, clone policy, ...).
  - EventType: The kind of a notification event (TargetChanged, ReferenceAdded, ...).
  - Errors: ErrTypeMismatch, ErrCyclicReference, ErrInvalidFieldConfiguration and friends.
*/
package domain
