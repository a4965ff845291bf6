package domain

import "fmt"

// EventType defines the category of a notification event.
type EventType int

const (
	// EventTargetChanged is sent when a property or reference of the sender changed.
	// It is the only built-in event that travels further up the dependents graph.
	EventTargetChanged EventType = iota + 1
	// EventTargetDeleted is sent when the sender is being deleted. Receivers drop their references.
	EventTargetDeleted
	// EventReferenceChanged is sent when a single reference field of the sender was replaced.
	EventReferenceChanged
	// EventReferenceAdded is sent when a target was inserted into a vector field of the sender.
	EventReferenceAdded
	// EventReferenceRemoved is sent when a target was removed from a vector field of the sender.
	EventReferenceRemoved
	// EventTitleChanged is sent when the display title of the sender changed.
	EventTitleChanged

	// EventUser is the first value available for application defined event types,
	// typically used as the extra event kind of a field descriptor.
	EventUser EventType = 1000
)

var eventNames = map[EventType]string{
	EventTargetChanged:    "target_changed",
	EventTargetDeleted:    "target_deleted",
	EventReferenceChanged: "reference_changed",
	EventReferenceAdded:   "reference_added",
	EventReferenceRemoved: "reference_removed",
	EventTitleChanged:     "title_changed",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	if t >= EventUser {
		return fmt.Sprintf("user_%d", int(t-EventUser))
	}
	return fmt.Sprintf("event_%d", int(t))
}

// Propagates reports whether dependents forward the event to their own dependents.
func (t EventType) Propagates() bool {
	return t == EventTargetChanged
}

// ParseEventType resolves a name produced by EventType.String, such as "title_changed"
// or "user_3".
func ParseEventType(name string) (EventType, error) {
	for t, n := range eventNames {
		if n == name {
			return t, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "user_%d", &n); err == nil && n >= 0 {
		return EventUser + EventType(n), nil
	}
	return 0, fmt.Errorf("unknown event type %q", name)
}
