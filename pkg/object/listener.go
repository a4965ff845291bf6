package object

import (
	"github.com/aretw0/refgraph/pkg/domain"
)

// ListenerClass is the class of Listener. Listeners hold their targets weakly and
// cannot be referenced themselves.
var ListenerClass = NewOwnerClass("Listener", nil)

var listenerTargets = DefineVector(ListenerClass, "targets", nil,
	func(l *Listener) *Vector[Object] { return &l.targets },
	WithFlags(domain.FlagWeakRef|domain.FlagNoUndo|domain.FlagNoChangeMessage|domain.FlagDontSave))

// Listener forwards the events of the targets it watches to a callback. It lets code
// outside the graph observe objects without keeping them alive or being undone.
type Listener struct {
	Base
	targets Vector[Object]
	fn      func(ev *Event) error
}

// NewListener returns a listener invoking fn for every event of a watched target,
// including changes that propagate up from the target's own references.
func NewListener(fn func(ev *Event) error) *Listener {
	l := &Listener{fn: fn}
	l.InitObject(l, ListenerClass)
	return l
}

// Watch subscribes to target. Watching the same target twice has no effect.
func (l *Listener) Watch(target Object) error {
	target = asObject(target)
	if target == nil || l.targets.Contains(target) {
		return nil
	}
	_, err := listenerTargets.PushBack(nil, l, target)
	return err
}

// Unwatch ends the subscription to target.
func (l *Listener) Unwatch(target Object) error {
	i := l.targets.IndexOf(target)
	if i < 0 {
		return nil
	}
	return listenerTargets.Remove(nil, l, i)
}

// Targets returns the watched objects.
func (l *Listener) Targets() []Object { return l.targets.All() }

// Close drops every subscription.
func (l *Listener) Close() error {
	return listenerTargets.Clear(nil, l)
}

func (l *Listener) OnReferenceEvent(_ Object, ev *Event) (bool, error) {
	if l.fn == nil {
		return false, nil
	}
	return false, l.fn(ev)
}
