package domain

import "strings"

// Flags controls the behaviour of a declared field.
type Flags uint32

const (
	// FlagNone is the default: an undoable, notifying, strong field.
	FlagNone Flags = 0
	// FlagVector marks a reference field that holds an ordered list of targets.
	FlagVector Flags = 1 << iota
	// FlagNoUndo disables automatic undo records for the field.
	FlagNoUndo
	// FlagWeakRef makes a reference field non-owning: it does not count towards the
	// target's reference count but still registers the owner as a dependent.
	FlagWeakRef
	// FlagNoChangeMessage suppresses the TargetChanged event on modification.
	FlagNoChangeMessage
	// FlagNeverCloneTarget makes clones share the referenced target.
	FlagNeverCloneTarget
	// FlagAlwaysClone makes clones always copy the referenced target.
	FlagAlwaysClone
	// FlagAlwaysDeepCopy makes clones always deep-copy the referenced target.
	FlagAlwaysDeepCopy
	// FlagDontPropagateMessages stops TargetChanged events coming from targets of this field.
	FlagDontPropagateMessages
	// FlagDontSave excludes the field from snapshots.
	FlagDontSave
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagVector, "vector"},
	{FlagNoUndo, "no_undo"},
	{FlagWeakRef, "weak"},
	{FlagNoChangeMessage, "no_change_message"},
	{FlagNeverCloneTarget, "never_clone_target"},
	{FlagAlwaysClone, "always_clone"},
	{FlagAlwaysDeepCopy, "always_deep_copy"},
	{FlagDontPropagateMessages, "dont_propagate"},
	{FlagDontSave, "dont_save"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Names returns the symbolic names of the set flags.
func (f Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseFlag resolves a symbolic flag name as produced by Names.
func ParseFlag(name string) (Flags, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return FlagNone, false
}
