package domain

import (
	"bytes"
	"encoding/json"
	"slices"
)

// SnapshotDiff represents the changes between two snapshots of the same document.
// It is designed to be serialized to JSON.
type SnapshotDiff struct {
	// Root is set when the root object changed.
	Root *string `json:"root,omitempty"`

	// Added and Removed list object IDs present in only one snapshot, in ID order.
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`

	// Changed holds the field level changes of objects present in both snapshots.
	Changed map[string]*ObjectDelta `json:"changed,omitempty"`
}

// ObjectDelta lists the changed fields of one object.
type ObjectDelta struct {
	// Class is set when the object was replaced by one of another class.
	Class string `json:"class,omitempty"`

	// Properties contains only changed or added properties, with their new value.
	Properties map[string]json.RawMessage `json:"properties,omitempty"`

	// Unset lists properties no longer saved.
	Unset []string `json:"unset,omitempty"`

	// References contains changed reference fields with their new targets. Removed
	// fields are present with a nil list.
	References map[string][]string `json:"references,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, every object of newSnap is reported as added. Returns nil when
// nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}
	if oldSnap == nil {
		oldSnap = &Snapshot{}
	}

	diff := &SnapshotDiff{}
	if oldSnap.Root != newSnap.Root {
		diff.Root = &newSnap.Root
	}

	for id, rec := range newSnap.Objects {
		old, exists := oldSnap.Objects[id]
		if !exists {
			diff.Added = append(diff.Added, id)
			continue
		}
		if delta := diffObject(old, rec); delta != nil {
			if diff.Changed == nil {
				diff.Changed = make(map[string]*ObjectDelta)
			}
			diff.Changed[id] = delta
		}
	}
	for id := range oldSnap.Objects {
		if _, exists := newSnap.Objects[id]; !exists {
			diff.Removed = append(diff.Removed, id)
		}
	}
	slices.SortFunc(diff.Added, compareIDs)
	slices.SortFunc(diff.Removed, compareIDs)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffObject(old, rec *ObjectRecord) *ObjectDelta {
	if old == nil {
		old = &ObjectRecord{}
	}
	if rec == nil {
		rec = &ObjectRecord{}
	}

	delta := &ObjectDelta{}
	if old.Class != rec.Class {
		delta.Class = rec.Class
	}

	// Check for Added or Modified
	for k, v := range rec.Properties {
		if ov, exists := old.Properties[k]; !exists || !bytes.Equal(ov, v) {
			if delta.Properties == nil {
				delta.Properties = make(map[string]json.RawMessage)
			}
			delta.Properties[k] = v
		}
	}
	// Check for Deletions
	for k := range old.Properties {
		if _, exists := rec.Properties[k]; !exists {
			delta.Unset = append(delta.Unset, k)
		}
	}
	slices.Sort(delta.Unset)

	for k, v := range rec.References {
		if ov, exists := old.References[k]; !exists || !slices.Equal(ov, v) {
			if delta.References == nil {
				delta.References = make(map[string][]string)
			}
			delta.References[k] = v
		}
	}
	for k := range old.References {
		if _, exists := rec.References[k]; !exists {
			if delta.References == nil {
				delta.References = make(map[string][]string)
			}
			delta.References[k] = nil
		}
	}

	if delta.Class == "" && len(delta.Properties) == 0 && len(delta.Unset) == 0 && len(delta.References) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Root == nil &&
		len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0
}

// compareIDs orders decimal object IDs numerically.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
