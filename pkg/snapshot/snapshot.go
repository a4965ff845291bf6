// Package snapshot converts object graphs to and from domain.Snapshot values.
//
// Encode walks every object reachable from a root through its reference fields and
// records the scalar fields as JSON and the references as object IDs. Decode rebuilds
// the graph through a registry and the regular field API, without recording undo
// operations. Fields flagged dont_save are skipped in both directions.
package snapshot

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/aretw0/refgraph/pkg/registry"
)

// ValueDecoder is implemented by objects that restore scalar fields themselves, for
// instance to convert JSON numbers to a declared type.
type ValueDecoder interface {
	DecodeValue(rec ports.UndoRecorder, fd *object.FieldDescriptor, raw []byte) error
}

func idOf(obj object.Object) string {
	return strconv.FormatUint(obj.ObjectBase().ID(), 10)
}

func saved(fd *object.FieldDescriptor) bool {
	return !fd.Flags().Has(domain.FlagDontSave)
}

// Encode captures root and everything it references.
func Encode(id string, root object.Object) (*domain.Snapshot, error) {
	if root == nil {
		return nil, fmt.Errorf("snapshot %s: nil root", id)
	}
	snap := domain.NewSnapshot(id)
	snap.Root = idOf(root)

	queue := []object.Object{root}
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		oid := idOf(obj)
		if _, done := snap.Objects[oid]; done {
			continue
		}
		rec := &domain.ObjectRecord{Class: obj.ObjectBase().Class().Name()}
		snap.Objects[oid] = rec

		for _, fd := range obj.ObjectBase().Class().Fields() {
			if !saved(fd) {
				continue
			}
			if !fd.IsReferenceField() {
				raw, err := fd.MarshalValue(obj)
				if err != nil {
					return nil, fmt.Errorf("encode %s: %w", fd, err)
				}
				if rec.Properties == nil {
					rec.Properties = make(map[string]json.RawMessage)
				}
				rec.Properties[fd.Name()] = raw
				continue
			}
			targets, err := fd.Targets(obj)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", fd, err)
			}
			ids := make([]string, len(targets))
			for i, t := range targets {
				if t == nil {
					continue
				}
				ids[i] = idOf(t)
				queue = append(queue, t)
			}
			if rec.References == nil {
				rec.References = make(map[string][]string)
			}
			rec.References[fd.Name()] = ids
		}
	}
	return snap, nil
}

// Decode rebuilds the graph of snap and returns its root. Objects are created through
// reg; their fields are assigned without recording.
func Decode(reg *registry.Registry, snap *domain.Snapshot) (object.Object, error) {
	if reg == nil {
		reg = registry.Default()
	}
	if _, ok := snap.Objects[snap.Root]; !ok {
		return nil, fmt.Errorf("snapshot %s: root %q is missing", snap.ID, snap.Root)
	}

	ids := make([]string, 0, len(snap.Objects))
	for id := range snap.Objects {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)

	objects := make(map[string]object.Object, len(ids))
	for _, id := range ids {
		obj, err := reg.New(snap.Objects[id].Class)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
		objects[id] = obj
	}

	for _, id := range ids {
		rec, obj := snap.Objects[id], objects[id]
		if err := decodeProperties(obj, rec); err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
		if err := decodeReferences(obj, rec, objects); err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
	}
	return objects[snap.Root], nil
}

func field(obj object.Object, name string) (*object.FieldDescriptor, error) {
	c := obj.ObjectBase().Class()
	fd, ok := c.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, c.Name(), name)
	}
	return fd, nil
}

func decodeProperties(obj object.Object, rec *domain.ObjectRecord) error {
	for _, name := range sortedKeys(rec.Properties) {
		fd, err := field(obj, name)
		if err != nil {
			return err
		}
		if !saved(fd) {
			continue
		}
		raw := rec.Properties[name]
		if d, ok := obj.(ValueDecoder); ok {
			err = d.DecodeValue(nil, fd, raw)
		} else {
			err = fd.UnmarshalValue(nil, obj, raw)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeReferences(obj object.Object, rec *domain.ObjectRecord, objects map[string]object.Object) error {
	for _, name := range sortedKeys(rec.References) {
		fd, err := field(obj, name)
		if err != nil {
			return err
		}
		if !saved(fd) {
			continue
		}
		targets := make([]object.Object, len(rec.References[name]))
		for i, tid := range rec.References[name] {
			if tid == "" {
				continue
			}
			t, ok := objects[tid]
			if !ok {
				return fmt.Errorf("%s: dangling reference to %s", fd, tid)
			}
			targets[i] = t
		}

		if !fd.IsVector() {
			if len(targets) > 1 {
				return fmt.Errorf("%s: %d targets for a single reference", fd, len(targets))
			}
			var t object.Object
			if len(targets) == 1 {
				t = targets[0]
			}
			if err := fd.SetTarget(nil, obj, t); err != nil {
				return err
			}
			continue
		}
		n, err := fd.Len(obj)
		if err != nil {
			return err
		}
		for i := n - 1; i >= 0; i-- {
			if err := fd.RemoveTarget(nil, obj, i); err != nil {
				return err
			}
		}
		for _, t := range targets {
			if _, err := fd.InsertTarget(nil, obj, t, object.Append); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// compareIDs orders numeric IDs numerically and everything else lexically.
func compareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
