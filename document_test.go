package refgraph_test

import (
	"context"
	"testing"

	"github.com/aretw0/refgraph"
	"github.com/aretw0/refgraph/pkg/adapters/memory"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const table = `
classes:
  - name: Task
    fields:
      - name: title
        type: string
      - name: done
        type: bool
      - name: subtasks
        kind: vector
        target: Task
`

func newDoc(t *testing.T, opts ...refgraph.Option) (*refgraph.Document, *registry.Registry) {
	t.Helper()
	specs, err := schema.Parse([]byte(table))
	require.NoError(t, err)
	reg := registry.NewRegistry()
	_, err = schema.Build(reg, specs)
	require.NoError(t, err)
	return refgraph.New(append([]refgraph.Option{refgraph.WithRegistry(reg)}, opts...)...), reg
}

func newTask(t *testing.T, reg *registry.Registry, title string) *schema.Record {
	t.Helper()
	obj, err := reg.New("Task")
	require.NoError(t, err)
	rec := obj.(*schema.Record)
	require.NoError(t, rec.SetValue(nil, "title", title))
	return rec
}

func TestDocument_TransactionUndoRedo(t *testing.T) {
	doc, reg := newDoc(t)
	task := newTask(t, reg, "write")

	require.NoError(t, doc.Transaction("Add task", func(rec ports.UndoRecorder) error {
		if err := task.SetValue(rec, "done", true); err != nil {
			return err
		}
		return doc.Add(task)
	}))
	assert.Len(t, doc.Objects(), 1)
	assert.True(t, doc.IsModified())
	assert.Equal(t, "Add task", doc.History().UndoText)

	require.NoError(t, doc.Undo())
	assert.Empty(t, doc.Objects())
	done, _ := task.Value("done")
	assert.Equal(t, false, done)
	assert.Equal(t, 0, task.ReferenceCount())

	require.NoError(t, doc.Redo())
	assert.Len(t, doc.Objects(), 1)
	assert.Equal(t, 1, task.ReferenceCount())

	h := doc.History()
	assert.Equal(t, []string{"Add task"}, h.Entries)
	assert.Equal(t, 0, h.Index)
	assert.Empty(t, h.RedoText)
}

func TestDocument_FailedTransactionRollsBack(t *testing.T) {
	doc, reg := newDoc(t)
	a, b := newTask(t, reg, "a"), newTask(t, reg, "b")
	require.NoError(t, doc.Add(a))

	err := doc.Transaction("Nest", func(rec ports.UndoRecorder) error {
		if _, err := a.InsertTarget(rec, "subtasks", b, object.Append); err != nil {
			return err
		}
		_, err := b.InsertTarget(rec, "subtasks", a, object.Append)
		return err
	})
	require.ErrorIs(t, err, domain.ErrCyclicReference)
	subtasks, _ := a.Targets("subtasks")
	assert.Empty(t, subtasks)
	assert.Empty(t, doc.History().Entries)
}

func TestDocument_NameAndDelete(t *testing.T) {
	doc, reg := newDoc(t, refgraph.WithName("plan"))
	assert.Equal(t, "plan", doc.Name())

	parent, child := newTask(t, reg, "parent"), newTask(t, reg, "child")
	require.NoError(t, doc.Transaction("Build", func(rec ports.UndoRecorder) error {
		if err := doc.SetName("roadmap"); err != nil {
			return err
		}
		if err := doc.Add(parent); err != nil {
			return err
		}
		if err := doc.Add(child); err != nil {
			return err
		}
		_, err := parent.InsertTarget(rec, "subtasks", child, object.Append)
		return err
	}))
	assert.Equal(t, 2, child.ReferenceCount())

	require.NoError(t, doc.Transaction("Delete", func(ports.UndoRecorder) error {
		return doc.Delete(child)
	}))
	assert.Equal(t, 0, child.ReferenceCount())
	subtasks, _ := parent.Targets("subtasks")
	assert.Empty(t, subtasks)

	require.NoError(t, doc.Undo())
	assert.Equal(t, 2, child.ReferenceCount())
	require.NoError(t, doc.Undo())
	assert.Equal(t, "plan", doc.Name())
	assert.Empty(t, doc.Objects())
}

func TestDocument_RemoveAndDeleteNil(t *testing.T) {
	doc, reg := newDoc(t)
	task := newTask(t, reg, "kept")
	require.NoError(t, doc.Add(task))

	var missing *schema.Record
	require.NotPanics(t, func() {
		assert.NoError(t, doc.Remove(nil))
		assert.NoError(t, doc.Delete(nil))
		assert.NoError(t, doc.Remove(missing))
		assert.NoError(t, doc.Delete(missing))
	})
	assert.Len(t, doc.Objects(), 1)
	assert.Equal(t, 1, task.ReferenceCount())
}

func TestDocument_Watch(t *testing.T) {
	doc, reg := newDoc(t)
	task := newTask(t, reg, "watch me")
	require.NoError(t, doc.Add(task))

	var events []domain.EventType
	l, err := doc.Watch(func(ev *object.Event) error {
		events = append(events, ev.Type)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, task.SetValue(nil, "done", true))
	assert.Contains(t, events, domain.EventTargetChanged)

	require.NoError(t, l.Close())
	events = nil
	require.NoError(t, task.SetValue(nil, "done", false))
	assert.Empty(t, events)
}

func TestDocument_SaveLoad(t *testing.T) {
	store := memory.NewStore()
	doc, reg := newDoc(t, refgraph.WithStore(store), refgraph.WithName("saved"))
	parent, child := newTask(t, reg, "parent"), newTask(t, reg, "child")
	require.NoError(t, doc.Transaction("Build", func(rec ports.UndoRecorder) error {
		if _, err := parent.InsertTarget(rec, "subtasks", child, object.Append); err != nil {
			return err
		}
		return doc.Add(parent)
	}))

	ctx := context.Background()
	require.NoError(t, doc.Save(ctx, "v1"))
	assert.False(t, doc.IsModified())

	ids, err := doc.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, ids)

	other := refgraph.New(refgraph.WithRegistry(reg), refgraph.WithStore(store))
	require.NoError(t, other.Load(ctx, "v1"))
	assert.Equal(t, "saved", other.Name())
	require.Len(t, other.Objects(), 1)
	loaded := other.Objects()[0].(*schema.Record)
	title, _ := loaded.Value("title")
	assert.Equal(t, "parent", title)
	kids, _ := loaded.Targets("subtasks")
	require.Len(t, kids, 1)
	title, _ = kids[0].(*schema.Record).Value("title")
	assert.Equal(t, "child", title)
	assert.Equal(t, 1, loaded.ReferenceCount())
	assert.Empty(t, other.History().Entries)

	require.ErrorIs(t, other.Load(ctx, "missing"), domain.ErrSnapshotNotFound)
}

func TestDocument_NoStore(t *testing.T) {
	doc, _ := newDoc(t)
	ctx := context.Background()
	assert.Error(t, doc.Save(ctx, "x"))
	assert.Error(t, doc.Load(ctx, "x"))
	_, err := doc.Snapshots(ctx)
	assert.Error(t, err)
}

func TestDocument_RestoreRejectsForeignRoot(t *testing.T) {
	doc, reg := newDoc(t)
	task := newTask(t, reg, "root")
	snap, err := doc.Snapshot("x")
	require.NoError(t, err)
	require.NoError(t, doc.Add(task))

	foreign := domain.NewSnapshot("foreign")
	foreign.Root = "1"
	foreign.Objects["1"] = &domain.ObjectRecord{Class: "Task"}
	require.Error(t, doc.Restore(foreign))
	assert.Len(t, doc.Objects(), 1, "unchanged on failure")

	require.NoError(t, doc.Restore(snap))
	assert.Empty(t, doc.Objects())
}

func TestDocument_Metrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	doc, reg := newDoc(t, refgraph.WithMetricsRegisterer(promReg), refgraph.WithUndoLimit(1))
	for _, title := range []string{"a", "b"} {
		task := newTask(t, reg, title)
		require.NoError(t, doc.Transaction("Add "+title, func(ports.UndoRecorder) error { return doc.Add(task) }))
	}
	assert.Equal(t, []string{"Add b"}, doc.History().Entries)

	families, err := promReg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
