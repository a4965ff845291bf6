package object_test

import (
	"testing"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(n *Node) []string {
	var out []string
	for _, c := range nodeChildren.All(n) {
		if c == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, nodeTitle.Get(c))
	}
	return out
}

func filled(t *testing.T, names ...string) (*Node, []*Node) {
	t.Helper()
	owner := newNode("owner")
	var items []*Node
	for _, name := range names {
		n := newNode(name)
		items = append(items, n)
		_, err := nodeChildren.PushBack(nil, owner, n)
		require.NoError(t, err)
	}
	return owner, items
}

func TestVector_RemoveUndo(t *testing.T) {
	owner, items := filled(t, "x", "y", "z")
	y := items[1]
	rec := newRecorder()

	require.NoError(t, nodeChildren.Remove(rec, owner, 1))
	assert.Equal(t, []string{"x", "z"}, titles(owner))
	assert.Equal(t, 0, y.ReferenceCount())
	assert.False(t, y.HasDependent(owner))

	rec.undo(t)
	assert.Equal(t, []string{"x", "y", "z"}, titles(owner))
	assert.Equal(t, 1, y.ReferenceCount())
	assert.True(t, y.HasDependent(owner))

	rec.redo(t)
	assert.Equal(t, []string{"x", "z"}, titles(owner))
}

func TestVector_InsertPositions(t *testing.T) {
	owner, _ := filled(t, "b")
	rec := newRecorder()

	idx, err := nodeChildren.Insert(rec, owner, newNode("a"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = nodeChildren.Insert(rec, owner, newNode("c"), object.Append)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = nodeChildren.Insert(rec, owner, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	assert.Equal(t, []string{"a", "<nil>", "b", "c"}, titles(owner))
	assert.Equal(t, 3, rec.depth())

	op, ok := rec.done[1].(*object.InsertReferenceOperation)
	require.True(t, ok)
	assert.Equal(t, 2, op.Index(), "append resolves to the actual position")

	rec.undoAll(t)
	assert.Equal(t, []string{"b"}, titles(owner))
}

func TestVector_DuplicatesAndNil(t *testing.T) {
	owner := newNode("owner")
	x := newNode("x")
	_, err := nodeChildren.PushBack(nil, owner, x)
	require.NoError(t, err)
	_, err = nodeChildren.PushBack(nil, owner, x)
	require.NoError(t, err)
	_, err = nodeChildren.PushBack(nil, owner, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, nodeChildren.Len(owner))
	assert.Equal(t, 2, x.ReferenceCount())
	assert.Equal(t, []object.Object{owner}, x.Dependents())

	v := nodeChildren.Field(owner)
	assert.Equal(t, 0, v.IndexOf(x))
	assert.True(t, v.Contains(x))
	assert.False(t, v.Contains(nil))
	assert.Nil(t, nodeChildren.Get(owner, 2))
}

func TestVector_IndexOutOfRange(t *testing.T) {
	owner, _ := filled(t, "x")
	rec := newRecorder()

	_, err := nodeChildren.Insert(rec, owner, newNode("n"), 5)
	require.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = nodeChildren.Insert(rec, owner, newNode("n"), -2)
	require.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	require.ErrorIs(t, nodeChildren.Remove(rec, owner, 1), domain.ErrIndexOutOfRange)
	require.ErrorIs(t, nodeChildren.SetAt(rec, owner, -1, newNode("n")), domain.ErrIndexOutOfRange)

	assert.Equal(t, 0, rec.depth())
	assert.Equal(t, []string{"x"}, titles(owner))
}

func TestVector_RejectsCycle(t *testing.T) {
	owner, items := filled(t, "x")
	rec := newRecorder()

	_, err := nodeChildren.PushBack(rec, items[0], owner)
	require.ErrorIs(t, err, domain.ErrCyclicReference)
	assert.Equal(t, 0, nodeChildren.Len(items[0]))

	err = nodeChildren.SetAt(rec, owner, 0, owner)
	require.ErrorIs(t, err, domain.ErrCyclicReference)
	assert.Equal(t, []string{"x"}, titles(owner), "rejected replacement removes nothing")
	assert.Equal(t, 0, rec.depth())
}

func TestVector_SetAt(t *testing.T) {
	owner, items := filled(t, "x", "y")
	w := newNode("w")
	rec := newRecorder()

	require.NoError(t, nodeChildren.SetAt(rec, owner, 1, w))
	assert.Equal(t, []string{"x", "w"}, titles(owner))
	assert.Equal(t, 2, rec.depth(), "a removal and an insertion")
	assert.Equal(t, 0, items[1].ReferenceCount())

	rec.undoAll(t)
	assert.Equal(t, []string{"x", "y"}, titles(owner))
	assert.Equal(t, 0, w.ReferenceCount())
}

func TestVector_Assign(t *testing.T) {
	owner, items := filled(t, "x", "y", "z")
	x, y, z := items[0], items[1], items[2]
	w := newNode("w")
	rec := newRecorder()

	require.NoError(t, nodeChildren.Assign(rec, owner, []nodeish{y, w}))
	assert.Equal(t, []string{"y", "w"}, titles(owner))
	assert.Equal(t, 0, x.ReferenceCount())
	assert.Equal(t, 1, y.ReferenceCount())
	assert.Equal(t, 0, z.ReferenceCount())
	assert.False(t, z.HasDependent(owner))

	rec.undoAll(t)
	assert.Equal(t, []string{"x", "y", "z"}, titles(owner))
	for _, n := range items {
		assert.Equal(t, 1, n.ReferenceCount())
	}
	assert.Equal(t, 0, w.ReferenceCount())
}

func TestVector_AssignRewritesEqualSlots(t *testing.T) {
	owner, items := filled(t, "x")
	rec := newRecorder()

	require.NoError(t, nodeChildren.Assign(rec, owner, []nodeish{items[0]}))
	assert.Equal(t, []string{"x"}, titles(owner))
	assert.Equal(t, 2, rec.depth())
}

func TestVector_AssignGrows(t *testing.T) {
	owner := newNode("owner")
	a, b := newNode("a"), newNode("b")

	require.NoError(t, nodeChildren.Assign(nil, owner, []nodeish{a, b}))
	assert.Equal(t, []string{"a", "b"}, titles(owner))
}

func TestVector_ClearFromBack(t *testing.T) {
	owner, _ := filled(t, "x", "y", "z")
	owner.hooks = nil
	rec := newRecorder()

	require.NoError(t, nodeChildren.Clear(rec, owner))
	assert.Equal(t, 0, nodeChildren.Len(owner))
	assert.Equal(t, 3, rec.depth())
	for _, op := range rec.done {
		assert.Contains(t, op.DisplayName(), "Remove from children")
	}
	assert.Equal(t, 2, rec.done[0].(*object.RemoveReferenceOperation).Index())

	rec.undoAll(t)
	assert.Equal(t, []string{"x", "y", "z"}, titles(owner))
}

func TestVector_HooksAndEvents(t *testing.T) {
	owner := newNode("owner")
	parent := newNode("parent")
	require.NoError(t, nodeChild.Set(nil, parent, owner))
	parent.events = nil

	_, err := nodeChildren.PushBack(nil, owner, newNode("x"))
	require.NoError(t, err)
	require.NoError(t, nodeChildren.Remove(nil, owner, 0))

	assert.Equal(t, []string{"inserted:children", "removed:children"}, owner.hooks)
	assert.Equal(t, []domain.EventType{
		domain.EventReferenceAdded, domain.EventTargetChanged,
		domain.EventReferenceRemoved, domain.EventTargetChanged,
	}, parent.events)
}

func TestVector_UntypedAccess(t *testing.T) {
	owner, items := filled(t, "x")
	rec := newRecorder()

	idx, err := nodeChildren.InsertTarget(rec, owner, newNode("y"), object.Append)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	n, err := nodeChildren.FieldDescriptor.Len(owner)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	targets, err := nodeChildren.Targets(owner)
	require.NoError(t, err)
	assert.Same(t, items[0], targets[0])

	require.NoError(t, nodeChildren.ReplaceTarget(rec, owner, 0, newNode("z")))
	require.NoError(t, nodeChildren.RemoveTarget(rec, owner, 1))
	assert.Equal(t, []string{"z"}, titles(owner))

	_, err = nodeChildren.InsertTarget(rec, owner, newOther(), 0)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)

	_, err = nodeTitle.InsertTarget(rec, owner, newNode("q"), 0)
	require.ErrorIs(t, err, domain.ErrWrongFieldKind)
}
