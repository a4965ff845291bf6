package undo_test

import (
	"testing"

	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	shapeClass = object.NewClass("Shape", nil)

	shapeName = object.DefineProperty(shapeClass, "name",
		func(s *shape) *object.Property[string] { return &s.name })
	shapeParts = object.DefineVector(shapeClass, "parts", shapeClass,
		func(s *shape) *object.Vector[*shape] { return &s.parts })
)

type shape struct {
	object.Base
	name  object.Property[string]
	parts object.Vector[*shape]
}

func newShape(name string) *shape {
	s := &shape{name: object.NewProperty(name)}
	s.InitObject(s, shapeClass)
	return s
}

func TestStack_DrivesObjectFields(t *testing.T) {
	s := undo.New()
	box, lid := newShape("box"), newShape("lid")

	require.NoError(t, s.Transaction("Assemble", func() error {
		if err := shapeName.Set(s, box, "crate"); err != nil {
			return err
		}
		_, err := shapeParts.PushBack(s, box, lid)
		return err
	}))
	assert.Equal(t, 1, lid.ReferenceCount())

	require.NoError(t, s.Undo())
	assert.Equal(t, "box", shapeName.Get(box))
	assert.Equal(t, 0, shapeParts.Len(box))
	assert.Equal(t, 0, lid.ReferenceCount())
	assert.False(t, lid.HasDependent(box))

	require.NoError(t, s.Redo())
	assert.Equal(t, "crate", shapeName.Get(box))
	assert.Equal(t, []*shape{lid}, shapeParts.All(box))
	assert.True(t, lid.HasDependent(box))
}

func TestStack_RollbackRestoresGraph(t *testing.T) {
	s := undo.New()
	a, b := newShape("a"), newShape("b")

	err := s.Transaction("Loop", func() error {
		if _, err := shapeParts.PushBack(s, a, b); err != nil {
			return err
		}
		_, err := shapeParts.PushBack(s, b, a)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, 0, shapeParts.Len(a))
	assert.Equal(t, 0, b.ReferenceCount())
	assert.Equal(t, 0, s.Count())
}

func TestStack_NoRecordingOutsideTransaction(t *testing.T) {
	s := undo.New()
	a := newShape("a")
	require.NoError(t, shapeName.Set(s, a, "b"))
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, "b", shapeName.Get(a))
}
