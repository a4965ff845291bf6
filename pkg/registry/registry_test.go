package registry_test

import (
	"testing"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	itemClass    = object.NewClass("Item", nil)
	specialClass = object.NewClass("Special", itemClass)

	itemLabel = object.DefineProperty(itemClass, "label",
		func(i *item) *object.Property[string] { return &i.label })
)

type item struct {
	object.Base
	label object.Property[string]
}

func newItem(class *object.Class) *item {
	i := &item{}
	i.InitObject(i, class)
	return i
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(itemClass, func() object.Object { return newItem(itemClass) })
	r.Register(specialClass, func() object.Object { return newItem(specialClass) })

	obj, err := r.New("Special")
	require.NoError(t, err)
	assert.Same(t, specialClass, obj.ObjectBase().Class())

	c, err := r.Lookup("Item")
	require.NoError(t, err)
	assert.Same(t, itemClass, c)

	assert.Equal(t, []string{"Item", "Special"}, r.Names())
	assert.Len(t, r.Classes(), 2)
}

func TestRegistry_UnknownClass(t *testing.T) {
	r := registry.NewRegistry()
	_, err := r.New("Ghost")
	require.ErrorIs(t, err, domain.ErrClassNotFound)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestRegistry_Field(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(specialClass, nil)

	fd, err := r.Field("Special", "label")
	require.NoError(t, err)
	assert.Same(t, itemLabel.FieldDescriptor, fd)

	_, err = r.Field("Special", "missing")
	require.ErrorIs(t, err, domain.ErrFieldNotFound)
}

func TestRegistry_NilFactoryKeepsExisting(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(itemClass, func() object.Object { return newItem(itemClass) })
	r.Register(itemClass, nil)

	obj, err := r.New("Item")
	require.NoError(t, err)
	assert.NotNil(t, obj)
}

func TestDefault(t *testing.T) {
	assert.Same(t, registry.Default(), registry.Default())
}
