package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/schema"
	"github.com/aretw0/refgraph/pkg/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapesTable = `
classes:
  - name: Shape
    description: Anything drawable.
    fields:
      - name: title
        type: string
        default: untitled
        extra_event: title_changed
      - name: sides
        type: int
        default: 4
      - name: tags
        type: "[string]"
      - name: parts
        kind: vector
        target: Shape
      - name: style
        target: Style
        flags: [weak]
  - name: Circle
    parent: Shape
    fields:
      - name: radius
        type: float
        default: 1
  - name: Style
    fields:
      - name: width
        type: float
  - name: Cache
    target: false
    fields:
      - name: hits
        type: int
        flags: [no_undo, no_change_message]
`

func buildShapes(t *testing.T) *registry.Registry {
	t.Helper()
	specs, err := schema.Parse([]byte(shapesTable))
	require.NoError(t, err)
	reg := registry.NewRegistry()
	classes, err := schema.Build(reg, specs)
	require.NoError(t, err)
	require.Len(t, classes, 4)
	return reg
}

func newRecord(t *testing.T, reg *registry.Registry, class string) *schema.Record {
	t.Helper()
	obj, err := reg.New(class)
	require.NoError(t, err)
	return obj.(*schema.Record)
}

func TestParse(t *testing.T) {
	specs, err := schema.Parse([]byte(shapesTable))
	require.NoError(t, err)
	require.Len(t, specs, 4)

	shape := specs[0]
	assert.Equal(t, "Shape", shape.Name)
	assert.True(t, shape.IsTarget())
	assert.False(t, specs[3].IsTarget())
	assert.Equal(t, schema.KindReference, shape.Fields[4].EffectiveKind())
	assert.Equal(t, schema.KindVector, shape.Fields[3].EffectiveKind())
	assert.Equal(t, 4, shape.Fields[1].Default)

	flags, err := shape.Fields[4].FlagSet()
	require.NoError(t, err)
	assert.True(t, flags.Has(domain.FlagWeakRef))
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := schema.Parse([]byte("classes:\n  - name: A\n    feilds: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feilds")
}

func TestLoadAndMarshal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shapesTable), 0o644))

	specs, err := schema.Load(path)
	require.NoError(t, err)

	data, err := schema.Marshal(specs)
	require.NoError(t, err)
	again, err := schema.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, specs, again)

	_, err = schema.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild_DefaultsAndInheritance(t *testing.T) {
	reg := buildShapes(t)

	circle := newRecord(t, reg, "Circle")
	shapeClass, err := reg.Lookup("Shape")
	require.NoError(t, err)
	assert.True(t, circle.Class().IsDerivedFrom(shapeClass))

	assert.Equal(t, map[string]any{
		"title":  "untitled",
		"sides":  4,
		"tags":   []any(nil),
		"radius": 1.0,
	}, circle.Values())

	fd, err := circle.Field("title")
	require.NoError(t, err)
	assert.Equal(t, domain.EventTitleChanged, fd.ExtraChangeEvent())
}

func TestRecord_ValuesWithUndo(t *testing.T) {
	reg := buildShapes(t)
	stack := undo.New()
	shape := newRecord(t, reg, "Shape")

	require.NoError(t, stack.Transaction("Edit", func() error {
		if err := shape.SetValue(stack, "title", "box"); err != nil {
			return err
		}
		return shape.SetValues(stack, map[string]any{"sides": 6.0, "tags": []string{"a"}})
	}))

	v, err := shape.Value("sides")
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	v, _ = shape.Value("tags")
	assert.Equal(t, []any{"a"}, v)

	require.NoError(t, stack.Undo())
	v, _ = shape.Value("title")
	assert.Equal(t, "untitled", v)
	v, _ = shape.Value("sides")
	assert.Equal(t, 4, v)
}

func TestRecord_RejectsBadValues(t *testing.T) {
	reg := buildShapes(t)
	shape := newRecord(t, reg, "Shape")

	err := shape.SetValue(nil, "sides", "many")
	require.ErrorIs(t, err, domain.ErrTypeMismatch)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sides", ve.Key)

	err = shape.SetValues(nil, map[string]any{"title": "ok", "sides": "x"})
	require.Error(t, err)
	v, _ := shape.Value("title")
	assert.Equal(t, "untitled", v, "nothing assigned on failure")

	require.ErrorIs(t, shape.SetValue(nil, "ghost", 1), domain.ErrFieldNotFound)
	require.ErrorIs(t, shape.SetValue(nil, "parts", 1), domain.ErrWrongFieldKind)
}

func TestRecord_References(t *testing.T) {
	reg := buildShapes(t)
	stack := undo.New()
	box := newRecord(t, reg, "Shape")
	lid := newRecord(t, reg, "Circle")
	style := newRecord(t, reg, "Style")

	require.NoError(t, stack.Transaction("Assemble", func() error {
		if _, err := box.InsertTarget(stack, "parts", lid, object.Append); err != nil {
			return err
		}
		return box.SetTarget(stack, "style", style)
	}))

	parts, err := box.Targets("parts")
	require.NoError(t, err)
	assert.Equal(t, []object.Object{lid}, parts)
	assert.Equal(t, 1, lid.ReferenceCount())
	assert.Equal(t, 0, style.ReferenceCount(), "weak")
	assert.True(t, style.HasDependent(box))

	err = box.SetTarget(nil, "style", lid)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)

	_, err = lid.InsertTarget(nil, "parts", box, object.Append)
	require.ErrorIs(t, err, domain.ErrCyclicReference)

	require.NoError(t, stack.Undo())
	n, err := box.Targets("parts")
	require.NoError(t, err)
	assert.Empty(t, n)
	target, err := box.Target("style")
	require.NoError(t, err)
	assert.Nil(t, target)

	require.NoError(t, stack.Redo())
	require.NoError(t, box.RemoveTarget(nil, "parts", 0))
	assert.Equal(t, 0, lid.ReferenceCount())
}

func TestRecord_OwnerClass(t *testing.T) {
	reg := buildShapes(t)
	cache := newRecord(t, reg, "Cache")
	shape := newRecord(t, reg, "Shape")

	require.NoError(t, cache.SetValue(nil, "hits", 3))
	_, err := shape.InsertTarget(nil, "parts", cache, object.Append)
	require.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestRecord_DecodeValue(t *testing.T) {
	reg := buildShapes(t)
	shape := newRecord(t, reg, "Shape")
	fd, err := shape.Field("sides")
	require.NoError(t, err)

	require.NoError(t, shape.DecodeValue(nil, fd, []byte("12")))
	v, _ := shape.Value("sides")
	assert.Equal(t, 12, v)
	assert.Error(t, shape.DecodeValue(nil, fd, []byte("1.5")))
}

func TestValidateSpecs_ReportsEverything(t *testing.T) {
	reg := buildShapes(t)
	no := false
	specs := []schema.ClassSpec{
		{Name: "Shape"},
		{Name: "A", Parent: "Ghost"},
		{Name: "B", Fields: []schema.FieldSpec{
			{Name: "x", Type: "int", Default: "one"},
			{Name: "x", Type: "int"},
			{Name: "y", Type: "complex"},
			{Name: "z", Target: "Nowhere"},
			{Name: "w", Type: "string", Flags: []string{"weak"}},
			{Name: "v", Kind: "vector", Flags: []string{"vector"}},
			{Name: "e", ExtraEvent: "exploded"},
			{Name: "o", Target: "Cache"},
		}},
		{Name: "C", Target: &no, Parent: "Style"},
		{Name: "D", Target: &no, Fields: []schema.FieldSpec{{Name: "n", Type: "int"}}},
		{Name: "E", Parent: "F"},
		{Name: "F", Parent: "E"},
		{Name: "G", Parent: "Shape", Fields: []schema.FieldSpec{{Name: "title", Type: "string"}}},
	}

	err := schema.ValidateSpecs(reg, specs)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`"Shape": already registered`,
		"unknown parent class Ghost",
		`"B.x": invalid default`,
		`"B.x": declared more than once`,
		"unsupported type: complex",
		"unknown target class Nowhere",
		"a property cannot be weak",
		`implied by kind "vector"`,
		`unknown event type "exploded"`,
		"target class Cache cannot be referenced",
		"cannot derive from target class Style",
		"must set no_undo and no_change_message",
		"inheritance cycle",
		`"G.title": declared more than once`,
	} {
		assert.Contains(t, msg, want)
	}

	_, err = schema.Build(reg, specs)
	require.Error(t, err)
	_, lookupErr := reg.Lookup("A")
	assert.ErrorIs(t, lookupErr, domain.ErrClassNotFound)
}

func TestBuild_ExtendsRegisteredSchemaClass(t *testing.T) {
	reg := buildShapes(t)
	classes, err := schema.Build(reg, []schema.ClassSpec{
		{Name: "Square", Parent: "Shape", Fields: []schema.FieldSpec{{Name: "edge", Type: "float"}}},
	})
	require.NoError(t, err)

	sq := newRecord(t, reg, "Square")
	assert.Same(t, classes[0], sq.Class())
	v, err := sq.Value("sides")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	info, ok := schema.Info(classes[0])
	require.True(t, ok)
	assert.Contains(t, info.Schema(), "edge")
	assert.Contains(t, info.Schema(), "title")
}
