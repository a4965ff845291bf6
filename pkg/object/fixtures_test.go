package object_test

import (
	"testing"
	"time"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/stretchr/testify/require"
)

const eventWeightChanged = domain.EventUser + 1

var (
	NodeClass  = object.NewClass("Node", nil)
	LeafClass  = object.NewClass("Leaf", NodeClass)
	OtherClass = object.NewClass("Other", nil)
	RootClass  = object.NewClass("Root", nil)
)

// nodeish is satisfied by Node and by every type embedding it, so that the fields
// declared on NodeClass are reachable from subclasses.
type nodeish interface {
	object.Object
	node() *Node
}

var (
	nodeTitle = object.DefineProperty(NodeClass, "title",
		func(n nodeish) *object.Property[string] { return &n.node().title },
		object.WithExtraEvent(domain.EventTitleChanged))
	nodeWeight = object.DefineProperty(NodeClass, "weight",
		func(n nodeish) *object.Property[int] { return &n.node().weight },
		object.WithExtraEvent(eventWeightChanged))
	nodeTags = object.DefineProperty(NodeClass, "tags",
		func(n nodeish) *object.Property[[]string] { return &n.node().tags })
	nodeStamp = object.DefineProperty(NodeClass, "stamp",
		func(n nodeish) *object.Property[time.Time] { return &n.node().stamp })
	nodeScratch = object.DefineProperty(NodeClass, "scratch",
		func(n nodeish) *object.Property[string] { return &n.node().scratch },
		object.WithFlags(domain.FlagNoUndo|domain.FlagNoChangeMessage))
	nodeRelease = object.DefineProperty(NodeClass, "release",
		func(n nodeish) *object.Property[*release] { return &n.node().release })
	nodeChild = object.DefineReference(NodeClass, "child", NodeClass,
		func(n nodeish) *object.Reference[nodeish] { return &n.node().child })
	nodeChildren = object.DefineVector(NodeClass, "children", NodeClass,
		func(n nodeish) *object.Vector[nodeish] { return &n.node().children })
	nodeWatch = object.DefineReference(NodeClass, "watch", nil,
		func(n nodeish) *object.Reference[object.Object] { return &n.node().watch },
		object.WithFlags(domain.FlagWeakRef|domain.FlagNeverCloneTarget))
	nodeSilent = object.DefineReference(NodeClass, "silent", NodeClass,
		func(n nodeish) *object.Reference[nodeish] { return &n.node().silent },
		object.WithFlags(domain.FlagDontPropagateMessages))
	nodeOwned = object.DefineReference(NodeClass, "owned", NodeClass,
		func(n nodeish) *object.Reference[nodeish] { return &n.node().owned },
		object.WithFlags(domain.FlagAlwaysDeepCopy))

	leafNote = object.DefineProperty(LeafClass, "note",
		func(l *Leaf) *object.Property[string] { return &l.note })
)

func init() {
	NodeClass.SetFactory(func() object.Object { return newNode("") })
	LeafClass.SetFactory(func() object.Object { return newLeaf() })
	OtherClass.SetFactory(func() object.Object { return newOther() })
}

// release compares through a method that reads its receiver.
type release struct{ major, minor int }

func (r *release) Equal(other *release) bool {
	return r.major == other.major && r.minor == other.minor
}

type Node struct {
	object.Base
	title    object.Property[string]
	weight   object.Property[int]
	tags     object.Property[[]string]
	stamp    object.Property[time.Time]
	scratch  object.Property[string]
	release  object.Property[*release]
	child    object.Reference[nodeish]
	children object.Vector[nodeish]
	watch    object.Reference[object.Object]
	silent   object.Reference[nodeish]
	owned    object.Reference[nodeish]

	hooks   []string
	events  []domain.EventType
	failOn  domain.EventType
	failErr error
}

func newNode(title string) *Node {
	n := &Node{title: object.NewProperty(title)}
	n.InitObject(n, NodeClass)
	return n
}

func (n *Node) node() *Node { return n }

func (n *Node) OnPropertyChanged(_ ports.UndoRecorder, field *object.FieldDescriptor) error {
	n.hooks = append(n.hooks, "property:"+field.Name())
	return nil
}

func (n *Node) OnReferenceReplaced(_ ports.UndoRecorder, field *object.FieldDescriptor, _, _ object.Object) error {
	n.hooks = append(n.hooks, "replaced:"+field.Name())
	return nil
}

func (n *Node) OnReferenceInserted(_ ports.UndoRecorder, field *object.FieldDescriptor, _ object.Object, index int) error {
	n.hooks = append(n.hooks, "inserted:"+field.Name())
	return nil
}

func (n *Node) OnReferenceRemoved(_ ports.UndoRecorder, field *object.FieldDescriptor, _ object.Object, index int) error {
	n.hooks = append(n.hooks, "removed:"+field.Name())
	return nil
}

func (n *Node) OnReferenceEvent(_ object.Object, ev *object.Event) (bool, error) {
	n.events = append(n.events, ev.Type)
	if n.failErr != nil && ev.Type == n.failOn {
		return true, n.failErr
	}
	return true, nil
}

func (n *Node) received(t domain.EventType) int {
	count := 0
	for _, e := range n.events {
		if e == t {
			count++
		}
	}
	return count
}

type Leaf struct {
	Node
	note object.Property[string]
}

func newLeaf() *Leaf {
	l := &Leaf{}
	l.InitObject(l, LeafClass)
	return l
}

type Other struct {
	object.Base
}

func newOther() *Other {
	o := &Other{}
	o.InitObject(o, OtherClass)
	return o
}

var rootLabel = object.DefineProperty(RootClass, "label",
	func(r *Root) *object.Property[string] { return &r.label })

type Root struct {
	object.Base
	label object.Property[string]
}

func newRoot() *Root {
	r := &Root{}
	r.InitObject(r, RootClass)
	return r
}

func (r *Root) IsDocumentRoot() bool { return true }

// recorder is a minimal undo log: every push is its own step.
type recorder struct {
	recording bool
	replaying bool
	done      []ports.UndoableOperation
	undone    []ports.UndoableOperation
}

func newRecorder() *recorder { return &recorder{recording: true} }

func (r *recorder) IsRecording() bool        { return r.recording && !r.replaying }
func (r *recorder) IsUndoingOrRedoing() bool { return r.replaying }

func (r *recorder) Push(op ports.UndoableOperation) {
	r.done = append(r.done, op)
	r.undone = nil
}

func (r *recorder) depth() int { return len(r.done) }

func (r *recorder) undo(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, r.done, "nothing to undo")
	op := r.done[len(r.done)-1]
	r.done = r.done[:len(r.done)-1]
	r.replaying = true
	defer func() { r.replaying = false }()
	require.NoError(t, op.Undo())
	r.undone = append(r.undone, op)
}

func (r *recorder) undoAll(t *testing.T) {
	t.Helper()
	for len(r.done) > 0 {
		r.undo(t)
	}
}

func (r *recorder) redo(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, r.undone, "nothing to redo")
	op := r.undone[len(r.undone)-1]
	r.undone = r.undone[:len(r.undone)-1]
	r.replaying = true
	defer func() { r.replaying = false }()
	require.NoError(t, op.Redo())
	r.done = append(r.done, op)
}
