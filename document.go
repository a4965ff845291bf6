package refgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/refgraph/internal/logging"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/snapshot"
	"github.com/aretw0/refgraph/pkg/undo"
	"github.com/prometheus/client_golang/prometheus"
)

// DocumentClass is the class of every Document.
var DocumentClass = object.NewClass("Document", nil)

var (
	documentName = object.DefineProperty(DocumentClass, "name",
		func(d *Document) *object.Property[string] { return &d.name })
	documentObjects = object.DefineVector(DocumentClass, "objects", nil,
		func(d *Document) *object.Vector[object.Object] { return &d.objects })
)

// Document is the root of an object graph. It owns the top level objects, the undo
// stack that records their edits and the registry used to restore them.
type Document struct {
	object.Base
	name    object.Property[string]
	objects object.Vector[object.Object]

	stack   *undo.Stack
	reg     *registry.Registry
	store   ports.SnapshotStore
	logger  *slog.Logger
	metrics prometheus.Registerer
	limit   int
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets a custom structured logger for the document and its undo stack.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

// WithRegistry sets the registry used to restore snapshots (default: registry.Default()).
func WithRegistry(reg *registry.Registry) Option {
	return func(d *Document) {
		d.reg = reg
	}
}

// WithStore attaches the store used by Save, Load and Snapshots.
func WithStore(store ports.SnapshotStore) Option {
	return func(d *Document) {
		d.store = store
	}
}

// WithUndoLimit bounds the number of undo steps kept.
func WithUndoLimit(steps int) Option {
	return func(d *Document) {
		d.limit = steps
	}
}

// WithMetricsRegisterer instruments the undo stack with prometheus collectors.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(d *Document) {
		d.metrics = reg
	}
}

// WithName sets the initial document name.
func WithName(name string) Option {
	return func(d *Document) {
		d.name = object.NewProperty(name)
	}
}

func init() {
	registry.Default().Register(DocumentClass, func() object.Object { return newDocument() })
}

func newDocument() *Document {
	d := &Document{limit: -1}
	d.InitObject(d, DocumentClass)
	return d
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := newDocument()
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	if d.reg == nil {
		d.reg = registry.Default()
	}
	if _, err := d.reg.Lookup(DocumentClass.Name()); err != nil {
		d.reg.Register(DocumentClass, func() object.Object { return newDocument() })
	}

	stackOpts := []undo.Option{undo.WithLogger(d.logger), undo.WithUndoLimit(d.limit)}
	if d.metrics != nil {
		stackOpts = append(stackOpts, undo.WithMetrics(undo.NewMetrics(d.metrics)))
	}
	d.stack = undo.New(stackOpts...)
	return d
}

// IsDocumentRoot marks the document as the graph root; undo operations hold it weakly.
func (d *Document) IsDocumentRoot() bool { return true }

func (d *Document) Stack() *undo.Stack           { return d.stack }
func (d *Document) Registry() *registry.Registry { return d.reg }
func (d *Document) Logger() *slog.Logger         { return d.logger }

// Name returns the document name.
func (d *Document) Name() string { return documentName.Get(d) }

// SetName renames the document. Inside a transaction the change is undoable.
func (d *Document) SetName(name string) error {
	return documentName.Set(d.stack, d, name)
}

// Objects returns the top level objects.
func (d *Document) Objects() []object.Object { return documentObjects.All(d) }

// Add appends obj to the top level objects.
func (d *Document) Add(obj object.Object) error {
	_, err := documentObjects.PushBack(d.stack, d, obj)
	return err
}

// Remove drops every top level occurrence of obj. The object itself stays alive while
// other objects reference it.
func (d *Document) Remove(obj object.Object) error {
	if object.IsNil(obj) {
		return nil
	}
	for i := documentObjects.Len(d) - 1; i >= 0; i-- {
		if t := documentObjects.Get(d, i); t != nil && t.ObjectBase() == obj.ObjectBase() {
			if err := documentObjects.Remove(d.stack, d, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes obj from the document and asks every object referencing it to drop
// the reference.
func (d *Document) Delete(obj object.Object) error {
	if object.IsNil(obj) {
		return nil
	}
	return errors.Join(d.Remove(obj), obj.ObjectBase().DeleteObject(d.stack))
}

// Transaction runs fn as one undo step. fn receives the recorder to pass to field
// setters. The step is rolled back when fn fails.
func (d *Document) Transaction(name string, fn func(rec ports.UndoRecorder) error) error {
	return d.stack.Transaction(name, func() error { return fn(d.stack) })
}

// Undo reverts the last step.
func (d *Document) Undo() error { return d.stack.Undo() }

// Redo re-applies the last undone step.
func (d *Document) Redo() error { return d.stack.Redo() }

// History describes the undo stack.
type History struct {
	Entries  []string `json:"entries"`
	Index    int      `json:"index"`
	UndoText string   `json:"undo,omitempty"`
	RedoText string   `json:"redo,omitempty"`
	Clean    bool     `json:"clean"`
}

// History returns the current state of the undo stack.
func (d *Document) History() History {
	return History{
		Entries:  d.stack.Entries(),
		Index:    d.stack.Index(),
		UndoText: d.stack.UndoText(),
		RedoText: d.stack.RedoText(),
		Clean:    d.stack.IsClean(),
	}
}

// IsModified reports whether the document changed since it was last saved or loaded.
func (d *Document) IsModified() bool { return !d.stack.IsClean() }

// Watch calls fn for every event reaching the document, including changes of any
// object reachable from it. Close the returned listener to stop.
func (d *Document) Watch(fn func(ev *object.Event) error) (*object.Listener, error) {
	l := object.NewListener(fn)
	if err := l.Watch(d); err != nil {
		return nil, err
	}
	return l, nil
}

// Snapshot captures the document and everything reachable from it.
func (d *Document) Snapshot(id string) (*domain.Snapshot, error) {
	snap, err := snapshot.Encode(id, d)
	if err != nil {
		return nil, err
	}
	if name := d.Name(); name != "" {
		snap.Metadata = map[string]string{"name": name}
	}
	return snap, nil
}

// Restore replaces the content of the document with snap. The undo history is
// cleared.
func (d *Document) Restore(snap *domain.Snapshot) error {
	root, err := snapshot.Decode(d.reg, snap)
	if err != nil {
		return err
	}
	loaded, ok := root.(*Document)
	if !ok {
		return fmt.Errorf("snapshot %s: root is a %s, not a %s", snap.ID, root.ObjectBase().Class(), DocumentClass)
	}

	d.stack.Clear()
	if err := documentObjects.Clear(nil, d); err != nil {
		return err
	}
	if err := documentName.Set(nil, d, loaded.Name()); err != nil {
		return err
	}
	for _, obj := range loaded.Objects() {
		if _, err := documentObjects.PushBack(nil, d, obj); err != nil {
			return err
		}
	}
	if err := loaded.ClearAllReferences(nil); err != nil {
		return err
	}
	d.stack.SetClean()
	d.logger.Debug("Document restored", "snapshot", snap.ID, "objects", len(snap.Objects))
	return nil
}

// Save stores a snapshot of the document under id and marks it clean.
func (d *Document) Save(ctx context.Context, id string) error {
	if d.store == nil {
		return fmt.Errorf("document has no snapshot store")
	}
	snap, err := d.Snapshot(id)
	if err != nil {
		return err
	}
	if err := d.store.Save(ctx, id, snap); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", id, err)
	}
	d.stack.SetClean()
	d.logger.Info("Document saved", "snapshot", id, "objects", len(snap.Objects))
	return nil
}

// Load replaces the document content with the snapshot stored under id.
func (d *Document) Load(ctx context.Context, id string) error {
	if d.store == nil {
		return fmt.Errorf("document has no snapshot store")
	}
	snap, err := d.store.Load(ctx, id)
	if err != nil {
		return err
	}
	return d.Restore(snap)
}

// Snapshots lists the IDs available in the store.
func (d *Document) Snapshots(ctx context.Context) ([]string, error) {
	if d.store == nil {
		return nil, fmt.Errorf("document has no snapshot store")
	}
	return d.store.List(ctx)
}
