package refgraph_test

import (
	"fmt"

	"github.com/aretw0/refgraph"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/ports"
)

var noteClass = object.NewClass("Note", nil)

var noteText = object.DefineProperty(noteClass, "text",
	func(n *note) *object.Property[string] { return &n.text })

type note struct {
	object.Base
	text object.Property[string]
}

func newNote(text string) *note {
	n := &note{text: object.NewProperty(text)}
	n.InitObject(n, noteClass)
	return n
}

func Example() {
	doc := refgraph.New()
	n := newNote("draft")

	_ = doc.Transaction("Edit note", func(rec ports.UndoRecorder) error {
		if err := doc.Add(n); err != nil {
			return err
		}
		return noteText.Set(rec, n, "final")
	})
	fmt.Println(noteText.Get(n), len(doc.Objects()), doc.History().UndoText)

	_ = doc.Undo()
	fmt.Println(noteText.Get(n), len(doc.Objects()))

	_ = doc.Redo()
	fmt.Println(noteText.Get(n), len(doc.Objects()))

	// Output:
	// final 1 Edit note
	// draft 0
	// final 1
}
