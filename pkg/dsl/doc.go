/*
Package dsl provides a Go DSL (Domain Specific Language) for declaring schema classes.

It builds the same class tables the schema package reads from YAML, using a fluent
builder instead of an external file. This is useful for classes generated at runtime,
for unit tests and for IDE autocompletion.

Example usage:

	b := dsl.New()

	b.Class("Shape").
		Describe("Anything drawable.").
		Property("title", "string", dsl.Default("untitled"), dsl.Event("title_changed")).
		Vector("parts", "Shape").
		Reference("style", "Style", dsl.Flags("weak"))

	b.Class("Circle").
		Extends("Shape").
		Property("radius", "float", dsl.Default(1.5))

	b.Class("Style")

	classes, err := b.Build(registry.Default())
*/
package dsl
