// Package schema turns declarative class tables into runtime classes.
//
// A class table is a YAML document listing classes and their fields:
//
//	classes:
//	  - name: Shape
//	    fields:
//	      - name: title
//	        type: string
//	        default: untitled
//	        extra_event: title_changed
//	      - name: parts
//	        kind: vector
//	        target: Shape
//	      - name: style
//	        target: Style
//	        flags: [weak, dont_save]
//	  - name: Style
//	    fields:
//	      - name: width
//	        type: float
//
// Parse decodes the table (yaml.v3 into generic maps, then mapstructure into
// ClassSpec), ValidateSpecs reports every problem at once as an AggregateError, and
// Build defines the classes and registers them with a registry.Registry. Instances
// are *Record values whose fields behave exactly like hand written ones: they record
// undo operations, notify dependents and appear in snapshots.
//
//	classes, err := schema.Build(reg, specs)
//	obj, _ := reg.New("Shape")
//	shape := obj.(*schema.Record)
//	err = shape.SetValue(stack, "title", "box")
//
// Scalar types are "string", "int", "float", "bool", "any" and lists such as
// "[int]". Values are checked and converted by Type.Convert before they are stored.
package schema
