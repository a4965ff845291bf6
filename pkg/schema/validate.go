package schema

import (
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/registry"
)

// Schema maps the scalar field names of a class to their types.
type Schema map[string]Type

// Validate checks that data carries a valid value for every field of the schema.
func Validate(schema Schema, data map[string]any) error {
	var errs []error
	for fieldName, fieldType := range schema {
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: err.Error(), Value: value})
		}
	}
	return aggregate(errs)
}

// ValidateFields validates only the given fields of data. Fields unknown to the
// schema and fields missing from data are errors.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	var errs []error
	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "not defined in schema"})
			continue
		}
		value, fieldExists := data[fieldName]
		if !fieldExists {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: fieldName, Reason: err.Error(), Value: value})
		}
	}
	return aggregate(errs)
}

// specSet resolves class names against the table being validated first and the
// registry second.
type specSet struct {
	reg    *registry.Registry
	byName map[string]*ClassSpec
}

func (s *specSet) isTarget(name string) (target, found bool) {
	if cs, ok := s.byName[name]; ok {
		return cs.IsTarget(), true
	}
	if s.reg == nil {
		return false, false
	}
	c, err := s.reg.Lookup(name)
	if err != nil {
		return false, false
	}
	return c.IsTarget(), true
}

// inheritedField reports whether an ancestor of cs already declares field.
func (s *specSet) inheritedField(cs *ClassSpec, field string) bool {
	seen := map[string]bool{cs.Name: true}
	for parent := cs.Parent; parent != "" && !seen[parent]; {
		seen[parent] = true
		if ps, ok := s.byName[parent]; ok {
			for _, f := range ps.Fields {
				if f.Name == field {
					return true
				}
			}
			parent = ps.Parent
			continue
		}
		if s.reg == nil {
			return false
		}
		c, err := s.reg.Lookup(parent)
		if err != nil {
			return false
		}
		_, ok := c.Field(field)
		return ok
	}
	return false
}

// ValidateSpecs checks a class table against itself and the classes already in reg.
// Every problem is reported; a nil result guarantees that Build will not fail.
func ValidateSpecs(reg *registry.Registry, specs []ClassSpec) error {
	set := &specSet{reg: reg, byName: make(map[string]*ClassSpec, len(specs))}
	var errs []error
	fail := func(class, key, reason string, value any) {
		errs = append(errs, &ValidationError{Class: class, Key: key, Reason: reason, Value: value})
	}

	for i := range specs {
		cs := &specs[i]
		switch {
		case cs.Name == "":
			fail("", "", "class without a name", nil)
			continue
		case set.byName[cs.Name] != nil:
			fail(cs.Name, "", "declared more than once", nil)
			continue
		}
		if reg != nil {
			if _, err := reg.Lookup(cs.Name); err == nil {
				fail(cs.Name, "", "already registered", nil)
				continue
			}
		}
		set.byName[cs.Name] = cs
	}

	for i := range specs {
		cs := &specs[i]
		if set.byName[cs.Name] != cs {
			continue
		}
		validateParent(set, cs, fail)
		validateFields(set, cs, fail)
	}
	return aggregate(errs)
}

func validateParent(set *specSet, cs *ClassSpec, fail func(class, key, reason string, value any)) {
	if cs.Parent == "" {
		return
	}
	if _, ok := set.byName[cs.Parent]; !ok {
		if set.reg == nil {
			fail(cs.Name, "", "unknown parent class "+cs.Parent, nil)
			return
		}
		c, err := set.reg.Lookup(cs.Parent)
		if err != nil {
			fail(cs.Name, "", "unknown parent class "+cs.Parent, nil)
			return
		}
		if _, ok := Info(c); !ok {
			fail(cs.Name, "", "parent class "+cs.Parent+" is not a schema class", nil)
			return
		}
	}
	seen := map[string]bool{cs.Name: true}
	for p := cs.Parent; p != ""; {
		if seen[p] {
			fail(cs.Name, "", "inheritance cycle through "+p, nil)
			return
		}
		seen[p] = true
		ps, ok := set.byName[p]
		if !ok {
			break
		}
		p = ps.Parent
	}
	if target, _ := set.isTarget(cs.Parent); target && !cs.IsTarget() {
		fail(cs.Name, "", "a non-target class cannot derive from target class "+cs.Parent, nil)
	}
}

func validateFields(set *specSet, cs *ClassSpec, fail func(class, key, reason string, value any)) {
	names := make(map[string]bool, len(cs.Fields))
	for _, fs := range cs.Fields {
		if fs.Name == "" {
			fail(cs.Name, "", "field without a name", nil)
			continue
		}
		if names[fs.Name] || set.inheritedField(cs, fs.Name) {
			fail(cs.Name, fs.Name, "declared more than once", nil)
			continue
		}
		names[fs.Name] = true

		flags, err := fs.FlagSet()
		if err != nil {
			fail(cs.Name, fs.Name, err.Error(), nil)
		}
		if _, err := fs.Event(); err != nil {
			fail(cs.Name, fs.Name, err.Error(), nil)
		}
		if !cs.IsTarget() && !flags.Has(domain.FlagNoUndo|domain.FlagNoChangeMessage) {
			fail(cs.Name, fs.Name, "fields of a non-target class must set no_undo and no_change_message", nil)
		}

		switch fs.EffectiveKind() {
		case KindProperty:
			if fs.Target != "" {
				fail(cs.Name, fs.Name, "a property cannot have a target class", nil)
			}
			if flags.Has(domain.FlagWeakRef) {
				fail(cs.Name, fs.Name, "a property cannot be weak", nil)
			}
			typ, err := ParseType(fs.EffectiveType())
			if err != nil {
				fail(cs.Name, fs.Name, err.Error(), nil)
				continue
			}
			if fs.Default != nil {
				if err := typ.Validate(fs.Default); err != nil {
					fail(cs.Name, fs.Name, "invalid default: "+err.Error(), fs.Default)
				}
			}
		case KindReference, KindVector:
			if fs.Type != "" {
				fail(cs.Name, fs.Name, "a reference field has no scalar type", nil)
			}
			if fs.Default != nil {
				fail(cs.Name, fs.Name, "a reference field cannot have a default", fs.Default)
			}
			if fs.Target == "" {
				continue
			}
			target, found := set.isTarget(fs.Target)
			switch {
			case !found:
				fail(cs.Name, fs.Name, "unknown target class "+fs.Target, nil)
			case !target:
				fail(cs.Name, fs.Name, "target class "+fs.Target+" cannot be referenced", nil)
			}
		default:
			fail(cs.Name, fs.Name, "unknown field kind "+fs.Kind, nil)
		}
	}
}
