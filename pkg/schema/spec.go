package schema

import (
	"fmt"

	"github.com/aretw0/refgraph/pkg/domain"
)

// Field kinds accepted in class tables.
const (
	KindProperty  = "property"
	KindReference = "reference"
	KindVector    = "vector"
)

// Document is the top level of a class table file.
type Document struct {
	Classes []ClassSpec `yaml:"classes" mapstructure:"classes"`
}

// ClassSpec declares one runtime class.
type ClassSpec struct {
	Name        string      `yaml:"name" mapstructure:"name"`
	Parent      string      `yaml:"parent,omitempty" mapstructure:"parent"`
	Target      *bool       `yaml:"target,omitempty" mapstructure:"target"`
	Description string      `yaml:"description,omitempty" mapstructure:"description"`
	Fields      []FieldSpec `yaml:"fields,omitempty" mapstructure:"fields"`
}

// IsTarget reports whether instances can be referenced. Classes are targets unless
// the table says otherwise.
func (c ClassSpec) IsTarget() bool { return c.Target == nil || *c.Target }

// FieldSpec declares one field of a class. An empty Kind means a property, or a
// reference when Target is set.
type FieldSpec struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Kind        string   `yaml:"kind,omitempty" mapstructure:"kind"`
	Type        string   `yaml:"type,omitempty" mapstructure:"type"`
	Target      string   `yaml:"target,omitempty" mapstructure:"target"`
	Flags       []string `yaml:"flags,omitempty" mapstructure:"flags"`
	ExtraEvent  string   `yaml:"extra_event,omitempty" mapstructure:"extra_event"`
	Default     any      `yaml:"default,omitempty" mapstructure:"default"`
	Description string   `yaml:"description,omitempty" mapstructure:"description"`
}

// EffectiveKind resolves the implicit kind.
func (f FieldSpec) EffectiveKind() string {
	switch {
	case f.Kind != "":
		return f.Kind
	case f.Target != "":
		return KindReference
	default:
		return KindProperty
	}
}

// EffectiveType resolves the implicit scalar type of a property.
func (f FieldSpec) EffectiveType() string {
	if f.Type == "" {
		return "any"
	}
	return f.Type
}

// FlagSet parses the symbolic flags. "vector" is implied by the kind and rejected here.
func (f FieldSpec) FlagSet() (domain.Flags, error) {
	flags := domain.FlagNone
	for _, name := range f.Flags {
		flag, ok := domain.ParseFlag(name)
		if !ok {
			return flags, fmt.Errorf("unknown flag %q", name)
		}
		if flag == domain.FlagVector {
			return flags, fmt.Errorf("flag %q is implied by kind %q", name, KindVector)
		}
		flags |= flag
	}
	return flags, nil
}

// Event parses the extra change event, if any.
func (f FieldSpec) Event() (domain.EventType, error) {
	if f.ExtraEvent == "" {
		return 0, nil
	}
	return domain.ParseEventType(f.ExtraEvent)
}
