package schema

import (
	"fmt"
	"reflect"
)

// Type describes the values a scalar field of a schema class accepts.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// Convert validates value and returns it in the canonical Go representation
	// stored by the field (int, float64, string, bool, []any).
	Convert(value any) (any, error)
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string             { return "string" }
func (t *StringType) Validate(value any) error { _, err := t.Convert(value); return err }

func (t *StringType) Convert(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// IntType validates integer values. Whole floats are accepted because JSON decoding
// produces them.
type IntType struct{}

func (t *IntType) Name() string             { return "int" }
func (t *IntType) Validate(value any) error { _, err := t.Convert(value); return err }

func (t *IntType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8, int16, int32, int64, uint8, uint16, uint32:
		return int(reflect.ValueOf(v).Convert(reflect.TypeOf(0)).Int()), nil
	case float32:
		return t.Convert(float64(v))
	case float64:
		if v == float64(int64(v)) {
			return int(v), nil
		}
		return nil, fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return nil, fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates floating-point values; integers are widened.
type FloatType struct{}

func (t *FloatType) Name() string             { return "float" }
func (t *FloatType) Validate(value any) error { _, err := t.Convert(value); return err }

func (t *FloatType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32, int, int8, int16, int32, int64, uint8, uint16, uint32:
		return reflect.ValueOf(v).Convert(reflect.TypeOf(0.0)).Float(), nil
	default:
		return nil, fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string             { return "bool" }
func (t *BoolType) Validate(value any) error { _, err := t.Convert(value); return err }

func (t *BoolType) Convert(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", value)
	}
	return b, nil
}

// AnyType accepts every value, nil included.
type AnyType struct{}

func (t *AnyType) Name() string                   { return "any" }
func (t *AnyType) Validate(any) error             { return nil }
func (t *AnyType) Convert(value any) (any, error) { return value, nil }

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error { _, err := t.Convert(value); return err }

func (t *SliceType) Convert(value any) (any, error) {
	if value == nil {
		return []any(nil), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected slice, got %T", value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		elem, err := t.elemType.Convert(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = elem
	}
	return out, nil
}

// Elem returns the element type.
func (t *SliceType) Elem() Type { return t.elemType }

// CustomType applies a user-defined validation function and stores values unchanged.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

func (t *CustomType) Convert(value any) (any, error) {
	if err := t.validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Any creates a type accepting every value.
func Any() Type { return &AnyType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type.
// Supports "string", "int", "float", "bool", "any" and lists of them such as "[int]".
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}
