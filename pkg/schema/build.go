package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/refgraph/pkg/object"
	"github.com/aretw0/refgraph/pkg/registry"
)

// ClassInfo is the runtime side of a ClassSpec: the class it defined and the scalar
// types of its own fields.
type ClassInfo struct {
	Spec   ClassSpec
	Class  *object.Class
	parent *ClassInfo
	types  map[string]Type
	inits  []func(*Record)
}

var (
	infosMu sync.RWMutex
	infos   = map[*object.Class]*ClassInfo{}
)

// Info returns the schema information of a class built by Build.
func Info(c *object.Class) (*ClassInfo, bool) {
	infosMu.RLock()
	defer infosMu.RUnlock()
	info, ok := infos[c]
	return info, ok
}

// Parent returns the information of the parent class, or nil.
func (ci *ClassInfo) Parent() *ClassInfo { return ci.parent }

// TypeOf returns the scalar type of a property, inherited ones included.
func (ci *ClassInfo) TypeOf(field string) (Type, bool) {
	for c := ci; c != nil; c = c.parent {
		if t, ok := c.types[field]; ok {
			return t, true
		}
	}
	return nil, false
}

// Schema returns the scalar fields of the class and its ancestors.
func (ci *ClassInfo) Schema() Schema {
	out := Schema{}
	for c := ci; c != nil; c = c.parent {
		for name, t := range c.types {
			if _, ok := out[name]; !ok {
				out[name] = t
			}
		}
	}
	return out
}

// New creates an instance with every default applied.
func (ci *ClassInfo) New() *Record {
	r := &Record{info: ci, slots: make(map[string]any)}
	r.InitObject(r, ci.Class)
	var chain []*ClassInfo
	for c := ci; c != nil; c = c.parent {
		chain = append(chain, c)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, init := range chain[i].inits {
			init(r)
		}
	}
	return r
}

// Build validates specs and defines them as runtime classes registered with reg.
// The classes are returned in the order of specs. Nothing is registered when the
// table is invalid.
func Build(reg *registry.Registry, specs []ClassSpec) ([]*object.Class, error) {
	if reg == nil {
		reg = registry.Default()
	}
	if err := ValidateSpecs(reg, specs); err != nil {
		return nil, err
	}

	built := make(map[string]*ClassInfo, len(specs))
	byName := make(map[string]*ClassSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}

	var create func(cs *ClassSpec) *ClassInfo
	create = func(cs *ClassSpec) *ClassInfo {
		if info, ok := built[cs.Name]; ok {
			return info
		}
		var parent *ClassInfo
		if cs.Parent != "" {
			if ps, ok := byName[cs.Parent]; ok {
				parent = create(ps)
			} else {
				c, _ := reg.Lookup(cs.Parent)
				parent, _ = Info(c)
			}
		}
		var pc *object.Class
		if parent != nil {
			pc = parent.Class
		}
		info := &ClassInfo{Spec: *cs, parent: parent, types: map[string]Type{}}
		if cs.IsTarget() {
			info.Class = object.NewClass(cs.Name, pc)
		} else {
			info.Class = object.NewOwnerClass(cs.Name, pc)
		}
		built[cs.Name] = info
		return info
	}
	for i := range specs {
		create(&specs[i])
	}

	resolve := func(name string) *object.Class {
		if name == "" {
			return nil
		}
		if info, ok := built[name]; ok {
			return info.Class
		}
		c, _ := reg.Lookup(name)
		return c
	}
	for i := range specs {
		info := built[specs[i].Name]
		for _, fs := range specs[i].Fields {
			if err := info.define(fs, resolve); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", info.Class.Name(), fs.Name, err)
			}
		}
	}

	out := make([]*object.Class, len(specs))
	infosMu.Lock()
	for i := range specs {
		info := built[specs[i].Name]
		infos[info.Class] = info
		out[i] = info.Class
	}
	infosMu.Unlock()
	for _, c := range out {
		info := built[c.Name()]
		reg.Register(c, func() object.Object { return info.New() })
	}
	return out, nil
}

// BuildFile loads a class table and builds it.
func BuildFile(reg *registry.Registry, path string) ([]*object.Class, error) {
	specs, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(reg, specs)
}

func (ci *ClassInfo) define(fs FieldSpec, resolve func(string) *object.Class) error {
	flags, err := fs.FlagSet()
	if err != nil {
		return err
	}
	event, err := fs.Event()
	if err != nil {
		return err
	}
	opts := []object.FieldOption{object.WithFlags(flags)}
	if event != 0 {
		opts = append(opts, object.WithExtraEvent(event))
	}

	name := fs.Name
	switch fs.EffectiveKind() {
	case KindReference:
		object.DefineReference(ci.Class, name, resolve(fs.Target),
			func(r *Record) *object.Reference[object.Object] { return slot[object.Reference[object.Object]](r, name) },
			opts...)
		return nil
	case KindVector:
		object.DefineVector(ci.Class, name, resolve(fs.Target),
			func(r *Record) *object.Vector[object.Object] { return slot[object.Vector[object.Object]](r, name) },
			opts...)
		return nil
	}

	typ, err := ParseType(fs.EffectiveType())
	if err != nil {
		return err
	}
	var def any
	if fs.Default != nil {
		if def, err = typ.Convert(fs.Default); err != nil {
			return err
		}
	}
	ci.types[name] = typ
	switch typ.(type) {
	case *StringType:
		ci.inits = append(ci.inits, defineProperty[string](ci.Class, name, def, opts))
	case *IntType:
		ci.inits = append(ci.inits, defineProperty[int](ci.Class, name, def, opts))
	case *FloatType:
		ci.inits = append(ci.inits, defineProperty[float64](ci.Class, name, def, opts))
	case *BoolType:
		ci.inits = append(ci.inits, defineProperty[bool](ci.Class, name, def, opts))
	case *SliceType:
		ci.inits = append(ci.inits, defineProperty[[]any](ci.Class, name, def, opts))
	default:
		ci.inits = append(ci.inits, defineProperty[any](ci.Class, name, def, opts))
	}
	return nil
}

// defineProperty declares a scalar field stored in a Record slot and returns the
// initialiser installing its default.
func defineProperty[T any](c *object.Class, name string, def any, opts []object.FieldOption) func(*Record) {
	object.DefineProperty(c, name,
		func(r *Record) *object.Property[T] { return slot[object.Property[T]](r, name) },
		opts...)
	return func(r *Record) {
		p := slot[object.Property[T]](r, name)
		if v, ok := def.(T); ok {
			*p = object.NewProperty(v)
		}
	}
}

func slot[S any](r *Record, name string) *S {
	if s, ok := r.slots[name].(*S); ok {
		return s
	}
	s := new(S)
	r.slots[name] = s
	return s
}

// Names lists the classes built by this package, sorted.
func Names() []string {
	infosMu.RLock()
	defer infosMu.RUnlock()
	out := make([]string, 0, len(infos))
	for c := range infos {
		out = append(out, c.Name())
	}
	sort.Strings(out)
	return out
}
