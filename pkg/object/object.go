// Package object is the live object model the completion engine reflects
// over: a small set of host-language values, their classes, and the
// namespaces that bind names to them.
package object

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

var (
	ErrName      = errors.New("name error")
	ErrAttribute = errors.New("attribute error")
	ErrType      = errors.New("type error")
	ErrKey       = errors.New("key error")
)

// Object is any value a namespace can hold.
type Object interface {
	Class() *Class
	Repr() string
}

// Namespace maps names to live objects.
type Namespace map[string]Object

type (
	Str   string
	Bytes string
	Int   int64
	Float float64
	Bool  bool
)

type NoneType struct{}

var None = NoneType{}

func (Str) Class() *Class      { return StrClass }
func (Bytes) Class() *Class    { return BytesClass }
func (Int) Class() *Class      { return IntClass }
func (Float) Class() *Class    { return FloatClass }
func (Bool) Class() *Class     { return BoolClass }
func (NoneType) Class() *Class { return NoneClass }

type List struct {
	Items []Object
}

func NewList(items ...Object) *List { return &List{Items: items} }

func (*List) Class() *Class { return ListClass }

type Tuple []Object

func (Tuple) Class() *Class { return TupleClass }

type Set struct {
	Items []Object
	index map[string]struct{}
}

func NewSet(items ...Object) (*Set, error) {
	s := &Set{index: make(map[string]struct{})}
	for _, item := range items {
		if err := s.Add(item); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) Add(item Object) error {
	key, err := HashKey(item)
	if err != nil {
		return err
	}
	if _, ok := s.index[key]; ok {
		return nil
	}
	s.index[key] = struct{}{}
	s.Items = append(s.Items, item)
	return nil
}

func (*Set) Class() *Class { return SetClass }

// Dict keeps insertion order like the host language's dict.
type Dict struct {
	keys   []Object
	values map[string]Object
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]Object)}
}

func (d *Dict) Set(key, value Object) error {
	h, err := HashKey(key)
	if err != nil {
		return err
	}
	if _, ok := d.values[h]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[h] = value
	return nil
}

func (d *Dict) Get(key Object) (Object, error) {
	h, err := HashKey(key)
	if err != nil {
		return nil, err
	}
	v, ok := d.values[h]
	if !ok {
		return nil, errors.Wrapf(ErrKey, "%s", key.Repr())
	}
	return v, nil
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Object {
	return append([]Object(nil), d.keys...)
}

func (d *Dict) Len() int { return len(d.keys) }

func (*Dict) Class() *Class { return DictClass }

// Func is a callable. Impl may be nil for functions whose body cannot be
// run from the completion engine; calling those is a type error.
type Func struct {
	Name   string
	Params []string
	KwOnly []string
	Impl   func(args []Object, kwargs map[string]Object) (Object, error)
}

func (*Func) Class() *Class { return FunctionClass }

func (f *Func) Repr() string { return fmt.Sprintf("<function %s>", f.Name) }

// ArgSpec describes the parameters of f.
func (f *Func) ArgSpec() *ArgSpec {
	return &ArgSpec{
		Func:       f.Name,
		Args:       append([]string(nil), f.Params...),
		KwOnlyArgs: append([]string(nil), f.KwOnly...),
	}
}

// Bind returns f with self prepended to its positional arguments.
func (f *Func) Bind(self Object) *Func {
	bound := &Func{Name: f.Name, KwOnly: f.KwOnly}
	if len(f.Params) > 0 {
		bound.Params = f.Params[1:]
	}
	if f.Impl != nil {
		bound.Impl = func(args []Object, kwargs map[string]Object) (Object, error) {
			return f.Impl(append([]Object{self}, args...), kwargs)
		}
	}
	return bound
}

// ArgSpec is the signature of the call enclosing the cursor.
type ArgSpec struct {
	Func       string
	Args       []string
	KwOnlyArgs []string
}

// Class is both a user-defined class and the type of builtin values.
//
// Getattr mirrors a dynamic __getattr__ hook: it runs only for attribute
// reads through GetAttr, never during reflection.
type Class struct {
	Name      string
	Bases     []*Class
	Attrs     Namespace
	Meta      *Class
	Getattr   func(self Object, name string) (Object, error)
	Construct func(args []Object, kwargs map[string]Object) (Object, error)
}

func (c *Class) Class() *Class {
	if c.Meta != nil {
		return c.Meta
	}
	return TypeClass
}

func (c *Class) Repr() string { return fmt.Sprintf("<class '%s'>", c.Name) }

// Lookup searches c and its bases depth-first.
func (c *Class) Lookup(name string) (Object, bool) {
	if v, ok := c.Attrs[name]; ok {
		return v, true
	}
	for _, base := range c.Bases {
		if v, ok := base.Lookup(name); ok {
			return v, true
		}
	}
	return nil, false
}

// IsSubclass reports whether c is other or derives from it.
func (c *Class) IsSubclass(other *Class) bool {
	if c == other {
		return true
	}
	for _, base := range c.Bases {
		if base.IsSubclass(other) {
			return true
		}
	}
	return false
}

func (c *Class) getattrHook() func(Object, string) (Object, error) {
	if c.Getattr != nil {
		return c.Getattr
	}
	for _, base := range c.Bases {
		if hook := base.getattrHook(); hook != nil {
			return hook
		}
	}
	return nil
}

type Instance struct {
	Cls  *Class
	Dict Namespace
}

func NewInstance(cls *Class) *Instance {
	return &Instance{Cls: cls, Dict: make(Namespace)}
}

func (i *Instance) Class() *Class { return i.Cls }

func (i *Instance) Repr() string {
	return fmt.Sprintf("<%s object at %p>", i.Cls.Name, i)
}

type Module struct {
	Name string
	Dict Namespace
}

func NewModule(name string) *Module {
	return &Module{
		Name: name,
		Dict: Namespace{
			"__name__":    Str(name),
			"__doc__":     None,
			"__package__": Str(""),
			"__loader__":  None,
			"__spec__":    None,
		},
	}
}

func (*Module) Class() *Class { return ModuleClass }

func (m *Module) Repr() string { return fmt.Sprintf("<module '%s'>", m.Name) }

// Property is a computed attribute. Reading it through GetAttr runs Get,
// which may fail or have side effects.
type Property struct {
	Get func(self Object) (Object, error)
}

func (*Property) Class() *Class { return PropertyClass }

func (p *Property) Repr() string { return fmt.Sprintf("<property object at %p>", p) }

// HashKey returns a key identifying obj among dict keys and set members.
// Equal numbers hash alike, as in the host language.
func HashKey(obj Object) (string, error) {
	switch v := obj.(type) {
	case Str:
		return "s:" + string(v), nil
	case Bytes:
		return "b:" + string(v), nil
	case Int:
		return fmt.Sprintf("i:%d", int64(v)), nil
	case Bool:
		if v {
			return "i:1", nil
		}
		return "i:0", nil
	case Float:
		if f := float64(v); !math.IsInf(f, 0) && math.Trunc(f) == f {
			return fmt.Sprintf("i:%d", int64(v)), nil
		}
		return fmt.Sprintf("f:%v", float64(v)), nil
	case NoneType:
		return "n", nil
	case Tuple:
		key := "t("
		for _, item := range v {
			k, err := HashKey(item)
			if err != nil {
				return "", err
			}
			key += k + ","
		}
		return key + ")", nil
	case *List, *Dict, *Set:
		return "", errors.Wrapf(ErrType, "unhashable type: '%s'", obj.Class().Name)
	default:
		return fmt.Sprintf("p:%p", obj), nil
	}
}
