package object

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

var objectDunders = []string{
	"__class__", "__delattr__", "__dir__", "__doc__", "__eq__", "__format__",
	"__ge__", "__getattribute__", "__getstate__", "__gt__", "__hash__",
	"__init__", "__init_subclass__", "__le__", "__lt__", "__ne__", "__new__",
	"__reduce__", "__reduce_ex__", "__repr__", "__setattr__", "__sizeof__",
	"__str__", "__subclasshook__",
}

var (
	ObjectClass = &Class{Name: "object", Attrs: methods(objectDunders...)}

	TypeClass = &Class{Name: "type", Bases: []*Class{ObjectClass}, Attrs: methods(
		"mro", "__abstractmethods__", "__base__", "__bases__", "__basicsize__",
		"__call__", "__dict__", "__dictoffset__", "__flags__", "__instancecheck__",
		"__itemsize__", "__module__", "__mro__", "__name__", "__prepare__",
		"__qualname__", "__subclasscheck__", "__subclasses__", "__text_signature__",
		"__type_params__", "__weakrefoffset__",
	)}

	// ABCMeta is the metaclass of abstract base classes.
	ABCMeta = &Class{Name: "ABCMeta", Bases: []*Class{TypeClass}, Attrs: methods(
		"register", "_abc_caches_clear", "_abc_registry_clear", "_dump_registry",
	)}

	StrClass = &Class{Name: "str", Bases: []*Class{ObjectClass}, Attrs: methods(
		"capitalize", "casefold", "center", "count", "encode", "endswith",
		"expandtabs", "find", "format", "format_map", "index", "isalnum",
		"isalpha", "isascii", "isdecimal", "isdigit", "isidentifier", "islower",
		"isnumeric", "isprintable", "isspace", "istitle", "isupper", "join",
		"ljust", "lower", "lstrip", "maketrans", "partition", "removeprefix",
		"removesuffix", "replace", "rfind", "rindex", "rjust", "rpartition",
		"rsplit", "rstrip", "split", "splitlines", "startswith", "strip",
		"swapcase", "title", "translate", "upper", "zfill",
		"__add__", "__contains__", "__getitem__", "__getnewargs__", "__iter__",
		"__len__", "__mod__", "__mul__", "__rmod__", "__rmul__",
	)}

	BytesClass = &Class{Name: "bytes", Bases: []*Class{ObjectClass}, Attrs: methods(
		"capitalize", "center", "count", "decode", "endswith", "expandtabs",
		"find", "fromhex", "hex", "index", "isalnum", "isalpha", "isascii",
		"isdigit", "islower", "isspace", "istitle", "isupper", "join", "ljust",
		"lower", "lstrip", "maketrans", "partition", "removeprefix",
		"removesuffix", "replace", "rfind", "rindex", "rjust", "rpartition",
		"rsplit", "rstrip", "split", "splitlines", "startswith", "strip",
		"swapcase", "title", "translate", "upper", "zfill",
		"__add__", "__bytes__", "__contains__", "__getitem__", "__getnewargs__",
		"__iter__", "__len__", "__mod__", "__mul__", "__rmod__", "__rmul__",
	)}

	IntClass = &Class{Name: "int", Bases: []*Class{ObjectClass}, Attrs: methods(
		"as_integer_ratio", "bit_count", "bit_length", "conjugate",
		"denominator", "from_bytes", "imag", "is_integer", "numerator", "real",
		"to_bytes",
		"__abs__", "__add__", "__and__", "__bool__", "__ceil__", "__divmod__",
		"__float__", "__floor__", "__floordiv__", "__index__", "__int__",
		"__invert__", "__lshift__", "__mod__", "__mul__", "__neg__", "__or__",
		"__pos__", "__pow__", "__round__", "__rshift__", "__sub__",
		"__truediv__", "__trunc__", "__xor__",
	)}

	FloatClass = &Class{Name: "float", Bases: []*Class{ObjectClass}, Attrs: methods(
		"as_integer_ratio", "conjugate", "fromhex", "hex", "imag", "is_integer",
		"real",
		"__abs__", "__add__", "__bool__", "__ceil__", "__divmod__", "__float__",
		"__floor__", "__floordiv__", "__int__", "__mod__", "__mul__", "__neg__",
		"__pos__", "__pow__", "__round__", "__sub__", "__truediv__", "__trunc__",
	)}

	BoolClass = &Class{Name: "bool", Bases: []*Class{IntClass}, Attrs: Namespace{}}

	NoneClass = &Class{Name: "NoneType", Bases: []*Class{ObjectClass}, Attrs: methods("__bool__")}

	ListClass = &Class{Name: "list", Bases: []*Class{ObjectClass}, Attrs: methods(
		"append", "clear", "copy", "count", "extend", "index", "insert", "pop",
		"remove", "reverse", "sort",
		"__add__", "__contains__", "__delitem__", "__getitem__", "__iadd__",
		"__imul__", "__iter__", "__len__", "__mul__", "__reversed__",
		"__setitem__",
	)}

	TupleClass = &Class{Name: "tuple", Bases: []*Class{ObjectClass}, Attrs: methods(
		"count", "index",
		"__add__", "__contains__", "__getitem__", "__getnewargs__", "__iter__",
		"__len__", "__mul__",
	)}

	DictClass = &Class{Name: "dict", Bases: []*Class{ObjectClass}, Attrs: methods(
		"clear", "copy", "fromkeys", "get", "items", "keys", "pop", "popitem",
		"setdefault", "update", "values",
		"__contains__", "__delitem__", "__getitem__", "__ior__", "__iter__",
		"__len__", "__or__", "__reversed__", "__ror__", "__setitem__",
	)}

	SetClass = &Class{Name: "set", Bases: []*Class{ObjectClass}, Attrs: methods(
		"add", "clear", "copy", "difference", "difference_update", "discard",
		"intersection", "intersection_update", "isdisjoint", "issubset",
		"issuperset", "pop", "remove", "symmetric_difference",
		"symmetric_difference_update", "union", "update",
		"__and__", "__contains__", "__iter__", "__len__", "__or__", "__sub__",
		"__xor__",
	)}

	FunctionClass = &Class{Name: "function", Bases: []*Class{ObjectClass}, Attrs: methods(
		"__annotations__", "__builtins__", "__call__", "__closure__", "__code__",
		"__defaults__", "__dict__", "__get__", "__globals__", "__kwdefaults__",
		"__module__", "__name__", "__qualname__", "__type_params__",
	)}

	ModuleClass = &Class{Name: "module", Bases: []*Class{ObjectClass}, Attrs: methods("__dict__")}

	PropertyClass = &Class{Name: "property", Bases: []*Class{ObjectClass}, Attrs: methods(
		"deleter", "fdel", "fget", "fset", "getter", "setter",
		"__delete__", "__get__", "__isabstractmethod__", "__set__",
	)}

	RangeClass = &Class{Name: "range", Bases: []*Class{ObjectClass}, Attrs: methods(
		"count", "index", "start", "step", "stop",
		"__contains__", "__getitem__", "__iter__", "__len__", "__reversed__",
	)}

	BaseExceptionClass = &Class{Name: "BaseException", Bases: []*Class{ObjectClass}, Attrs: methods(
		"add_note", "args", "with_traceback",
		"__cause__", "__context__", "__suppress_context__", "__traceback__",
	)}

	ExceptionClass = &Class{Name: "Exception", Bases: []*Class{BaseExceptionClass}, Attrs: Namespace{}}
)

// methods builds a class namespace of functions whose bodies are not
// available to the completer.
func methods(names ...string) Namespace {
	ns := make(Namespace, len(names))
	for _, name := range names {
		ns[name] = &Func{Name: name, Params: []string{"self"}}
	}
	return ns
}

func setImpl(cls *Class, name string, params []string, impl func(args []Object, kwargs map[string]Object) (Object, error)) {
	cls.Attrs[name] = &Func{Name: name, Params: params, Impl: impl}
}

func strMethod(fn func(string) string) func([]Object, map[string]Object) (Object, error) {
	return func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return nil, errors.Wrap(ErrType, "descriptor needs an argument")
		}
		s, ok := args[0].(Str)
		if !ok {
			return nil, errors.Wrap(ErrType, "descriptor requires a 'str' object")
		}
		return Str(fn(string(s))), nil
	}
}

func dictMethod(fn func(*Dict, []Object) (Object, error)) func([]Object, map[string]Object) (Object, error) {
	return func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return nil, errors.Wrap(ErrType, "descriptor needs an argument")
		}
		d, ok := args[0].(*Dict)
		if !ok {
			return nil, errors.Wrap(ErrType, "descriptor requires a 'dict' object")
		}
		return fn(d, args[1:])
	}
}

func init() {
	self := []string{"self"}
	setImpl(StrClass, "upper", self, strMethod(strings.ToUpper))
	setImpl(StrClass, "lower", self, strMethod(strings.ToLower))
	setImpl(StrClass, "strip", self, strMethod(strings.TrimSpace))
	setImpl(StrClass, "capitalize", self, strMethod(func(s string) string {
		if s == "" {
			return s
		}
		r := []rune(strings.ToLower(s))
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}))

	setImpl(DictClass, "keys", self, dictMethod(func(d *Dict, _ []Object) (Object, error) {
		return NewList(d.Keys()...), nil
	}))
	setImpl(DictClass, "values", self, dictMethod(func(d *Dict, _ []Object) (Object, error) {
		values := make([]Object, 0, d.Len())
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			values = append(values, v)
		}
		return NewList(values...), nil
	}))
	setImpl(DictClass, "get", []string{"self", "key", "default"}, dictMethod(func(d *Dict, args []Object) (Object, error) {
		if len(args) == 0 {
			return nil, errors.Wrap(ErrType, "get expected at least 1 argument, got 0")
		}
		v, err := d.Get(args[0])
		if errors.Is(err, ErrKey) {
			if len(args) > 1 {
				return args[1], nil
			}
			return None, nil
		}
		return v, err
	}))
	setImpl(DictClass, "copy", self, dictMethod(func(d *Dict, _ []Object) (Object, error) {
		out := NewDict()
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			if err := out.Set(k, v); err != nil {
				return nil, err
			}
		}
		return out, nil
	}))

	StrClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return Str(""), nil
		}
		return ToStr(args[0]), nil
	}
	IntClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return Int(0), nil
		}
		switch v := args[0].(type) {
		case Int:
			return v, nil
		case Bool:
			if v {
				return Int(1), nil
			}
			return Int(0), nil
		case Float:
			return Int(int64(v)), nil
		case Str:
			n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrType, "invalid literal for int(): %s", v.Repr())
			}
			return Int(n), nil
		}
		return nil, errors.Wrapf(ErrType, "int() argument must be a string or a number, not '%s'", args[0].Class().Name)
	}
	ListClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return NewList(), nil
		}
		items, err := Iterate(args[0])
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	}
	TupleClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return Tuple{}, nil
		}
		items, err := Iterate(args[0])
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	}
	SetClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) == 0 {
			return NewSet()
		}
		items, err := Iterate(args[0])
		if err != nil {
			return nil, err
		}
		return NewSet(items...)
	}
	DictClass.Construct = func(args []Object, kwargs map[string]Object) (Object, error) {
		d := NewDict()
		if len(args) > 0 {
			src, ok := args[0].(*Dict)
			if !ok {
				return nil, errors.Wrapf(ErrType, "'%s' object is not a mapping", args[0].Class().Name)
			}
			for _, k := range src.Keys() {
				v, _ := src.Get(k)
				if err := d.Set(k, v); err != nil {
					return nil, err
				}
			}
		}
		for _, name := range sortedKeys(kwargs) {
			if err := d.Set(Str(name), kwargs[name]); err != nil {
				return nil, err
			}
		}
		return d, nil
	}
	TypeClass.Construct = func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrap(ErrType, "type() takes 1 argument")
		}
		return args[0].Class(), nil
	}
}

func sortedKeys(m map[string]Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
