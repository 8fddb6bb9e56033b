package object

import (
	"maps"
	"sync"

	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/cockroachdb/errors"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Keywords is the keyword list of the host language.
var Keywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
	"while", "with", "yield",
}

// Globals is the read-only snapshot of process-wide names a completion
// request sees: keywords, builtins, the default __main__ namespace and
// the loaded modules.
type Globals struct {
	Keywords []string
	Builtins Namespace
	Main     Namespace
	Modules  map[string]*Module

	builtinTrie *patricia.Trie
}

// NewGlobals indexes builtins for prefix lookups.
func NewGlobals(keywords []string, builtins Namespace, main Namespace, modules map[string]*Module) *Globals {
	trie := patricia.NewTrie()
	for name, obj := range builtins {
		trie.Insert(patricia.Prefix(name), obj)
	}
	return &Globals{
		Keywords:    keywords,
		Builtins:    builtins,
		Main:        main,
		Modules:     modules,
		builtinTrie: trie,
	}
}

// BuiltinNames returns the sorted builtin names matching text under mode.
func (g *Globals) BuiltinNames(mode matching.Mode, text string) []string {
	return matching.FilterTrie(g.builtinTrie, mode, text)
}

// NewNamespace returns a fresh copy of the __main__ namespace for a session.
func (g *Globals) NewNamespace() Namespace {
	return maps.Clone(g.Main)
}

var DefaultGlobals = sync.OnceValue(func() *Globals {
	builtins := defaultBuiltins()
	mod := NewModule("builtins")
	maps.Copy(mod.Dict, builtins)

	main := NewModule("__main__").Dict
	main["__builtins__"] = mod

	return NewGlobals(Keywords, builtins, main, map[string]*Module{"builtins": mod})
})

func builtinFunc(name string, params []string, impl func([]Object, map[string]Object) (Object, error)) *Func {
	return &Func{Name: name, Params: params, Impl: impl}
}

func defaultBuiltins() Namespace {
	ns := Namespace{
		"True":           Bool(true),
		"False":          Bool(false),
		"None":           None,
		"Ellipsis":       &Instance{Cls: &Class{Name: "ellipsis", Bases: []*Class{ObjectClass}}},
		"NotImplemented": &Instance{Cls: &Class{Name: "NotImplementedType", Bases: []*Class{ObjectClass}}},
		"__debug__":      Bool(true),
		"__name__":       Str("builtins"),
		"__doc__":        Str("Built-in functions, types, exceptions, and other objects."),

		"object":   ObjectClass,
		"type":     TypeClass,
		"str":      StrClass,
		"bytes":    BytesClass,
		"int":      IntClass,
		"float":    FloatClass,
		"bool":     BoolClass,
		"list":     ListClass,
		"tuple":    TupleClass,
		"dict":     DictClass,
		"set":      SetClass,
		"range":    RangeClass,
		"property": PropertyClass,

		"BaseException": BaseExceptionClass,
		"Exception":     ExceptionClass,
	}

	for _, name := range []string{"bytearray", "classmethod", "complex", "frozenset", "memoryview", "slice", "staticmethod", "super", "enumerate", "filter", "map", "reversed", "zip"} {
		ns[name] = &Class{Name: name, Bases: []*Class{ObjectClass}, Attrs: Namespace{}}
	}
	for _, name := range []string{
		"ArithmeticError", "AssertionError", "AttributeError", "EOFError",
		"ImportError", "IndexError", "KeyError", "LookupError", "NameError",
		"NotImplementedError", "OSError", "RuntimeError", "StopIteration",
		"SyntaxError", "TypeError", "ValueError", "ZeroDivisionError",
		"FileNotFoundError", "PermissionError", "ModuleNotFoundError",
	} {
		ns[name] = &Class{Name: name, Bases: []*Class{ExceptionClass}, Attrs: Namespace{}}
	}
	ns["KeyboardInterrupt"] = &Class{Name: "KeyboardInterrupt", Bases: []*Class{BaseExceptionClass}, Attrs: Namespace{}}
	ns["SystemExit"] = &Class{Name: "SystemExit", Bases: []*Class{BaseExceptionClass}, Attrs: Namespace{}}

	for _, name := range []string{
		"all", "any", "ascii", "bin", "breakpoint", "chr", "compile",
		"delattr", "divmod", "eval", "exec", "format", "globals", "hash",
		"help", "hex", "id", "input", "issubclass", "iter", "locals", "max",
		"min", "next", "oct", "ord", "pow", "round", "setattr", "sum", "vars",
		"__build_class__", "__import__",
	} {
		ns[name] = &Func{Name: name}
	}
	ns["print"] = &Func{Name: "print", Params: []string{"args"}, KwOnly: []string{"sep", "end", "file", "flush"}}
	ns["sorted"] = &Func{Name: "sorted", Params: []string{"iterable"}, KwOnly: []string{"key", "reverse"}}
	ns["open"] = &Func{Name: "open", Params: []string{"file", "mode", "buffering", "encoding", "errors", "newline", "closefd", "opener"}}
	ns["hasattr"] = &Func{Name: "hasattr", Params: []string{"obj", "name"}}

	ns["len"] = builtinFunc("len", []string{"obj"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrapf(ErrType, "len() takes exactly one argument (%d given)", len(args))
		}
		if d, ok := args[0].(*Dict); ok {
			return Int(d.Len()), nil
		}
		items, err := Iterate(args[0])
		if err != nil {
			return nil, errors.Wrapf(ErrType, "object of type '%s' has no len()", args[0].Class().Name)
		}
		return Int(len(items)), nil
	})
	ns["repr"] = builtinFunc("repr", []string{"obj"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrap(ErrType, "repr() takes exactly one argument")
		}
		return Str(args[0].Repr()), nil
	})
	ns["abs"] = builtinFunc("abs", []string{"x"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrap(ErrType, "abs() takes exactly one argument")
		}
		switch v := args[0].(type) {
		case Int:
			return Int(max(v, -v)), nil
		case Float:
			return Float(max(v, -v)), nil
		}
		return nil, errors.Wrapf(ErrType, "bad operand type for abs(): '%s'", args[0].Class().Name)
	})
	ns["dir"] = builtinFunc("dir", []string{"obj"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrap(ErrType, "dir() takes exactly one argument here")
		}
		names := Dir(args[0])
		items := make([]Object, len(names))
		for i, name := range names {
			items[i] = Str(name)
		}
		return NewList(items...), nil
	})
	ns["getattr"] = builtinFunc("getattr", []string{"obj", "name", "default"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) < 2 {
			return nil, errors.Wrap(ErrType, "getattr expected at least 2 arguments")
		}
		name, ok := args[1].(Str)
		if !ok {
			return nil, errors.Wrap(ErrType, "attribute name must be string")
		}
		v, err := GetAttr(args[0], string(name))
		if err != nil && len(args) > 2 && errors.Is(err, ErrAttribute) {
			return args[2], nil
		}
		return v, err
	})
	ns["callable"] = builtinFunc("callable", []string{"obj"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 1 {
			return nil, errors.Wrap(ErrType, "callable() takes exactly one argument")
		}
		return Bool(IsCallable(args[0])), nil
	})
	ns["isinstance"] = builtinFunc("isinstance", []string{"obj", "class_or_tuple"}, func(args []Object, _ map[string]Object) (Object, error) {
		if len(args) != 2 {
			return nil, errors.Wrap(ErrType, "isinstance expected 2 arguments")
		}
		classes := []Object{args[1]}
		if t, ok := args[1].(Tuple); ok {
			classes = t
		}
		for _, c := range classes {
			cls, ok := c.(*Class)
			if !ok {
				return nil, errors.Wrap(ErrType, "isinstance() arg 2 must be a type or tuple of types")
			}
			if args[0].Class().IsSubclass(cls) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	return ns
}
