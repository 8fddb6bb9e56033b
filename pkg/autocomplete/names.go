package autocomplete

import (
	"slices"
	"strings"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/object"
)

// MagicMethods are offered after def inside a class body.
var MagicMethods = []string{
	"__init__", "__repr__", "__str__", "__lt__", "__le__", "__eq__", "__ne__",
	"__gt__", "__ge__", "__cmp__", "__hash__", "__nonzero__", "__unicode__",
	"__getattr__", "__setattr__", "__get__", "__set__", "__call__", "__len__",
	"__getitem__", "__setitem__", "__iter__", "__reversed__", "__contains__",
	"__add__", "__sub__", "__mul__", "__floordiv__", "__mod__", "__divmod__",
	"__pow__", "__lshift__", "__rshift__", "__and__", "__xor__", "__or__",
	"__div__", "__truediv__", "__neg__", "__pos__", "__abs__", "__invert__",
	"__complex__", "__int__", "__float__", "__oct__", "__hex__", "__index__",
	"__coerce__", "__enter__", "__exit__",
}

// Global completes a bare name from keywords, builtins and the namespace.
type Global struct {
	base
}

func NewGlobal() *Global {
	return &Global{base{
		name:           "global",
		locate:         lineparts.CurrentSingleWord,
		shownBeforeTab: true,
	}}
}

func (s *Global) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	text := span.Word
	g := req.globals()

	seen := make(map[string]bool)
	for _, kw := range g.Keywords {
		if req.Mode.Match(kw, text) {
			seen[kw] = true
		}
	}
	for _, name := range g.BuiltinNames(req.Mode, text) {
		if name != "__builtins__" {
			seen[callablePostfix(g.Builtins[name], name)] = true
		}
	}
	for name, val := range req.namespace() {
		if name != "__builtins__" && req.Mode.Match(name, text) {
			seen[callablePostfix(val, name)] = true
		}
	}

	matches := make([]string, 0, len(seen))
	for m := range seen {
		matches = append(matches, m)
	}
	slices.Sort(matches)
	return &Result{Matches: matches, Span: span}, nil
}

func callablePostfix(val object.Object, word string) string {
	if val != nil && object.IsCallable(val) {
		return word + "("
	}
	return word
}

// ParameterName completes keyword arguments of the call the cursor is in.
type ParameterName struct {
	base
}

func NewParameterName() *ParameterName {
	return &ParameterName{base{
		name:           "parameter_name",
		locate:         lineparts.CurrentWord,
		shownBeforeTab: true,
	}}
}

func (s *ParameterName) Matches(req *Request) (*Result, error) {
	if req.ArgSpec == nil {
		return nil, nil
	}
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	matches := []string{}
	for _, args := range [][]string{req.ArgSpec.Args, req.ArgSpec.KwOnlyArgs} {
		for _, name := range args {
			if strings.HasPrefix(name, span.Word) {
				matches = append(matches, name+"=")
			}
		}
	}
	return &Result{Matches: matches, Span: span}, nil
}

// MagicMethod completes special method names after def in a class.
type MagicMethod struct {
	base
}

func NewMagicMethod() *MagicMethod {
	return &MagicMethod{base{
		name:           "magic_method",
		locate:         lineparts.CurrentMethodDefinitionName,
		shownBeforeTab: true,
	}}
}

func (s *MagicMethod) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	if !req.CompleteMagicMethods || !strings.Contains(req.CurrentBlock, "class") {
		return nil, nil
	}
	matches := []string{}
	for _, name := range MagicMethods {
		if strings.HasPrefix(name, span.Word) {
			matches = append(matches, name)
		}
	}
	return &Result{Matches: matches, Span: span}, nil
}
