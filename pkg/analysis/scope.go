package analysis

import (
	"github.com/bastiangx/replserve/pkg/object"
	sitter "github.com/smacker/go-tree-sitter"
)

type bindingKind int

const (
	bindValue bindingKind = iota
	bindFunc
	bindClass
	bindImport
	bindParam
)

// binding is one definition of a name.
type binding struct {
	name  string
	kind  bindingKind
	node  *sitter.Node
	value *sitter.Node

	// imports: module is the bound module's full name; from and attr
	// are set for from-imports.
	module string
	from   string
	attr   string
}

// scope is a module, function or class body enclosing the cursor.
type scope struct {
	node   *sitter.Node
	parent *scope
}

func (s *scope) kind() string { return s.node.Type() }

type analyzer struct {
	src     []byte
	cursor  uint32
	globals *object.Globals
	classes map[uint32]*classInfo
}

func newAnalyzer(src []byte, cursor uint32, globals *object.Globals) *analyzer {
	return &analyzer{
		src:     src,
		cursor:  cursor,
		globals: globals,
		classes: make(map[uint32]*classInfo),
	}
}

func (a *analyzer) text(n *sitter.Node) string {
	return n.Content(a.src)
}

// scopeAt returns the innermost scope whose body holds the cursor.
func (a *analyzer) scopeAt(root *sitter.Node) *scope {
	s := &scope{node: root}
	for {
		def := a.enclosingDef(s.node)
		if def == nil {
			return s
		}
		s = &scope{node: def, parent: s}
	}
}

// enclosingDef descends from n towards the cursor and stops at the first
// function or class definition whose body holds it.
func (a *analyzer) enclosingDef(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.StartByte() >= a.cursor || c.EndByte() < a.cursor {
			continue
		}
		switch c.Type() {
		case "function_definition", "class_definition":
			body := c.ChildByFieldName("body")
			if body != nil && body.StartByte() <= a.cursor {
				return c
			}
			return nil
		}
		return a.enclosingDef(c)
	}
	return nil
}

// bindings lists the definitions made directly in s, in source order.
func (a *analyzer) bindings(s *scope) []binding {
	var out []binding
	switch s.kind() {
	case "function_definition":
		out = a.parameters(s.node)
		if body := s.node.ChildByFieldName("body"); body != nil {
			a.walkDefs(body, &out)
		}
	case "class_definition":
		if body := s.node.ChildByFieldName("body"); body != nil {
			a.walkDefs(body, &out)
		}
	default:
		a.walkDefs(s.node, &out)
	}
	return out
}

// visibleNames lists every name that can be referenced at the cursor.
// Class bodies only contribute when the cursor is directly inside them.
func (a *analyzer) visibleNames(s *scope) []string {
	var names []string
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind() == "class_definition" && cur != s {
			continue
		}
		for _, b := range a.bindings(cur) {
			names = append(names, b.name)
		}
	}
	names = append(names, a.globals.Keywords...)
	for name := range a.globals.Builtins {
		names = append(names, name)
	}
	return names
}

// lookup finds the binding name refers to at the cursor and the scope
// holding it. The last definition in a scope wins.
func (a *analyzer) lookup(s *scope, name string) (binding, *scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind() == "class_definition" && cur != s {
			continue
		}
		bs := a.bindings(cur)
		for i := len(bs) - 1; i >= 0; i-- {
			if bs[i].name == name {
				return bs[i], cur, true
			}
		}
	}
	return binding{}, nil, false
}

func (a *analyzer) walkDefs(n *sitter.Node, out *[]binding) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "function_definition":
			a.addName(out, c.ChildByFieldName("name"), binding{kind: bindFunc, node: c})
			continue
		case "class_definition":
			a.addName(out, c.ChildByFieldName("name"), binding{kind: bindClass, node: c})
			continue
		case "lambda", "list_comprehension", "set_comprehension",
			"dictionary_comprehension", "generator_expression":
			continue
		case "assignment":
			right := c.ChildByFieldName("right")
			a.addTargets(out, c.ChildByFieldName("left"), right)
			if right != nil {
				a.walkDefs(c, out)
			}
			continue
		case "augmented_assignment":
			a.addTargets(out, c.ChildByFieldName("left"), nil)
		case "for_statement":
			a.addTargets(out, c.ChildByFieldName("left"), nil)
		case "as_pattern":
			var value *sitter.Node
			if c.NamedChildCount() > 0 {
				value = c.NamedChild(0)
			}
			a.addTargets(out, c.ChildByFieldName("alias"), value)
		case "with_item":
			// older grammars put the alias on the item itself
			if alias := c.ChildByFieldName("alias"); alias != nil {
				a.addTargets(out, alias, c.ChildByFieldName("value"))
			}
		case "named_expression":
			a.addName(out, c.ChildByFieldName("name"), binding{kind: bindValue, value: c.ChildByFieldName("value")})
		case "except_clause":
			a.exceptTarget(c, out)
		case "import_statement":
			a.imports(c, out)
			continue
		case "import_from_statement":
			a.fromImports(c, out)
			continue
		}
		a.walkDefs(c, out)
	}
}

func (a *analyzer) addName(out *[]binding, name *sitter.Node, b binding) {
	if name == nil || name.Type() != "identifier" {
		return
	}
	b.name = a.text(name)
	if b.node == nil {
		b.node = name
	}
	*out = append(*out, b)
}

// addTargets binds the names in an assignment target. Only a plain
// identifier keeps the assigned value; unpacked names get none.
func (a *analyzer) addTargets(out *[]binding, target, value *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Type() {
	case "identifier":
		a.addName(out, target, binding{kind: bindValue, value: value})
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"expression_list", "as_pattern_target", "list_splat_pattern",
		"parenthesized_expression":
		if target.Type() == "as_pattern_target" || target.Type() == "parenthesized_expression" {
			if target.NamedChildCount() == 1 {
				a.addTargets(out, target.NamedChild(0), value)
				return
			}
		}
		for i := 0; i < int(target.NamedChildCount()); i++ {
			a.addTargets(out, target.NamedChild(i), nil)
		}
	}
}

// exceptTarget handles the except E as name form of grammars that do not
// produce an as_pattern for it.
func (a *analyzer) exceptTarget(c *sitter.Node, out *[]binding) {
	for i := 0; i+1 < int(c.ChildCount()); i++ {
		if c.Child(i).Type() == "as" {
			a.addName(out, c.Child(i+1), binding{kind: bindValue})
			return
		}
	}
}

func (a *analyzer) imports(c *sitter.Node, out *[]binding) {
	for i := 0; i < int(c.NamedChildCount()); i++ {
		n := c.NamedChild(i)
		switch n.Type() {
		case "dotted_name":
			if n.NamedChildCount() == 0 {
				continue
			}
			head := n.NamedChild(0)
			a.addName(out, head, binding{kind: bindImport, module: a.text(head)})
		case "aliased_import":
			module := n.ChildByFieldName("name")
			if module == nil {
				continue
			}
			a.addName(out, n.ChildByFieldName("alias"), binding{kind: bindImport, module: a.text(module)})
		}
	}
}

func (a *analyzer) fromImports(c *sitter.Node, out *[]binding) {
	moduleNode := c.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	from := a.text(moduleNode)
	for i := 0; i < int(c.NamedChildCount()); i++ {
		n := c.NamedChild(i)
		if n.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch n.Type() {
		case "dotted_name":
			attr := a.text(n)
			if n.NamedChildCount() != 1 {
				continue
			}
			a.addName(out, n.NamedChild(0), binding{kind: bindImport, module: from + "." + attr, from: from, attr: attr})
		case "aliased_import":
			name := n.ChildByFieldName("name")
			if name == nil {
				continue
			}
			attr := a.text(name)
			a.addName(out, n.ChildByFieldName("alias"), binding{kind: bindImport, module: from + "." + attr, from: from, attr: attr})
		}
	}
}

func (a *analyzer) parameters(fn *sitter.Node) []binding {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []binding
	for i := 0; i < int(params.NamedChildCount()); i++ {
		a.addName(&out, paramName(params.NamedChild(i)), binding{kind: bindParam})
	}
	return out
}

func paramName(p *sitter.Node) *sitter.Node {
	switch p.Type() {
	case "identifier":
		return p
	case "default_parameter", "typed_default_parameter":
		return p.ChildByFieldName("name")
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		for i := 0; i < int(p.NamedChildCount()); i++ {
			if name := paramName(p.NamedChild(i)); name != nil {
				return name
			}
		}
	}
	return nil
}

// firstParam is the name a method's receiver is bound to.
func (a *analyzer) firstParam(fn *sitter.Node) string {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return ""
	}
	name := paramName(params.NamedChild(0))
	if name == nil {
		return ""
	}
	return a.text(name)
}
