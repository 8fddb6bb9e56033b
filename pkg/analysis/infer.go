package analysis

import (
	"github.com/bastiangx/replserve/pkg/object"
	sitter "github.com/smacker/go-tree-sitter"
)

const maxInferDepth = 16

// target is what a name was inferred to be: a class from the source (or
// an instance of one, which has the same members) or a live object.
type target struct {
	class *classInfo
	obj   object.Object
}

type member struct {
	binding
	scope *scope
}

type classInfo struct {
	node    *sitter.Node
	members map[string]member
	names   []string
	natives []*object.Class
}

func (a *analyzer) resolveChain(s *scope, chain []string) (target, bool) {
	t, ok := a.resolveName(s, chain[0], 0)
	for _, attr := range chain[1:] {
		if !ok {
			break
		}
		t, ok = a.member(t, attr, 0)
	}
	return t, ok
}

func (a *analyzer) resolveName(s *scope, name string, depth int) (target, bool) {
	if depth > maxInferDepth {
		return target{}, false
	}
	if s.kind() == "function_definition" && s.parent != nil && s.parent.kind() == "class_definition" {
		if a.firstParam(s.node) == name {
			return target{class: a.classInfo(s.parent, depth+1)}, true
		}
	}
	if b, bs, ok := a.lookup(s, name); ok {
		return a.resolveBinding(b, bs, depth+1)
	}
	if obj, ok := a.globals.Builtins[name]; ok {
		return target{obj: obj}, true
	}
	return target{}, false
}

func (a *analyzer) resolveBinding(b binding, s *scope, depth int) (target, bool) {
	if depth > maxInferDepth {
		return target{}, false
	}
	switch b.kind {
	case bindClass:
		return target{class: a.classInfo(&scope{node: b.node, parent: s}, depth+1)}, true
	case bindFunc:
		return target{obj: &object.Func{Name: b.name}}, true
	case bindImport:
		return a.importTarget(b)
	case bindValue:
		if b.value == nil {
			return target{}, false
		}
		return a.infer(s, b.value, depth+1)
	}
	return target{}, false
}

func (a *analyzer) importTarget(b binding) (target, bool) {
	if m, ok := a.globals.Modules[b.module]; ok {
		return target{obj: m}, true
	}
	if b.from == "" {
		return target{}, false
	}
	m, ok := a.globals.Modules[b.from]
	if !ok {
		return target{}, false
	}
	if v, ok := m.Dict[b.attr]; ok {
		return target{obj: v}, true
	}
	return target{}, false
}

// infer works out what the expression n evaluates to without running it.
func (a *analyzer) infer(s *scope, n *sitter.Node, depth int) (target, bool) {
	if depth > maxInferDepth {
		return target{}, false
	}
	switch n.Type() {
	case "string", "concatenated_string":
		if t := a.text(n); t != "" && (t[0] == 'b' || t[0] == 'B') {
			return target{obj: object.Bytes("")}, true
		}
		return target{obj: object.Str("")}, true
	case "integer":
		return target{obj: object.Int(0)}, true
	case "float":
		return target{obj: object.Float(0)}, true
	case "true", "false":
		return target{obj: object.Bool(false)}, true
	case "none":
		return target{obj: object.None}, true
	case "list", "list_comprehension":
		return target{obj: object.NewList()}, true
	case "dictionary", "dictionary_comprehension":
		return target{obj: object.NewDict()}, true
	case "tuple":
		return target{obj: object.Tuple{}}, true
	case "set", "set_comprehension":
		return target{obj: object.NewInstance(object.SetClass)}, true
	case "identifier":
		return a.resolveName(s, a.text(n), depth+1)
	case "attribute":
		obj, attr := n.ChildByFieldName("object"), n.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return target{}, false
		}
		t, ok := a.infer(s, obj, depth+1)
		if !ok {
			return target{}, false
		}
		return a.member(t, a.text(attr), depth+1)
	case "call":
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return target{}, false
		}
		t, ok := a.infer(s, fn, depth+1)
		if !ok {
			return target{}, false
		}
		if t.class != nil {
			return t, true
		}
		if cls, ok := t.obj.(*object.Class); ok {
			return target{obj: object.NewInstance(cls)}, true
		}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return a.infer(s, n.NamedChild(0), depth+1)
		}
	case "assignment":
		if right := n.ChildByFieldName("right"); right != nil {
			return a.infer(s, right, depth+1)
		}
	}
	return target{}, false
}

func (a *analyzer) member(t target, name string, depth int) (target, bool) {
	if t.class != nil {
		if m, ok := t.class.members[name]; ok {
			return a.resolveBinding(m.binding, m.scope, depth+1)
		}
		for _, cls := range t.class.natives {
			if v, ok := cls.Lookup(name); ok {
				return target{obj: v}, true
			}
		}
		if v, ok := object.ObjectClass.Lookup(name); ok {
			return target{obj: v}, true
		}
		return target{}, false
	}

	switch obj := t.obj.(type) {
	case *object.Module:
		if v, ok := obj.Dict[name]; ok {
			return target{obj: v}, true
		}
	case *object.Class:
		if v, ok := obj.Lookup(name); ok {
			return target{obj: v}, true
		}
	case *object.Instance:
		if v, ok := obj.Dict[name]; ok {
			return target{obj: v}, true
		}
		if v, ok := obj.Cls.Lookup(name); ok {
			return target{obj: v}, true
		}
	default:
		if v, ok := obj.Class().Lookup(name); ok {
			return target{obj: v}, true
		}
	}
	return target{}, false
}

func (a *analyzer) members(t target) []string {
	if t.class != nil {
		return t.class.names
	}
	return object.Dir(t.obj)
}

// classInfo collects the members of the class defined at s.node: its body
// definitions, attributes assigned through the receiver in its methods,
// and the members of its bases.
func (a *analyzer) classInfo(s *scope, depth int) *classInfo {
	key := s.node.StartByte()
	if info, ok := a.classes[key]; ok {
		return info
	}
	info := &classInfo{node: s.node, members: make(map[string]member)}
	// registered before the bases are walked so that cycles terminate
	a.classes[key] = info

	var names []string
	if supers := s.node.ChildByFieldName("superclasses"); supers != nil && depth <= maxInferDepth {
		for i := int(supers.NamedChildCount()) - 1; i >= 0; i-- {
			base := supers.NamedChild(i)
			if base.Type() != "identifier" && base.Type() != "attribute" {
				continue
			}
			t, ok := a.infer(s.parent, base, depth+1)
			if !ok {
				continue
			}
			if t.class != nil {
				for name, m := range t.class.members {
					info.members[name] = m
				}
				names = append(names, t.class.names...)
				info.natives = append(info.natives, t.class.natives...)
			} else if cls, ok := t.obj.(*object.Class); ok {
				info.natives = append(info.natives, cls)
				names = append(names, object.ClassMembers(cls)...)
			}
		}
	}

	if body := s.node.ChildByFieldName("body"); body != nil {
		var defs []binding
		a.walkDefs(body, &defs)
		for _, b := range defs {
			info.members[b.name] = member{binding: b, scope: s}
			names = append(names, b.name)
			if b.kind != bindFunc {
				continue
			}
			method := &scope{node: b.node, parent: s}
			self := a.firstParam(b.node)
			if self == "" {
				continue
			}
			var attrs []binding
			a.receiverAssignments(b.node.ChildByFieldName("body"), self, &attrs)
			for _, attr := range attrs {
				if existing, ok := info.members[attr.name]; !ok || existing.scope != s {
					info.members[attr.name] = member{binding: attr, scope: method}
				}
				names = append(names, attr.name)
			}
		}
	}

	info.names = append(names, object.ClassMembers(object.ObjectClass)...)
	info.names = append(info.names, "__class__")
	return info
}

// receiverAssignments finds self.name = value statements in a method body.
func (a *analyzer) receiverAssignments(n *sitter.Node, self string, out *[]binding) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "function_definition", "class_definition", "lambda":
			continue
		case "assignment", "augmented_assignment":
			left := c.ChildByFieldName("left")
			if left != nil && left.Type() == "attribute" {
				obj, attr := left.ChildByFieldName("object"), left.ChildByFieldName("attribute")
				if obj != nil && attr != nil && obj.Type() == "identifier" && a.text(obj) == self {
					b := binding{name: a.text(attr), kind: bindValue, node: attr}
					if c.Type() == "assignment" {
						b.value = c.ChildByFieldName("right")
					}
					*out = append(*out, b)
				}
			}
		}
		a.receiverAssignments(c, self, out)
	}
}
