/*
Package evaluate runs speculative evaluation of expression fragments typed
at the prompt.

Eval parses a single expression with the tree-sitter Python grammar and
evaluates it against a live namespace. It is NOT a sandbox: calls, property
getters and __getattr__ hooks run host code and may have side effects.

Only name, attribute and syntax failures are converted into an
*EvaluationError. Every other failure (a getter that errors, a call that
fails, a missing dict key) is returned unchanged so that it reaches the
caller instead of disappearing into an empty completion list.
*/
package evaluate

import (
	"context"
	"fmt"

	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	// ErrEvaluation matches every *EvaluationError.
	ErrEvaluation = errors.New("evaluation failed")
	ErrSyntax     = errors.New("syntax error")
)

// EvaluationError reports an expression that could not be resolved.
type EvaluationError struct {
	Expr string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// Eval evaluates expr against ns.
func Eval(expr string, ns object.Namespace) (object.Object, error) {
	return EvalContext(context.Background(), expr, ns)
}

// EvalContext is Eval with a context bounding the parse.
func EvalContext(ctx context.Context, expr string, ns object.Namespace) (object.Object, error) {
	obj, err := evalSource(ctx, expr, ns)
	if err != nil && errors.IsAny(err, object.ErrName, object.ErrAttribute, ErrSyntax) {
		return nil, &EvaluationError{Expr: expr, Err: err}
	}
	return obj, err
}

func evalSource(ctx context.Context, expr string, ns object.Namespace) (object.Object, error) {
	src := []byte(expr)

	// new parser per call, parsers are not safe for concurrent use
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(err, "tree-sitter parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, errors.Wrap(ErrSyntax, "invalid syntax")
	}
	stmts := namedChildren(root)
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return nil, errors.Wrap(ErrSyntax, "expected a single expression")
	}

	e := &evaluator{src: src, ns: ns}
	exprs := namedChildren(stmts[0])
	switch len(exprs) {
	case 0:
		return nil, errors.Wrap(ErrSyntax, "empty expression")
	case 1:
		return e.eval(exprs[0])
	default:
		return e.tuple(exprs)
	}
}

type evaluator struct {
	src []byte
	ns  object.Namespace
}

func (e *evaluator) eval(n *sitter.Node) (object.Object, error) {
	switch n.Type() {
	case "identifier":
		return e.lookup(n.Content(e.src))
	case "attribute":
		obj, err := e.evalField(n, "object")
		if err != nil {
			return nil, err
		}
		attr, err := field(n, "attribute")
		if err != nil {
			return nil, err
		}
		return object.GetAttr(obj, attr.Content(e.src))
	case "subscript":
		return e.subscript(n)
	case "call":
		return e.call(n)
	case "string":
		return decodeString(n.Content(e.src))
	case "concatenated_string":
		return e.concatenated(n)
	case "integer":
		return parseInt(n.Content(e.src))
	case "float":
		return parseFloat(n.Content(e.src))
	case "true":
		return object.Bool(true), nil
	case "false":
		return object.Bool(false), nil
	case "none":
		return object.None, nil
	case "list":
		items, err := e.evalAll(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return object.NewList(items...), nil
	case "tuple", "expression_list":
		return e.tuple(namedChildren(n))
	case "set":
		items, err := e.evalAll(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return object.NewSet(items...)
	case "dictionary":
		return e.dictionary(n)
	case "parenthesized_expression":
		inner := namedChildren(n)
		if len(inner) != 1 {
			return nil, errors.Wrap(ErrSyntax, "invalid parenthesized expression")
		}
		return e.eval(inner[0])
	case "unary_operator":
		return e.unary(n)
	}
	return nil, errors.Wrapf(ErrSyntax, "unsupported expression: %s", n.Type())
}

func (e *evaluator) lookup(name string) (object.Object, error) {
	if v, ok := e.ns[name]; ok {
		return v, nil
	}
	builtins := object.DefaultGlobals().Builtins
	if mod, ok := e.ns["__builtins__"].(*object.Module); ok {
		builtins = mod.Dict
	}
	if v, ok := builtins[name]; ok {
		return v, nil
	}
	return nil, errors.Wrapf(object.ErrName, "name '%s' is not defined", name)
}

func (e *evaluator) evalField(n *sitter.Node, name string) (object.Object, error) {
	child, err := field(n, name)
	if err != nil {
		return nil, err
	}
	return e.eval(child)
}

func (e *evaluator) evalAll(nodes []*sitter.Node) ([]object.Object, error) {
	items := make([]object.Object, 0, len(nodes))
	for _, child := range nodes {
		v, err := e.eval(child)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (e *evaluator) tuple(nodes []*sitter.Node) (object.Object, error) {
	items, err := e.evalAll(nodes)
	if err != nil {
		return nil, err
	}
	return object.Tuple(items), nil
}

func (e *evaluator) subscript(n *sitter.Node) (object.Object, error) {
	value, err := e.evalField(n, "value")
	if err != nil {
		return nil, err
	}
	keys := namedChildren(n)[1:]
	for _, k := range keys {
		if k.Type() == "slice" {
			return nil, errors.Wrap(ErrSyntax, "slices are not evaluated")
		}
	}
	var key object.Object
	switch len(keys) {
	case 0:
		return nil, errors.Wrap(ErrSyntax, "empty subscript")
	case 1:
		key, err = e.eval(keys[0])
	default:
		key, err = e.tuple(keys)
	}
	if err != nil {
		return nil, err
	}
	return object.Subscript(value, key)
}

func (e *evaluator) call(n *sitter.Node) (object.Object, error) {
	fn, err := e.evalField(n, "function")
	if err != nil {
		return nil, err
	}
	argList, err := field(n, "arguments")
	if err != nil {
		return nil, err
	}
	if argList.Type() != "argument_list" {
		return nil, errors.Wrapf(ErrSyntax, "unsupported call arguments: %s", argList.Type())
	}

	var args []object.Object
	kwargs := make(map[string]object.Object)
	for _, arg := range namedChildren(argList) {
		switch arg.Type() {
		case "keyword_argument":
			name, err := field(arg, "name")
			if err != nil {
				return nil, err
			}
			v, err := e.evalField(arg, "value")
			if err != nil {
				return nil, err
			}
			kwargs[name.Content(e.src)] = v
		case "list_splat", "dictionary_splat":
			return nil, errors.Wrap(ErrSyntax, "argument unpacking is not evaluated")
		default:
			v, err := e.eval(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}
	return object.Call(fn, args, kwargs)
}

func (e *evaluator) concatenated(n *sitter.Node) (object.Object, error) {
	var (
		str     object.Str
		bytes   object.Bytes
		isBytes bool
	)
	for i, part := range namedChildren(n) {
		v, err := e.eval(part)
		if err != nil {
			return nil, err
		}
		switch p := v.(type) {
		case object.Str:
			if i > 0 && isBytes {
				return nil, errors.Wrap(ErrSyntax, "cannot mix bytes and nonbytes literals")
			}
			str += p
		case object.Bytes:
			if i > 0 && !isBytes {
				return nil, errors.Wrap(ErrSyntax, "cannot mix bytes and nonbytes literals")
			}
			isBytes = true
			bytes += p
		}
	}
	if isBytes {
		return bytes, nil
	}
	return str, nil
}

func (e *evaluator) dictionary(n *sitter.Node) (object.Object, error) {
	d := object.NewDict()
	for _, pair := range namedChildren(n) {
		if pair.Type() != "pair" {
			return nil, errors.Wrapf(ErrSyntax, "unsupported dict entry: %s", pair.Type())
		}
		k, err := e.evalField(pair, "key")
		if err != nil {
			return nil, err
		}
		v, err := e.evalField(pair, "value")
		if err != nil {
			return nil, err
		}
		if err := d.Set(k, v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e *evaluator) unary(n *sitter.Node) (object.Object, error) {
	op, err := field(n, "operator")
	if err != nil {
		return nil, err
	}
	v, err := e.evalField(n, "argument")
	if err != nil {
		return nil, err
	}
	sym := op.Content(e.src)
	switch x := v.(type) {
	case object.Int:
		switch sym {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		case "~":
			return ^x, nil
		}
	case object.Bool:
		i := object.Int(0)
		if x {
			i = 1
		}
		switch sym {
		case "-":
			return -i, nil
		case "+":
			return i, nil
		case "~":
			return ^i, nil
		}
	case object.Float:
		switch sym {
		case "-":
			return -x, nil
		case "+":
			return x, nil
		}
	}
	return nil, errors.Wrapf(object.ErrType, "bad operand type for unary %s: '%s'", sym, v.Class().Name)
}

func field(n *sitter.Node, name string) (*sitter.Node, error) {
	child := n.ChildByFieldName(name)
	if child == nil {
		return nil, errors.Wrapf(ErrSyntax, "%s without %s", n.Type(), name)
	}
	return child, nil
}

// namedChildren skips comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	children := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		children = append(children, child)
	}
	return children
}
