package autocomplete

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/bastiangx/replserve/internal/utils"
	"github.com/bastiangx/replserve/pkg/evaluate"
	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
)

// attrExprRe splits "expr.attr" where expr is a dotted name, optionally
// headed by a quoted string literal.
var attrExprRe = regexp.MustCompile(`^((?:[\p{L}\p{N}_]+|'[^']*'|"[^"]*")(?:\.[\p{L}\p{N}_]+)*)\.([\p{L}\p{N}_]*)`)

// Attribute completes obj.attr by evaluating obj and reflecting over it.
type Attribute struct {
	base
}

func NewAttribute() *Attribute {
	return &Attribute{base{
		name:           "attribute",
		locate:         lineparts.CurrentDottedAttribute,
		format:         afterLastDot,
		shownBeforeTab: true,
	}}
}

func (s *Attribute) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	matches, err := AttrMatches(req.Context(), span.Word, req.namespace(), req.Mode)
	if err != nil {
		return nil, err
	}
	return &Result{Matches: matches, Span: span}, nil
}

// AttrMatches returns the completions of a dotted expression such as
// "foo.ba" or "d[x.ba": every member of the evaluated object whose name
// matches the typed attribute, prefixed with the text before it. Members
// starting with _ are only offered once the attribute itself starts with _.
// The result is never nil.
//
// Evaluating the expression may run property getters and __getattr__
// hooks. Failures to resolve a name or attribute give no matches; any
// other error from host code is returned.
func AttrMatches(ctx context.Context, text string, ns object.Namespace, mode matching.Mode) ([]string, error) {
	prefix, expr := "", text
	if i := strings.LastIndexByte(text, '['); i >= 0 {
		prefix, expr = text[:i+1], text[i+1:]
	}

	m := attrExprRe.FindStringSubmatch(expr)
	if m == nil {
		return []string{}, nil
	}
	objExpr, attr := m[1], m[2]
	if utils.IsOnlyNumbers(objExpr) {
		// "1." is a float literal in progress, not an attribute access
		return []string{}, nil
	}

	obj, err := evaluate.EvalContext(ctx, objExpr, ns)
	if err != nil {
		if errors.Is(err, evaluate.ErrEvaluation) {
			return []string{}, nil
		}
		return nil, err
	}

	hidePrivate := !strings.HasPrefix(attr, "_")
	matches := []string{}
	for _, word := range attrNames(obj) {
		if word == "__builtins__" || !mode.Match(word, attr) {
			continue
		}
		if hidePrivate && strings.HasPrefix(word, "_") {
			continue
		}
		matches = append(matches, prefix+objExpr+"."+word)
	}
	return matches, nil
}

// attrNames lists what dir() and the class hierarchy expose for obj.
func attrNames(obj object.Object) []string {
	words := object.Dir(obj)
	words = append(words, "__class__")
	words = append(words, object.ClassMembers(obj.Class())...)
	if !obj.Class().Class().IsSubclass(object.ABCMeta) {
		words = slices.DeleteFunc(words, func(w string) bool { return w == "__abstractmethods__" })
	}
	slices.Sort(words)
	return slices.Compact(words)
}

// StringLiteralAttr completes methods of a string literal, as in "abc".up
type StringLiteralAttr struct {
	base
}

func NewStringLiteralAttr() *StringLiteralAttr {
	return &StringLiteralAttr{base{
		name:           "string_literal_attr",
		locate:         lineparts.CurrentStringLiteralAttr,
		shownBeforeTab: true,
	}}
}

func (s *StringLiteralAttr) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	hidePrivate := !strings.HasPrefix(span.Word, "_")
	matches := []string{}
	for _, attr := range object.Dir(object.Str("")) {
		if !strings.HasPrefix(attr, span.Word) {
			continue
		}
		if hidePrivate && strings.HasPrefix(attr, "_") {
			continue
		}
		matches = append(matches, attr)
	}
	return &Result{Matches: matches, Span: span}, nil
}
