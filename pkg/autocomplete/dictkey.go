package autocomplete

import (
	"slices"
	"strings"

	"github.com/bastiangx/replserve/pkg/evaluate"
	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
)

// DictKey completes the keys of a dict being subscripted: d['a| offers
// 'abc'] for every key whose repr starts with what was typed.
type DictKey struct {
	base
}

func NewDictKey() *DictKey {
	return &DictKey{base{
		name:   "dict_key",
		locate: lineparts.CurrentDictKey,
		format: func(match string) string {
			return strings.TrimSuffix(match, "]")
		},
		shownBeforeTab: true,
	}}
}

func (s *DictKey) Matches(req *Request) (*Result, error) {
	span, ok := s.locate(req.CursorOffset, req.Line)
	if !ok {
		return nil, nil
	}
	dictExpr, ok := lineparts.CurrentDict(req.CursorOffset, req.Line)
	if !ok {
		return emptyResult(span), nil
	}

	obj, err := evaluate.EvalContext(req.Context(), dictExpr.Word, req.namespace())
	if err != nil {
		if errors.Is(err, evaluate.ErrEvaluation) {
			return emptyResult(span), nil
		}
		return nil, err
	}

	d, ok := obj.(*object.Dict)
	if !ok || d.Len() == 0 {
		return emptyResult(span), nil
	}

	matches := []string{}
	for _, key := range d.Keys() {
		if r := key.Repr(); strings.HasPrefix(r, span.Word) {
			matches = append(matches, r+"]")
		}
	}
	slices.Sort(matches)
	return &Result{Matches: matches, Span: span}, nil
}
