package autocomplete

import (
	"github.com/bastiangx/replserve/pkg/lineparts"
)

// Import completes module names in import statements.
type Import struct {
	base
	source ImportSource
}

// NewImport returns an import strategy backed by source. A nil source
// never applies.
func NewImport(source ImportSource) *Import {
	return &Import{
		base: base{
			name:           "import",
			locate:         lineparts.CurrentWord,
			format:         afterLastDot,
			shownBeforeTab: true,
		},
		source: source,
	}
}

func (s *Import) Matches(req *Request) (*Result, error) {
	if s.source == nil {
		return nil, nil
	}
	matches := s.source.Complete(req.CursorOffset, req.Line)
	if matches == nil {
		return nil, nil
	}
	span, _ := s.locate(req.CursorOffset, req.Line)
	return &Result{Matches: matches, Span: span}, nil
}
