package autocomplete

import (
	"strings"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/cockroachdb/errors"
)

// MultilineAnalysis completes names inside a block that has not been run
// yet, using static analysis of the history plus the current line.
type MultilineAnalysis struct {
	base
	analyzer Analyzer
}

// NewMultilineAnalysis returns the static analysis strategy. A nil
// analyzer never applies.
func NewMultilineAnalysis(analyzer Analyzer) *MultilineAnalysis {
	return &MultilineAnalysis{
		base: base{
			name:           "multiline_analysis",
			locate:         lineparts.CurrentNamePrefix,
			shownBeforeTab: true,
		},
		analyzer: analyzer,
	}
}

func (s *MultilineAnalysis) Matches(req *Request) (*Result, error) {
	if s.analyzer == nil || !strings.Contains(req.CurrentBlock, "\n") {
		return nil, nil
	}
	if _, ok := lineparts.CurrentWord(req.CursorOffset, req.Line); !ok {
		return nil, nil
	}

	source := strings.Join(req.History, "\n") + "\n" + req.Line
	lineNo := strings.Count(source, "\n") + 1
	completions, err := s.analyzer.Complete(req.Context(), source, lineNo, req.CursorOffset)
	if err != nil {
		return nil, errors.Wrap(err, "analyzing block")
	}

	cursor := req.CursorOffset
	if len(completions) == 0 {
		return emptyResult(lineparts.Span{Start: cursor, End: cursor}), nil
	}

	first := completions[0]
	start := min(max(cursor-(len(first.Name)-len(first.Complete)), 0), cursor)
	span := lineparts.Span{Start: start, End: cursor, Word: req.Line[start:cursor]}

	names := make([]string, len(completions))
	for i, c := range completions {
		names[i] = c.Name
	}

	allPrivate := true
	for _, n := range names {
		if !strings.HasPrefix(n, "_") {
			allPrivate = false
			break
		}
	}
	if allPrivate {
		return &Result{Matches: names, Span: span}, nil
	}

	// the engine matches case-insensitively; a mixed-case prefix is left
	// to the strategies after this one
	for _, n := range names {
		if n == "" || names[0] == "" || n[0] != names[0][0] {
			return nil, nil
		}
	}

	matches := []string{}
	for _, n := range names {
		if !strings.HasPrefix(n, "_") {
			matches = append(matches, n)
		}
	}
	return &Result{Matches: matches, Span: span}, nil
}
