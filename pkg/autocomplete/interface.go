// Package autocomplete is the completion dispatch pipeline: an ordered chain
// of strategies, each deciding whether it applies to the text under the
// cursor, producing candidates, formatting them for display and splicing a
// chosen candidate back into the line.
package autocomplete

import (
	"context"

	"github.com/bastiangx/replserve/pkg/analysis"
	"github.com/bastiangx/replserve/pkg/lineparts"
)

// Strategy is one completion policy.
type Strategy interface {
	// Name identifies the strategy in logs and on the wire
	Name() string

	// Locate finds the span a match would replace, without evaluating anything
	Locate(cursorOffset int, line string) (lineparts.Span, bool)

	// Matches returns nil when the strategy does not apply, and a result
	// with no matches when it applies but found nothing
	Matches(req *Request) (*Result, error)

	// Format turns a raw match into its display form
	Format(match string) string

	// Substitute replaces the located span with match and returns the new
	// cursor offset and line
	Substitute(cursorOffset int, line, match string) (int, string)

	// ShownBeforeTab reports whether matches may be shown while typing,
	// before an explicit completion request
	ShownBeforeTab() bool
}

// ImportSource completes import statements. Complete returns nil when line
// is not an import statement.
type ImportSource interface {
	Complete(cursorOffset int, line string) []string
}

// Analyzer completes names in source that has not been run. line is
// 1-based; column is a byte offset into that line.
type Analyzer interface {
	Complete(ctx context.Context, source string, line, column int) ([]analysis.Completion, error)
}
