package autocomplete

import (
	"strings"

	"github.com/bastiangx/replserve/pkg/lineparts"
)

// base is embedded by every strategy and holds what they share. It is
// filled in at construction and never changed afterwards.
type base struct {
	name           string
	locate         lineparts.Locator
	format         func(string) string
	shownBeforeTab bool
}

func (b base) Name() string { return b.name }

func (b base) Locate(cursorOffset int, line string) (lineparts.Span, bool) {
	return b.locate(cursorOffset, line)
}

func (b base) Format(match string) string {
	if b.format == nil {
		return match
	}
	return b.format(match)
}

func (b base) Substitute(cursorOffset int, line, match string) (int, string) {
	return substitute(b.locate, cursorOffset, line, match)
}

func (b base) ShownBeforeTab() bool { return b.shownBeforeTab }

// substitute replaces the span locate finds with match. The line is left
// alone when nothing is located.
func substitute(locate lineparts.Locator, cursorOffset int, line, match string) (int, string) {
	span, ok := locate(cursorOffset, line)
	if !ok {
		return cursorOffset, line
	}
	return span.Start + len(match), line[:span.Start] + match + line[span.End:]
}

// afterLastDot shows only the last component of a dotted name.
func afterLastDot(name string) string {
	name = strings.TrimRight(name, ".")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
