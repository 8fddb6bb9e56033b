// Package analysis completes names in multi-line source that has not been
// executed yet. It parses the source with tree-sitter, which tolerates the
// half-typed code a prompt usually holds, and infers what it can about the
// names visible at the cursor.
package analysis

import (
	"context"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/replserve/pkg/object"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var ErrPosition = errors.New("position outside source")

// cursorPlaceholder completes a dangling attribute access so the line at
// the cursor parses as an expression.
const cursorPlaceholder = "__replserve_cursor__"

// Completion is a candidate name and the part of it not typed yet.
type Completion struct {
	Name     string
	Complete string
}

type Engine struct {
	globals *object.Globals
}

// NewEngine returns an engine resolving builtins and imports against
// globals, or the default globals when nil.
func NewEngine(globals *object.Globals) *Engine {
	if globals == nil {
		globals = object.DefaultGlobals()
	}
	return &Engine{globals: globals}
}

// Complete returns the completions for the identifier ending at the given
// position. line is 1-based and column is a byte offset into that line.
// Matching against the typed prefix ignores case.
func (e *Engine) Complete(ctx context.Context, source string, line, column int) ([]Completion, error) {
	offset, err := byteOffset(source, line, column)
	if err != nil {
		return nil, err
	}

	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(source[:start])
		if !isIdentRune(r) {
			break
		}
		start -= size
	}
	typed := source[start:offset]

	var chain []string
	if start > 0 && source[start-1] == '.' {
		chain = dottedChain(source[:start-1])
		if chain == nil {
			return []Completion{}, nil
		}
	}

	src := source
	if chain != nil && typed == "" {
		src = source[:offset] + cursorPlaceholder + source[offset:]
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return nil, errors.Wrap(err, "tree-sitter parse failed")
	}
	defer tree.Close()

	a := newAnalyzer([]byte(src), uint32(offset), e.globals)
	scope := a.scopeAt(tree.RootNode())

	var names []string
	if chain == nil {
		names = a.visibleNames(scope)
	} else {
		t, ok := a.resolveChain(scope, chain)
		if !ok {
			log.Debugf("Cannot resolve %s", strings.Join(chain, "."))
			return []Completion{}, nil
		}
		names = a.members(t)
	}
	return collect(names, typed), nil
}

func collect(names []string, typed string) []Completion {
	out := make([]Completion, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == cursorPlaceholder || len(name) < len(typed) || !strings.EqualFold(name[:len(typed)], typed) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Completion{Name: name, Complete: name[len(typed):]})
	}
	slices.SortFunc(out, func(x, y Completion) int {
		xu, yu := strings.HasPrefix(x.Name, "_"), strings.HasPrefix(y.Name, "_")
		if xu != yu {
			if xu {
				return 1
			}
			return -1
		}
		return strings.Compare(x.Name, y.Name)
	})
	return out
}

func byteOffset(source string, line, column int) (int, error) {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return 0, errors.Wrapf(ErrPosition, "line %d of %d", line, len(lines))
	}
	if column < 0 || column > len(lines[line-1]) {
		return 0, errors.Wrapf(ErrPosition, "column %d of line %d", column, line)
	}
	offset := column
	for _, l := range lines[:line-1] {
		offset += len(l) + 1
	}
	return offset, nil
}

// dottedChain splits the identifier chain ending text, as in a.b.c, or
// returns nil when text does not end in one.
func dottedChain(text string) []string {
	var chain []string
	end := len(text)
	for {
		start := end
		for start > 0 {
			r, size := utf8.DecodeLastRuneInString(text[:start])
			if !isIdentRune(r) {
				break
			}
			start -= size
		}
		seg := text[start:end]
		if seg == "" || unicode.IsDigit(rune(seg[0])) {
			return nil
		}
		chain = append(chain, seg)
		if start == 0 || text[start-1] != '.' {
			break
		}
		end = start - 1
	}
	slices.Reverse(chain)
	return chain
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
