package autocomplete

import (
	"slices"
	"time"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Completion is the outcome of one dispatch. Strategy is nil exactly when
// Matches is empty.
type Completion struct {
	Matches  []string
	Strategy Strategy
	Span     lineparts.Span
}

// Complete asks each strategy in order and stops at the first that
// applies. An applicable strategy with no matches ends the pass with no
// winner.
func Complete(strategies []Strategy, req *Request) (Completion, error) {
	if err := req.Validate(); err != nil {
		return Completion{Matches: []string{}}, err
	}
	for _, s := range strategies {
		r, err := s.Matches(req)
		if err != nil {
			return Completion{Matches: []string{}}, errors.Wrapf(err, "%s completion", s.Name())
		}
		if r == nil {
			continue
		}
		if len(r.Matches) == 0 {
			return Completion{Matches: []string{}}, nil
		}
		return Completion{Matches: r.Matches, Strategy: s, Span: r.Span}, nil
	}
	return Completion{Matches: []string{}}, nil
}

// DefaultStrategies returns the canonical chain. Either collaborator may
// be nil, which disables the strategy built on it.
func DefaultStrategies(imports ImportSource, analyzer Analyzer) []Strategy {
	// NewCumulative only fails on an empty list
	tail, _ := NewCumulative(NewAttribute(), NewParameterName())
	return []Strategy{
		NewDictKey(),
		NewStringLiteralAttr(),
		NewImport(imports),
		NewFilename(),
		NewMagicMethod(),
		NewMultilineAnalysis(analyzer),
		NewGlobal(),
		tail,
	}
}

// Completer owns a strategy chain and is safe for concurrent use.
type Completer struct {
	strategies []Strategy
}

// NewCompleter builds a completer over the canonical chain.
func NewCompleter(imports ImportSource, analyzer Analyzer) *Completer {
	return &Completer{strategies: DefaultStrategies(imports, analyzer)}
}

// NewCompleterWith builds a completer over a custom chain.
func NewCompleterWith(strategies ...Strategy) *Completer {
	return &Completer{strategies: slices.Clone(strategies)}
}

func (c *Completer) Complete(req *Request) (Completion, error) {
	start := time.Now()
	comp, err := Complete(c.strategies, req)
	elapsed := time.Since(start)
	if err != nil {
		log.Debugf("Completion failed after %v: %v", elapsed, err)
		return comp, err
	}
	name := "none"
	if comp.Strategy != nil {
		name = comp.Strategy.Name()
	}
	log.Debugf("Completed %q at %d: %d matches from %s in %v", req.Line, req.CursorOffset, len(comp.Matches), name, elapsed)
	return comp, nil
}

// Substitute splices match into line using the strategy that produced
// comp. Without a winner the line is returned unchanged.
func (c *Completer) Substitute(comp Completion, cursorOffset int, line, match string) (int, string) {
	if comp.Strategy == nil {
		return cursorOffset, line
	}
	return comp.Strategy.Substitute(cursorOffset, line, match)
}

// Strategy finds a strategy of the chain by name, looking inside
// cumulative strategies too.
func (c *Completer) Strategy(name string) (Strategy, bool) {
	return findStrategy(c.strategies, name)
}

func findStrategy(strategies []Strategy, name string) (Strategy, bool) {
	for _, s := range strategies {
		if s.Name() == name {
			return s, true
		}
		if cum, ok := s.(*Cumulative); ok {
			if found, ok := findStrategy(cum.strategies, name); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// Strategies returns the chain in dispatch order.
func (c *Completer) Strategies() []Strategy {
	return slices.Clone(c.strategies)
}
