package autocomplete

import (
	"slices"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/cockroachdb/errors"
)

var ErrNoStrategies = errors.New("cumulative completer needs at least one strategy")

// Cumulative merges the matches of several strategies. Locating and
// formatting follow the first one.
type Cumulative struct {
	strategies []Strategy
}

func NewCumulative(strategies ...Strategy) (*Cumulative, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}
	return &Cumulative{strategies: slices.Clone(strategies)}, nil
}

func (c *Cumulative) Name() string { return "cumulative" }

func (c *Cumulative) Locate(cursorOffset int, line string) (lineparts.Span, bool) {
	return c.strategies[0].Locate(cursorOffset, line)
}

func (c *Cumulative) Format(match string) string {
	return c.strategies[0].Format(match)
}

func (c *Cumulative) Substitute(cursorOffset int, line, match string) (int, string) {
	return c.strategies[0].Substitute(cursorOffset, line, match)
}

func (c *Cumulative) ShownBeforeTab() bool { return true }

// Matches always returns a result, possibly empty, even when none of the
// strategies applies.
func (c *Cumulative) Matches(req *Request) (*Result, error) {
	out := &Result{Matches: []string{}}
	spanSet := false
	for _, s := range c.strategies {
		r, err := s.Matches(req)
		if err != nil {
			return nil, errors.Wrapf(err, "%s completion", s.Name())
		}
		if r == nil {
			continue
		}
		if !spanSet {
			out.Span, spanSet = r.Span, true
		}
		out.Matches = append(out.Matches, r.Matches...)
	}
	slices.Sort(out.Matches)
	out.Matches = slices.Compact(out.Matches)
	return out, nil
}

// Strategies returns the merged strategies in order.
func (c *Cumulative) Strategies() []Strategy {
	return slices.Clone(c.strategies)
}
