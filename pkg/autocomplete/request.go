package autocomplete

import (
	"context"

	"github.com/bastiangx/replserve/pkg/lineparts"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/cockroachdb/errors"
)

var ErrInvalidRequest = errors.New("invalid completion request")

// Request carries everything a completion pass needs. A Request lives for
// one dispatch.
type Request struct {
	CursorOffset int
	Line         string

	// Locals is the evaluation namespace; nil means the __main__ namespace
	// of Globals
	Locals object.Namespace

	// ArgSpec describes the call the cursor sits in, if any
	ArgSpec *object.ArgSpec

	// CurrentBlock is the raw text of the logical block being typed
	CurrentBlock string

	Mode                 matching.Mode
	CompleteMagicMethods bool
	History              []string

	// Globals is the snapshot of builtins and keywords; nil means
	// object.DefaultGlobals()
	Globals *object.Globals

	ctx context.Context
}

// Context returns the request's context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of r using ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Validate checks the cursor lies within the line and the mode is known.
func (r *Request) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidRequest, "nil request")
	}
	if r.CursorOffset < 0 || r.CursorOffset > len(r.Line) {
		return errors.Wrapf(ErrInvalidRequest, "cursor %d outside line of length %d", r.CursorOffset, len(r.Line))
	}
	switch r.Mode {
	case matching.Simple, matching.Substring, matching.Fuzzy:
	default:
		return errors.Wrapf(ErrInvalidRequest, "unknown mode %d", int(r.Mode))
	}
	return nil
}

func (r *Request) globals() *object.Globals {
	if r.Globals != nil {
		return r.Globals
	}
	return object.DefaultGlobals()
}

func (r *Request) namespace() object.Namespace {
	if r.Locals != nil {
		return r.Locals
	}
	return r.globals().Main
}

// Result is what a strategy found. Span is the region its matches replace.
type Result struct {
	Matches []string
	Span    lineparts.Span
}

func emptyResult(span lineparts.Span) *Result {
	return &Result{Matches: []string{}, Span: span}
}
