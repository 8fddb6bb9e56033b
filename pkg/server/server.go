package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/bastiangx/replserve/internal/logger"
	"github.com/bastiangx/replserve/internal/utils"
	"github.com/bastiangx/replserve/pkg/autocomplete"
	"github.com/bastiangx/replserve/pkg/config"
	"github.com/bastiangx/replserve/pkg/evaluate"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for one completion session
type Server struct {
	completer  *autocomplete.Completer
	config     *config.Config
	configPath string
	globals    *object.Globals

	session   string
	namespace object.Namespace
	history   []string

	decoder *msgpack.Decoder
	encoder *msgpack.Encoder
	logger  *log.Logger
}

// NewServer creates a completion server using stdin/stdout for IPC
func NewServer(completer *autocomplete.Completer, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(completer, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a completion server over r and w
func NewServerWithIO(completer *autocomplete.Completer, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	globals := object.DefaultGlobals()
	return &Server{
		completer:  completer,
		config:     cfg,
		configPath: configPath,
		globals:    globals,
		session:    uuid.NewString(),
		namespace:  globals.NewNamespace(),
		decoder:    msgpack.NewDecoder(bufio.NewReader(r)),
		encoder:    msgpack.NewEncoder(w),
		logger:     logger.New("server"),
	}
}

// Session returns the id of the running session
func (s *Server) Session() string { return s.session }

// Start answers requests until the input ends or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debugf("Starting session %s", s.session)
	s.sendResponse(StatusResponse{Status: "ready", Session: s.session})

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := s.decoder.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Client disconnected (EOF)")
				return nil
			}
			s.logger.Errorf("Reading request: %v", err)
			return errors.Wrap(err, "read request")
		}
		s.handleMessage(ctx, raw)
	}
}

// handleMessage decodes one request and dispatches on its action
func (s *Server) handleMessage(ctx context.Context, raw msgpack.RawMessage) {
	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid msgpack request", 400)
		return
	}

	switch req.Action {
	case "complete":
		s.handleComplete(ctx, req)
	case "substitute":
		s.handleSubstitute(req)
	case "bind":
		s.handleBind(ctx, req)
	case "history":
		s.handleHistory(req)
	case "reset":
		s.namespace = s.globals.NewNamespace()
		s.history = nil
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Session: s.session})
	case "health":
		s.sendResponse(StatusResponse{
			ID:      req.ID,
			Status:  "ok",
			Session: s.session,
			History: len(s.history),
			Names:   len(s.namespace),
			Mode:    s.config.Completion.Mode,
		})
	case "config":
		s.handleConfig(req)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

// cursor returns the request cursor, defaulting to the end of the line
func cursor(req Request) (int, error) {
	if req.Cursor == nil {
		return len(req.Line), nil
	}
	c := *req.Cursor
	if c < 0 || c > len(req.Line) {
		return 0, errors.Newf("cursor %d outside line of length %d", c, len(req.Line))
	}
	return c, nil
}

func (s *Server) handleComplete(ctx context.Context, req Request) {
	if len(req.Line) > s.config.Server.MaxLineLength {
		s.sendError(req.ID, fmt.Sprintf("line exceeds maximum length of %d bytes", s.config.Server.MaxLineLength), 400)
		return
	}
	pos, err := cursor(req)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	mode := s.config.Completion.MatchingMode()
	if req.Mode != "" {
		if mode, err = matching.ParseMode(req.Mode); err != nil {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
	}
	magic := s.config.Completion.CompleteMagicMethods
	if req.Magic != nil {
		magic = *req.Magic
	}

	areq := &autocomplete.Request{
		CursorOffset:         pos,
		Line:                 req.Line,
		Locals:               s.namespace,
		CurrentBlock:         req.Block,
		Mode:                 mode,
		CompleteMagicMethods: magic,
		History:              s.history,
		Globals:              s.globals,
	}
	if req.ArgSpec != nil {
		areq.ArgSpec = &object.ArgSpec{Func: req.ArgSpec.Func, Args: req.ArgSpec.Args, KwOnlyArgs: req.ArgSpec.KwOnly}
	}

	start := time.Now()
	comp, err := s.completer.Complete(areq.WithContext(ctx))
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, autocomplete.ErrInvalidRequest) {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
		// a failing collaborator costs this keystroke its completions,
		// never the session
		s.logger.Warnf("Completion of %q failed: %v", req.Line, err)
		comp = autocomplete.Completion{Matches: []string{}}
	}

	limit := s.config.Completion.MaxMatches
	if req.Limit != nil && *req.Limit > 0 && (limit == 0 || *req.Limit < limit) {
		limit = *req.Limit
	}
	values := comp.Matches
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}

	resp := CompletionResponse{
		ID:        req.ID,
		Matches:   make([]Match, len(values)),
		Count:     len(values),
		Start:     pos,
		End:       pos,
		TimeTaken: elapsed.Microseconds(),
	}
	for i, v := range values {
		resp.Matches[i] = Match{Value: v, Display: v}
	}
	if comp.Strategy != nil {
		resp.Strategy = comp.Strategy.Name()
		resp.Start, resp.End = comp.Span.Start, comp.Span.End
		resp.ShownBeforeTab = comp.Strategy.ShownBeforeTab()
		for i, v := range values {
			resp.Matches[i].Display = comp.Strategy.Format(v)
		}
	}
	s.sendResponse(resp)
}

func (s *Server) handleSubstitute(req Request) {
	strategy, ok := s.completer.Strategy(req.Strategy)
	if !ok {
		s.sendError(req.ID, fmt.Sprintf("unknown strategy: %s", req.Strategy), 404)
		return
	}
	pos, err := cursor(req)
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	newCursor, line := strategy.Substitute(pos, req.Line, req.Match)
	s.sendResponse(SubstituteResponse{ID: req.ID, Line: line, Cursor: newCursor})
}

func (s *Server) handleBind(ctx context.Context, req Request) {
	if !utils.IsIdentifier(req.Name) || slices.Contains(s.globals.Keywords, req.Name) {
		s.sendError(req.ID, fmt.Sprintf("invalid name: %q", req.Name), 400)
		return
	}
	obj, err := evaluate.EvalContext(ctx, req.Expr, s.namespace)
	if err != nil {
		s.sendError(req.ID, err.Error(), 422)
		return
	}
	s.namespace[req.Name] = obj
	s.logger.Debugf("Bound %s = %s", req.Name, obj.Repr())
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Repr: obj.Repr()})
}

func (s *Server) handleHistory(req Request) {
	s.history = append(s.history, req.Line)
	if over := len(s.history) - s.config.Server.MaxHistory; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", History: len(s.history)})
}

func (s *Server) handleConfig(req Request) {
	if s.configPath == "" {
		s.sendError(req.ID, "no config file in use", 409)
		return
	}
	var mode *string
	if req.Mode != "" {
		mode = &req.Mode
	}
	if err := s.config.Update(s.configPath, mode, req.Magic, req.Limit); err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}
	s.logger.Debugf("Config updated: %+v", s.config.Completion)
	s.sendResponse(StatusResponse{ID: req.ID, Status: "ok", Mode: s.config.Completion.Mode})
}

// sendResponse encodes response onto the output stream
func (s *Server) sendResponse(response any) {
	if err := s.encoder.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(CompletionError{ID: id, Error: message, Code: code})
}
