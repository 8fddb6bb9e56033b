// Package cli is an interactive line loop for trying completions by hand.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/replserve/pkg/autocomplete"
	"github.com/bastiangx/replserve/pkg/evaluate"
	"github.com/bastiangx/replserve/pkg/matching"
	"github.com/bastiangx/replserve/pkg/object"
	"github.com/charmbracelet/log"
)

var bindingRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)$`)

// InputHandler reads lines and completes each one as if the cursor sat at
// its end. Assignments bind names so later lines can complete against
// them.
type InputHandler struct {
	completer *autocomplete.Completer
	globals   *object.Globals
	namespace object.Namespace
	history   []string
	block     []string

	mode       matching.Mode
	magic      bool
	blockMode  bool
	maxMatches int

	in  io.Reader
	out io.Writer
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(completer *autocomplete.Completer, mode matching.Mode, magic bool, maxMatches int, in io.Reader, out io.Writer) *InputHandler {
	globals := object.DefaultGlobals()
	return &InputHandler{
		completer:  completer,
		globals:    globals,
		namespace:  globals.NewNamespace(),
		mode:       mode,
		magic:      magic,
		maxMatches: maxMatches,
		in:         in,
		out:        out,
	}
}

// Start runs the loop until the input ends.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, titleStyle.Render("replserve CLI"))
	fmt.Fprintln(h.out, hintStyle.Render("type a line to complete it, name = expr to bind, :help for commands"))

	scanner := bufio.NewScanner(h.in)
	for {
		fmt.Fprint(h.out, h.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		h.handleInput(ctx, scanner.Text())
	}
}

func (h *InputHandler) prompt() string {
	if h.blockMode {
		return promptStyle.Render("... ")
	}
	return promptStyle.Render(">>> ")
}

// handleInput processes a single line
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, ":") {
		h.handleCommand(trimmed)
		return
	}
	if m := bindingRe.FindStringSubmatch(trimmed); m != nil && !slices.Contains(h.globals.Keywords, m[1]) {
		h.bind(ctx, line, m[1], m[2])
		return
	}
	h.complete(ctx, line)
	if h.blockMode {
		h.block = append(h.block, line)
		h.history = append(h.history, line)
	}
}

func (h *InputHandler) handleCommand(cmd string) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":mode":
		mode, err := matching.ParseMode(arg)
		if err != nil {
			h.printError(err)
			return
		}
		h.mode = mode
		h.printInfo("mode", mode.String())
	case ":block":
		h.blockMode = !h.blockMode
		h.block = nil
		h.printInfo("block", onOff(h.blockMode))
	case ":magic":
		h.magic = !h.magic
		h.printInfo("magic methods", onOff(h.magic))
	case ":reset":
		h.namespace = h.globals.NewNamespace()
		h.history, h.block = nil, nil
		h.printInfo("session", "reset")
	case ":names":
		names := make([]string, 0, len(h.namespace))
		for n := range h.namespace {
			names = append(names, n)
		}
		slices.Sort(names)
		h.printInfo("names", strings.Join(names, " "))
	case ":strategies":
		h.printInfo("strategies", strings.Join(strategyNames(h.completer.Strategies()), " "))
	case ":help":
		fmt.Fprintln(h.out, hintStyle.Render(helpText))
	default:
		h.printError(fmt.Errorf("unknown command %s", name))
	}
}

func (h *InputHandler) bind(ctx context.Context, line, name, expr string) {
	obj, err := evaluate.EvalContext(ctx, expr, h.namespace)
	if err != nil {
		h.printError(err)
		return
	}
	h.namespace[name] = obj
	h.history = append(h.history, line)
	if h.blockMode {
		h.block = append(h.block, line)
	}
	fmt.Fprintln(h.out, bindStyle.Render(name)+" = "+obj.Repr())
}

func (h *InputHandler) complete(ctx context.Context, line string) {
	block := line
	if h.blockMode && len(h.block) > 0 {
		block = strings.Join(h.block, "\n") + "\n" + line
	}
	req := &autocomplete.Request{
		CursorOffset:         len(line),
		Line:                 line,
		Locals:               h.namespace,
		CurrentBlock:         block,
		Mode:                 h.mode,
		CompleteMagicMethods: h.magic,
		History:              h.history,
		Globals:              h.globals,
	}

	start := time.Now()
	comp, err := h.completer.Complete(req.WithContext(ctx))
	elapsed := time.Since(start)
	if err != nil {
		log.Warnf("Completion failed: %v", err)
		comp = autocomplete.Completion{Matches: []string{}}
	}
	log.Debugf("Took [ %v ] for line %q", elapsed, line)

	if len(comp.Matches) == 0 {
		fmt.Fprintln(h.out, hintStyle.Render("no completions"))
		return
	}
	fmt.Fprintln(h.out, renderMatches(comp, h.maxMatches))
}

func (h *InputHandler) printInfo(key, value string) {
	fmt.Fprintln(h.out, keyStyle.Render(key+":")+" "+value)
}

func (h *InputHandler) printError(err error) {
	fmt.Fprintln(h.out, errorStyle.Render("error:")+" "+err.Error())
}

// strategyNames lists the chain in dispatch order, with grouped
// strategies in brackets.
func strategyNames(strategies []autocomplete.Strategy) []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if c, ok := s.(*autocomplete.Cumulative); ok {
			names = append(names, s.Name()+"["+strings.Join(strategyNames(c.Strategies()), ",")+"]")
			continue
		}
		names = append(names, s.Name())
	}
	return names
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

const helpText = `:mode simple|substring|fuzzy  switch matching mode
:block                        toggle multi-line block input
:magic                        toggle magic method completion
:names                        list bound names
:strategies                   list the completion chain in order
:reset                        clear names and history`
