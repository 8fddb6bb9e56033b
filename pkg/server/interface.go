/*
Package server implements msgpack IPC for REPL completion.

The server reads a stream of msgpack maps from stdin and answers each with
one msgpack map on stdout. Every request carries an "id" echoed in its
response and an "action" naming the operation. A session holds one
evaluation namespace and a bounded input history; both live as long as the
process or until a reset.

# IPC

Completion requests carry the line being edited and the cursor as a byte
offset. The cursor defaults to the end of the line:

	{"id": "r1", "action": "complete", "line": "os.pa", "cursor": 5}

The response lists raw matches with their display form, the strategy that
produced them, the span of the line they replace and the time taken in
microseconds:

	{"id": "r1", "m": [{"v": "os.path", "d": "path"}], "c": 1, "s": "cumulative", "start": 0, "end": 5, "shown_before_tab": true, "t": 87}

A chosen match is spliced back in by naming its strategy:

	{"id": "r2", "action": "substitute", "line": "os.pa", "cursor": 5, "match": "os.path", "strategy": "cumulative"}

The namespace is filled by binding names to expressions, and executed
lines are recorded for the static analysis of multi-line blocks:

	{"id": "r3", "action": "bind", "name": "d", "expr": "{'apple': 1}"}
	{"id": "r4", "action": "history", "line": "d = {'apple': 1}"}

"reset" clears namespace and history, "health" reports the session, and
"config" changes completion settings and saves them to the config file.

Failed requests are answered with an error map:

	{"id": "r5", "e": "unknown action: fly", "c": 400}

A strategy that fails while computing matches (a failing property getter,
an unreadable directory) does not fail the request: it is logged and
answered as an empty completion.
*/
package server

// Request is the union of every action's fields
type Request struct {
	ID       string   `msgpack:"id"`
	Action   string   `msgpack:"action"`
	Line     string   `msgpack:"line,omitempty"`
	Cursor   *int     `msgpack:"cursor,omitempty"`
	Block    string   `msgpack:"block,omitempty"`
	Mode     string   `msgpack:"mode,omitempty"`
	Magic    *bool    `msgpack:"magic,omitempty"`
	ArgSpec  *ArgSpec `msgpack:"argspec,omitempty"`
	Match    string   `msgpack:"match,omitempty"`
	Strategy string   `msgpack:"strategy,omitempty"`
	Name     string   `msgpack:"name,omitempty"`
	Expr     string   `msgpack:"expr,omitempty"`
	Limit    *int     `msgpack:"l,omitempty"`
}

// ArgSpec describes the call the cursor is in
type ArgSpec struct {
	Func   string   `msgpack:"func"`
	Args   []string `msgpack:"args"`
	KwOnly []string `msgpack:"kwonly,omitempty"`
}

// Match is one candidate: the raw value to substitute and its display form
type Match struct {
	Value   string `msgpack:"v"`
	Display string `msgpack:"d"`
}

// CompletionResponse answers complete
type CompletionResponse struct {
	ID             string  `msgpack:"id"`
	Matches        []Match `msgpack:"m"`
	Count          int     `msgpack:"c"`
	Strategy       string  `msgpack:"s,omitempty"`
	Start          int     `msgpack:"start"`
	End            int     `msgpack:"end"`
	ShownBeforeTab bool    `msgpack:"shown_before_tab"`
	TimeTaken      int64   `msgpack:"t"`
}

// SubstituteResponse answers substitute
type SubstituteResponse struct {
	ID     string `msgpack:"id"`
	Line   string `msgpack:"line"`
	Cursor int    `msgpack:"cursor"`
}

// StatusResponse answers bind, history, reset, health and config
type StatusResponse struct {
	ID      string `msgpack:"id"`
	Status  string `msgpack:"status"`
	Session string `msgpack:"session,omitempty"`
	Repr    string `msgpack:"repr,omitempty"`
	History int    `msgpack:"history,omitempty"`
	Names   int    `msgpack:"names,omitempty"`
	Mode    string `msgpack:"mode,omitempty"`
}

// CompletionError holds basic error information for failed requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
