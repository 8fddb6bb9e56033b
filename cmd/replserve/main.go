// Copyright 2025 The ReplServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the replserve completion server and its debug CLI.

replserve completes what a user types into an interactive Python-style
shell: attribute names, dictionary keys, importable modules, file paths,
keyword arguments, special method names and names visible in the session
namespace. It runs as a MessagePack IPC server so a shell front end can
ask for completions on every keystroke.

# Usage

Start the server with default settings:

	replserve serve

Use a custom config file and enable debug logging (written to stderr):

	replserve serve --config ./replserve.toml -d

Try completions interactively:

	replserve cli

Scan the module search paths and write the module cache used for a warm
start:

	replserve index

Print the active config file, or overwrite it with defaults:

	replserve config
	replserve config --reset

# Configuration

The config file is created with defaults at
~/.config/replserve/config.toml when missing:

	[completion]
	mode = "simple"
	complete_magic_methods = true
	max_matches = 64

	[imports]
	search_paths = []
	cache_file = "modules.msgpack"
	scan_ttl_seconds = 300
	max_depth = 4
	watch = false

	[server]
	max_line_length = 4096
	max_history = 1000

Module search paths are PYTHONPATH followed by imports.search_paths.

# IPC Protocol

See package server for the message format:

	{"id": "r1", "action": "complete", "line": "os.pa", "cursor": 5}
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "replserve"
	gh      = "https://github.com/bastiangx/replserve"
)

// main wires signals to a context and hands over to the command tree.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error(err)
		fmt.Fprintln(os.Stderr, "use -h or --help to see available options")
		os.Exit(1)
	}
}
