// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/cmd/mediaembed/commands"
)

func main() {
	os.Exit(exitCode(run(), os.Stderr))
}

func run() error {
	return commands.Root(commands.StandardStreams()).Execute(os.Args[1:])
}

// exitCode reports err and returns the process status. Commands that
// print their own outcome (like build) return an ExitError; no
// redundant "error:" line is printed for those.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var toolErr *cli.ToolError
	if errors.As(err, &toolErr) {
		return toolErr.ExitCode()
	}
	return 1
}
