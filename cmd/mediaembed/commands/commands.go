// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the mediaembed command tree.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
)

// Streams are the process streams commands read and write. Tests
// substitute buffers.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer

	// NewLogger builds the command logger at the requested level.
	NewLogger func(level slog.Level) *slog.Logger
}

// StandardStreams returns the process stdin and stdout with the
// terminal-aware command logger.
func StandardStreams() Streams {
	return Streams{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		NewLogger: cli.NewCommandLogger,
	}
}

// Root builds and returns the complete command tree.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name: "mediaembed",
		Description: `mediaembed: package code and audio for embedding in web documents.

Code blocks become static HTML pages, plain-text snippets, or
self-contained interactive bundles (thebe-lite, shinylive); audio
references become <audio> elements. Each artifact is published into the
output tree and referenced by an embeddable region.`,
		Subcommands: []*cli.Command{
			buildCommand(streams),
			snippetCommand(streams),
			audioCommand(streams),
			inspectCommand(streams),
			versionCommand(streams),
		},
		Examples: []cli.Example{
			{
				Description: "Render every Markdown document under a book directory",
				Command:     "mediaembed build --config mediaembed.yaml book/",
			},
			{
				Description: "Package one script as an interactive JupyterLite bundle",
				Command:     "mediaembed snippet --type thebelite analysis.py",
			},
			{
				Description: "Emit the audio element for a clip",
				Command:     "mediaembed audio --preload metadata media/intro.mp3",
			},
			{
				Description: "List the contents of a runtime bundle",
				Command:     "mediaembed inspect _build/html/JL-2f1c.zip",
			},
		},
	}
}
