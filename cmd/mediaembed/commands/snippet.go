// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/spf13/pflag"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/embedding"
	"github.com/ou-media/mediaembed/lib/synth"
)

type snippetFlags struct {
	commonFlags
	options  synth.Options
	language string
}

func snippetCommand(streams Streams) *cli.Command {
	var flags snippetFlags

	return &cli.Command{
		Name:    "snippet",
		Summary: "Package one code block and print its embedding",
		Description: `Package the code in FILE (or stdin for "-") as an artifact, publish it
into the output directory, and print the embeddable region.

The language defaults to the one chroma associates with FILE's name.
With --src no code is read: the referenced asset is published (or, for
a URL, passed through) and embedded as is.`,
		Usage: "mediaembed snippet [flags] FILE|-",
		Examples: []cli.Example{
			{
				Description: "Static syntax-highlighted page, dark theme",
				Command:     "mediaembed snippet --viewer highlight --theme dark fit.py",
			},
			{
				Description: "Shinylive app bundle from stdin",
				Command:     "cat app.py | mediaembed snippet --type shinylite-py --lang python -",
			},
			{
				Description: "Embed an existing page",
				Command:     "mediaembed snippet --src https://example.org/demo.html",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("snippet", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&flags.options.Type, "type", "", "artifact type: code, thebelite, shinylite-py, Xshinylite-py")
			flagSet.StringVar(&flags.options.Viewer, "viewer", "", "static viewer: th_hack, codesnippet, highlight")
			flagSet.StringVar(&flags.options.Theme, "theme", "", "light or dark")
			flagSet.StringVar(&flags.options.Keep, "keep", "", "retention tag passed to the embedding")
			flagSet.StringVar(&flags.options.Height, "height", "", "frame height (computed for static output when empty)")
			flagSet.StringVar(&flags.options.Width, "width", "", "frame width")
			flagSet.StringVar(&flags.options.Caption, "caption", "", "frame caption")
			flagSet.StringVar(&flags.options.Src, "src", "", "embed an existing asset instead of packaging code")
			flagSet.StringVar(&flags.language, "lang", "", "language of the code (default: guessed from FILE)")
			return flagSet
		},
		Run: func(args []string) error {
			if flags.options.Src == "" && len(args) != 1 {
				return cli.Validation("exactly one FILE (or - for stdin) is required")
			}
			if flags.options.Src != "" && len(args) != 0 {
				return cli.Validation("--src and FILE are mutually exclusive")
			}
			kit, err := flags.setup(streams)
			if err != nil {
				return err
			}

			var block synth.ContentBlock
			if len(args) == 1 {
				block, err = readBlock(args[0], flags.language, streams.Stdin)
				if err != nil {
					return err
				}
			}

			options := flags.options
			defaults := kit.defaults()
			options.Type = cmp.Or(options.Type, defaults.Type)
			options.Viewer = cmp.Or(options.Viewer, defaults.Viewer)
			options.Theme = cmp.Or(options.Theme, defaults.Theme)
			options.Keep = cmp.Or(options.Keep, defaults.Keep)

			descriptor, err := kit.synthesizer.Synthesize(block, options)
			if errors.Is(err, synth.ErrNoSource) {
				return cli.Validation("%s is empty", args[0])
			}
			if errors.Is(err, fs.ErrNotExist) {
				return cli.NotFound("%w", err)
			}
			if err != nil {
				return cli.Internal("%w", err)
			}
			kit.logger.Info("artifact published",
				"href", descriptor.Href,
				"digest", descriptor.Digest.String(),
				"interactive", descriptor.Interactive.String(),
			)

			return printRegion(streams.Stdout, kit, embedding.ForCode(descriptor, options))
		},
	}
}

// readBlock reads the code of path ("-" for stdin) into a content block.
func readBlock(path, language string, stdin io.Reader) (synth.ContentBlock, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return synth.ContentBlock{}, cli.NotFound("%s does not exist", path)
	}
	if err != nil {
		return synth.ContentBlock{}, cli.Internal("reading %s: %w", path, err)
	}

	if language == "" && path != "-" {
		language = guessLanguage(path)
	}
	text := strings.TrimSuffix(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return synth.ContentBlock{Language: language, Lines: lines}, nil
}

// guessLanguage names the chroma lexer matching path, lowercased, or
// returns "" when none matches.
func guessLanguage(path string) string {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}

func printRegion(w io.Writer, kit *toolkit, region embedding.Region) error {
	rendered, err := embedding.Render(w, kit.format, region, kit.logger)
	if err != nil {
		return cli.Internal("writing region: %w", err)
	}
	if rendered {
		fmt.Fprintln(w)
	}
	return nil
}
