// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/pflag"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/archive"
	"github.com/ou-media/mediaembed/lib/publish"
)

func inspectCommand(streams Streams) *cli.Command {
	var digests bool

	return &cli.Command{
		Name:    "inspect",
		Aliases: []string{"ls"},
		Summary: "List the entries of a runtime bundle",
		Description: `List the entries of a runtime bundle archive in archive order. With
--digest each entry is prefixed by the BLAKE3 digest of its content,
which is how reproducible bundles are compared across builds.`,
		Usage: "mediaembed inspect [flags] ARCHIVE",
		Examples: []cli.Example{
			{
				Description: "Compare two builds of the same bundle",
				Command:     "diff <(mediaembed inspect --digest a/JL-x.zip) <(mediaembed inspect --digest b/JL-y.zip)",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&digests, "digest", false, "print the BLAKE3 digest of each entry")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("exactly one ARCHIVE is required")
			}
			path := args[0]
			names, err := archive.List(path)
			if errors.Is(err, fs.ErrNotExist) {
				return cli.NotFound("%s does not exist", path)
			}
			if err != nil {
				return cli.Internal("%w", err)
			}
			for _, name := range names {
				if !digests {
					fmt.Fprintln(streams.Stdout, name)
					continue
				}
				content, err := archive.ReadEntry(path, name)
				if err != nil {
					return cli.Internal("%w", err)
				}
				fmt.Fprintf(streams.Stdout, "%s  %s\n", publish.Sum(content), name)
			}
			return nil
		},
	}
}
