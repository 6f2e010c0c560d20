// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/resource"
	"github.com/ou-media/mediaembed/lib/version"
)

func versionCommand(streams Streams) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			store, err := resource.Embedded()
			if err != nil {
				return cli.Internal("opening resource bundle: %w", err)
			}
			fmt.Fprintf(streams.Stdout, "mediaembed %s\n", version.Full(store.Templates(), store.Runtimes()))
			return nil
		},
	}
}
