// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/pflag"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/audio"
	"github.com/ou-media/mediaembed/lib/embedding"
)

type audioFlags struct {
	commonFlags
	options audio.Options
	caption string
}

func audioCommand(streams Streams) *cli.Command {
	var flags audioFlags

	return &cli.Command{
		Name:    "audio",
		Summary: "Publish audio sources and print the audio element",
		Description: `Publish each local SRC into the output directory and print an <audio>
element with one <source> per SRC. URLs are referenced as is. A
missing local file is reported as a warning and still referenced.`,
		Usage: "mediaembed audio [flags] SRC...",
		Examples: []cli.Example{
			{
				Description: "Two encodings of one clip, loaded lazily",
				Command:     "mediaembed audio --preload none media/intro.mp3 media/intro.ogg",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("audio", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&flags.options.Autoplay, "autoplay", false, "start playback automatically")
			flagSet.BoolVar(&flags.options.NoControls, "nocontrols", false, "hide the player controls")
			flagSet.BoolVar(&flags.options.Loop, "loop", false, "loop playback")
			flagSet.BoolVar(&flags.options.Muted, "muted", false, "start muted")
			flagSet.StringVar(&flags.options.Preload, "preload", "auto", "preload hint: auto, metadata, none")
			flagSet.StringVar(&flags.options.Class, "class", "", "CSS class of the element")
			flagSet.StringVar(&flags.caption, "caption", "", "figure caption")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return cli.Validation("at least one SRC is required")
			}
			kit, err := flags.setup(streams)
			if err != nil {
				return err
			}
			descriptor := kit.audio.Resolve(args, flags.options)
			return printRegion(streams.Stdout, kit, embedding.ForAudio(descriptor, flags.caption))
		},
	}
}
