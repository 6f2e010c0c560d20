// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/audio"
	"github.com/ou-media/mediaembed/lib/config"
	"github.com/ou-media/mediaembed/lib/embedding"
	"github.com/ou-media/mediaembed/lib/publish"
	"github.com/ou-media/mediaembed/lib/resource"
	"github.com/ou-media/mediaembed/lib/synth"
)

// commonFlags are accepted by every command that packages artifacts.
type commonFlags struct {
	configPath string
	logLevel   string
	outputDir  string
	format     string
}

func (c *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.configPath, "config", "", "config file (default: $MEDIAEMBED_CONFIG, else built-in defaults)")
	flagSet.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.StringVarP(&c.outputDir, "out", "o", "", "output directory (overrides paths.output)")
	flagSet.StringVar(&c.format, "format", string(embedding.FormatHTML), "output format: html or epub")
}

// toolkit is everything a command needs to package artifacts.
type toolkit struct {
	config      *config.Config
	logger      *slog.Logger
	format      embedding.Format
	store       *resource.Store
	publisher   *publish.Publisher
	synthesizer *synth.Synthesizer
	audio       *audio.Resolver
}

// setup loads configuration, applies flag overrides, and wires the
// packaging components.
func (c *commonFlags) setup(streams Streams) (*toolkit, error) {
	level, err := cli.ParseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}
	logger := streams.NewLogger(level)

	format, err := embedding.ParseFormat(c.format)
	if err != nil {
		return nil, cli.Validation("%v", err)
	}
	if format != embedding.FormatHTML && format != embedding.FormatEPUB {
		return nil, cli.Validation("--format must be html or epub, got %q", c.format)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if c.outputDir != "" {
		cfg.Paths.Output = c.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, cli.Internal("%w", err)
	}

	store, err := resource.Embedded()
	if err != nil {
		return nil, cli.Internal("opening resource bundle: %w", err)
	}
	publisher := publish.New(cfg.Paths.Output, logger)
	synthesizer, err := synth.New(store, publisher,
		synth.WithStagingDir(cfg.Paths.Staging),
		synth.WithSourceDir(cfg.Paths.Source),
		synth.WithLogger(logger),
		synth.WithLayout(cfg.Layout.LineHeight, cfg.Layout.FrameOffset),
		synth.WithHighlightStyles(cfg.Highlight.Light, cfg.Highlight.Dark),
		synth.WithArchiveLevel(cfg.Archive.DeflateLevel()),
	)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}

	return &toolkit{
		config:      cfg,
		logger:      logger,
		format:      format,
		store:       store,
		publisher:   publisher,
		synthesizer: synthesizer,
		audio: &audio.Resolver{
			Publisher: publisher,
			SourceDir: cfg.Paths.Source,
			Logger:    logger,
		},
	}, nil
}

// loadConfig reads --config, then $MEDIAEMBED_CONFIG, and otherwise
// returns the built-in defaults.
func (c *commonFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case c.configPath != "":
		cfg, err = config.LoadFile(c.configPath)
	case os.Getenv("MEDIAEMBED_CONFIG") != "":
		cfg, err = config.Load()
	default:
		return config.Default(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, cli.NotFound("config file: %w", err)
	}
	if err != nil {
		return nil, cli.Validation("loading config: %w", err)
	}
	return cfg, nil
}

// defaults returns the code directive defaults from configuration.
func (t *toolkit) defaults() synth.Options {
	return synth.Options{
		Type:   t.config.Defaults.Type,
		Viewer: t.config.Defaults.Viewer,
		Theme:  t.config.Defaults.Theme,
		Keep:   t.config.Defaults.Keep,
	}
}
