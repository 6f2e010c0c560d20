// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for mediaembed.
//
// Configuration is loaded from a single file specified by either the
// MEDIAEMBED_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Commands that run without a config file
// use [Default].
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production without an explicit section
// compresses runtime bundles at the best deflate level.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${MEDIAEMBED_SOURCE}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Layout, Defaults, Highlight, Archive
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other mediaembed packages.
package config
