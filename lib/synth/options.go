// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// Viewer names accepted by the "viewer" option. Anything else selects
// the template viewer.
const (
	ViewerTemplate    = "th_hack"
	ViewerCodeSnippet = "codesnippet"
	ViewerHighlight   = "highlight"
)

// Themes accepted by the "theme" option.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultKeep is the retention policy when none is given.
const DefaultKeep = "never"

// ContentBlock is the directive body and its language argument.
type ContentBlock struct {
	Language string
	Lines    []string
}

// Text returns the lines joined with newlines.
func (b ContentBlock) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Options are the presentation options of one embedding request.
type Options struct {
	// Src references an existing asset (local path or absolute URL).
	// When set, no synthesis happens.
	Src string

	// Width and Height are CSS lengths or bare numbers. An empty Height
	// is computed for static renderings.
	Width  string
	Height string

	Caption string

	// Type selects the artifact [Kind]; see [ParseKind].
	Type string

	// Viewer selects the static rendering strategy.
	Viewer string

	// Theme is "light" or "dark".
	Theme string

	// Keep is a retention tag passed through to the embedding.
	Keep string
}

// Normalize fills defaults and coerces invalid values, logging a
// warning for each coercion.
func (o Options) Normalize(logger *slog.Logger) Options {
	if o.Type == "" {
		o.Type = KindCode.String()
	}
	o.Viewer = strings.ToLower(o.Viewer)
	if o.Viewer == "" {
		o.Viewer = ViewerTemplate
	}
	o.Theme = strings.ToLower(o.Theme)
	switch o.Theme {
	case ThemeLight, ThemeDark:
	case "":
		o.Theme = ThemeLight
	default:
		mediaerr.Warn(logger, mediaerr.InvalidOptionValue,
			"theme is not an accepted value, defaulting to light", "theme", o.Theme)
		o.Theme = ThemeLight
	}
	if o.Keep == "" {
		o.Keep = DefaultKeep
	}
	return o
}

// IsRemote reports whether reference is an absolute URL with a network
// location. Everything else is a path relative to the authoring tree.
func IsRemote(reference string) bool {
	parsed, err := url.Parse(reference)
	if err != nil {
		return false
	}
	return parsed.Host != ""
}
