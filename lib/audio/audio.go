// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package audio resolves audio embeddings: source MIME types, player
// flags, and publication of local audio files.
//
// Nothing in this package fails an embedding. An unknown file extension
// yields an empty MIME type, an invalid preload value becomes "auto",
// and a missing local file is left unpublished; each is logged as a
// warning and the embedding proceeds.
package audio

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/ou-media/mediaembed/lib/mediaerr"
	"github.com/ou-media/mediaembed/lib/publish"
)

// mimeTypes maps lowercase file extensions to the type attribute of a
// <source> element.
var mimeTypes = map[string]string{
	".mp3": "audio/mpeg",
}

// Preload values accepted by the <audio> element.
const (
	PreloadAuto     = "auto"
	PreloadMetadata = "metadata"
	PreloadNone     = "none"
)

// MimeType returns the MIME type for src's extension, or "" with a
// warning when the extension is not supported.
func MimeType(src string, logger *slog.Logger) string {
	extension := strings.ToLower(path.Ext(sourcePath(src)))
	mimeType, ok := mimeTypes[extension]
	if !ok {
		mediaerr.Warn(logger, mediaerr.InvalidOptionValue,
			"audio file type is not a supported format, defaulting to an empty type",
			"src", src, "extension", extension)
	}
	return mimeType
}

// NormalizePreload validates a preload option. Empty means the default
// ("auto"); any other value outside {auto, metadata, none} is coerced to
// "auto" with a warning.
func NormalizePreload(value string, logger *slog.Logger) string {
	switch value {
	case PreloadAuto, PreloadMetadata, PreloadNone:
		return value
	case "":
		return PreloadAuto
	}
	mediaerr.Warn(logger, mediaerr.InvalidOptionValue,
		"preload is not an accepted value, defaulting to auto", "preload", value)
	return PreloadAuto
}

// Options are the author-facing flags of an audio embedding.
type Options struct {
	Autoplay   bool
	NoControls bool
	Loop       bool
	Muted      bool
	Preload    string
	Class      string
}

// Source is one playable source of an audio element.
type Source struct {
	Path     string
	MimeType string
	Remote   bool
}

// Descriptor is the resolved audio embedding.
type Descriptor struct {
	Sources  []Source
	Autoplay bool
	Controls bool
	Loop     bool
	Muted    bool
	Preload  string
	Class    string
}

// Label names the embedding in log messages: its first source.
func (d *Descriptor) Label() string {
	if len(d.Sources) == 0 {
		return ""
	}
	return d.Sources[0].Path
}

// Resolver publishes local audio files and builds descriptors.
type Resolver struct {
	// Publisher copies local sources into the output directory. Nil
	// disables publishing.
	Publisher *publish.Publisher

	// SourceDir is the authoring tree root that local sources are
	// resolved against.
	SourceDir string

	Logger *slog.Logger
}

// Resolve builds the descriptor for sources (one <source> each) with
// the given options. It never fails; problems are logged.
func (r *Resolver) Resolve(sources []string, options Options) *Descriptor {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	descriptor := &Descriptor{
		Autoplay: options.Autoplay,
		Controls: !options.NoControls,
		Loop:     options.Loop,
		Muted:    options.Muted,
		Preload:  NormalizePreload(options.Preload, logger),
		Class:    options.Class,
	}
	for _, src := range sources {
		source := Source{
			Path:     src,
			MimeType: MimeType(src, logger),
			Remote:   isRemote(src),
		}
		if !source.Remote {
			source.Path = r.publishLocal(src, logger)
		}
		descriptor.Sources = append(descriptor.Sources, source)
	}
	return descriptor
}

// publishLocal copies src into the output directory and returns the
// path it is published under. Relative sources keep their path; an
// absolute file is published under its base name. When nothing is
// copied the reference is left as written.
func (r *Resolver) publishLocal(src string, logger *slog.Logger) string {
	if r.Publisher == nil {
		return src
	}
	local := filepath.FromSlash(src)
	relative := src
	if filepath.IsAbs(local) {
		relative = filepath.Base(local)
	} else if r.SourceDir != "" {
		local = filepath.Join(r.SourceDir, local)
	}
	if _, err := r.Publisher.Destination(relative); err != nil {
		mediaerr.Warn(logger, mediaerr.InvalidOptionValue,
			"audio source is outside the output directory, no file copied", "src", src)
		return src
	}
	if _, err := r.Publisher.Publish(local, relative); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			mediaerr.Warn(logger, mediaerr.MissingSourceFile,
				"audio source file does not exist, no file copied", "src", src)
			return src
		}
		logger.Error("publishing audio source failed", "src", src, "error", err)
		return src
	}
	return relative
}

// sourcePath strips the query and fragment of URL sources so the
// extension lookup sees only the path.
func sourcePath(src string) string {
	parsed, err := url.Parse(src)
	if err != nil || parsed.Host == "" {
		return src
	}
	return parsed.Path
}

func isRemote(src string) bool {
	parsed, err := url.Parse(src)
	return err == nil && parsed.Host != ""
}
