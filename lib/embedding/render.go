// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// Format is an output format of the document build.
type Format string

const (
	FormatHTML    Format = "html"
	FormatEPUB    Format = "epub"
	FormatLaTeX   Format = "latex"
	FormatMan     Format = "man"
	FormatTexinfo Format = "texinfo"
	FormatText    Format = "text"
)

var formats = []Format{FormatHTML, FormatEPUB, FormatLaTeX, FormatMan, FormatTexinfo, FormatText}

// ParseFormat returns the Format named by name.
func ParseFormat(name string) (Format, error) {
	for _, format := range formats {
		if strings.EqualFold(name, string(format)) {
			return format, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Render writes region in format to w. For formats that cannot embed
// the region it writes nothing, logs a warning naming the artifact, and
// returns rendered == false with a nil error.
func Render(w io.Writer, format Format, region Region, logger *slog.Logger) (rendered bool, err error) {
	if format != FormatHTML {
		mediaerr.Warn(logger, mediaerr.UnsupportedOutputFormat,
			fmt.Sprintf("%s %s: unsupported output format (node skipped)", region.kindName(), region.Label),
			"format", string(format))
		return false, nil
	}

	var builder strings.Builder
	switch region.Element {
	case ElementAudio:
		renderAudio(&builder, region)
	default:
		renderFrame(&builder, region)
	}
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return false, err
	}
	return true, nil
}

func (r Region) kindName() string {
	if r.Element == ElementAudio {
		return "audio"
	}
	return "codestyle"
}

func renderFrame(builder *strings.Builder, region Region) {
	builder.WriteString("<iframe")
	writeAttributes(builder, region)
	writeAttribute(builder, "name", FrameName)
	builder.WriteString("></iframe>")
}

func renderAudio(builder *strings.Builder, region Region) {
	if region.Caption != "" {
		builder.WriteString("<figure>")
	}
	builder.WriteString("<audio")
	writeAttributes(builder, region)
	builder.WriteString(">")
	for _, source := range region.Sources {
		builder.WriteString("<source")
		writeAttribute(builder, "src", source.Path)
		if source.MimeType != "" {
			writeAttribute(builder, "type", source.MimeType)
		}
		builder.WriteString(">")
	}
	builder.WriteString("</audio>")
	if region.Caption != "" {
		builder.WriteString("<figcaption>")
		builder.WriteString(html.EscapeString(region.Caption))
		builder.WriteString("</figcaption>")
		if region.Legend != "" {
			builder.WriteString(`<div class="legend">`)
			builder.WriteString(region.Legend)
			builder.WriteString("</div>")
		}
		builder.WriteString("</figure>")
	}
}

func writeAttributes(builder *strings.Builder, region Region) {
	for _, attribute := range region.Attributes.All() {
		writeAttribute(builder, attribute.Key, attribute.Value)
	}
	if region.Class != "" {
		writeAttribute(builder, "class", region.Class)
	}
}

func writeAttribute(builder *strings.Builder, key, value string) {
	builder.WriteByte(' ')
	builder.WriteString(key)
	builder.WriteString(`="`)
	builder.WriteString(html.EscapeString(value))
	builder.WriteByte('"')
}
