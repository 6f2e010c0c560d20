// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package document renders Markdown sources containing embedding
// directives into HTML.
//
// Directives are fenced code blocks whose info string starts with a
// braced name:
//
//	```{ou-codestyle} python
//	:type: thebelite
//	:height: 300
//
//	print("hello")
//	```
//
//	```{ou-audio} media/clip.mp3 https://cdn.example.org/clip.ogg
//	:preload: metadata
//	:autoplay:
//
//	Episode one, *introductions*.
//	```
//
// Code directives go through a [synth.Synthesizer] and audio
// directives through an [audio.Resolver]; both results are emitted by
// [embedding.Render]. A directive that fails is logged and replaced by
// an HTML comment so the rest of the document still renders.
package document

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/ou-media/mediaembed/lib/audio"
	"github.com/ou-media/mediaembed/lib/embedding"
	"github.com/ou-media/mediaembed/lib/mediaerr"
	"github.com/ou-media/mediaembed/lib/synth"
)

// CodeSynthesizer packages code blocks. Implemented by
// *synth.Synthesizer.
type CodeSynthesizer interface {
	Synthesize(block synth.ContentBlock, options synth.Options) (*synth.Descriptor, error)
}

// AudioResolver resolves audio sources. Implemented by *audio.Resolver.
type AudioResolver interface {
	Resolve(sources []string, options audio.Options) *audio.Descriptor
}

// Report counts what happened to the directives of one document.
type Report struct {
	Rendered int
	Skipped  int
	Failed   int
}

// Add accumulates other into r.
func (r *Report) Add(other Report) {
	r.Rendered += other.Rendered
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// Builder renders documents. A Builder is safe for concurrent use when
// its Synthesizer and Audio resolver are.
type Builder struct {
	Synthesizer CodeSynthesizer
	Audio       AudioResolver

	// Format is the output format. Empty means HTML.
	Format embedding.Format

	// Defaults fill code directive options the author left unset.
	Defaults synth.Options

	// Base is the path from the rendered page back to the output root,
	// such as "../" for a page one directory down. Artifacts are
	// published at the output root, so local references are prefixed
	// with it.
	Base string

	Logger *slog.Logger
}

var codeOptions = []string{"src", "width", "height", "caption", "type", "viewer", "theme", "keep"}

var audioOptions = []string{"autoplay", "nocontrols", "loop", "muted", "preload", "class"}

// Build renders source, a Markdown document identified by name in log
// records. The returned error reports only failures of the output
// itself; directive failures are counted in the Report.
func (b *Builder) Build(source []byte, name string) ([]byte, Report, error) {
	directives := &directiveRenderer{
		builder:  b,
		document: name,
		logger:   b.logger().With("document", name),
		fallback: standardFencedCodeBlock(),
	}
	markdown := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			renderer.WithNodeRenderers(util.Prioritized(directives, 100)),
		),
	)

	var output bytes.Buffer
	if err := markdown.Convert(source, &output); err != nil {
		return nil, directives.report, fmt.Errorf("rendering %s: %w", name, err)
	}
	return output.Bytes(), directives.report, nil
}

func (b *Builder) format() embedding.Format {
	if b.Format == "" {
		return embedding.FormatHTML
	}
	return b.Format
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// directiveRenderer overrides fenced code block rendering for one
// Build call.
type directiveRenderer struct {
	builder  *Builder
	document string
	logger   *slog.Logger
	fallback renderer.NodeRendererFunc
	report   Report
}

func (r *directiveRenderer) RegisterFuncs(registerer renderer.NodeRendererFuncRegisterer) {
	registerer.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *directiveRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	block := node.(*ast.FencedCodeBlock)
	if block.Info == nil {
		return r.fallback(w, source, node, entering)
	}
	name, arguments, ok := ParseInfo(string(block.Info.Segment.Value(source)))
	if !ok || (name != DirectiveCodeStyle && name != DirectiveAudio) {
		return r.fallback(w, source, node, entering)
	}
	if !entering {
		return ast.WalkContinue, nil
	}

	directive := &Directive{
		Name:      name,
		Arguments: arguments,
		Line:      bytes.Count(source[:block.Info.Segment.Start], []byte("\n")) + 1,
	}
	lines := block.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		directive.Body = append(directive.Body, strings.TrimRight(string(segment.Value(source)), "\r\n"))
	}

	region, err := r.region(directive)
	if err != nil {
		r.report.Failed++
		r.logger.Error("embedding failed", "directive", directive.Name, "line", directive.Line, "error", err)
		fmt.Fprintf(w, "<!-- %s embedding failed at line %d -->\n", directive.Name, directive.Line)
		return ast.WalkSkipChildren, nil
	}

	rendered, err := embedding.Render(w, r.builder.format(), region.Rebase(r.builder.Base), r.logger)
	if err != nil {
		return ast.WalkStop, err
	}
	if rendered {
		r.report.Rendered++
		if err := w.WriteByte('\n'); err != nil {
			return ast.WalkStop, err
		}
	} else {
		r.report.Skipped++
	}
	return ast.WalkSkipChildren, nil
}

func (r *directiveRenderer) region(directive *Directive) (embedding.Region, error) {
	options, body, err := ParseBody(directive.Body)
	if err != nil {
		return embedding.Region{}, err
	}
	directive.Options = options
	directive.Body = body

	switch directive.Name {
	case DirectiveAudio:
		return r.audioRegion(directive)
	default:
		return r.codeRegion(directive)
	}
}

func (r *directiveRenderer) codeRegion(directive *Directive) (embedding.Region, error) {
	if r.builder.Synthesizer == nil {
		return embedding.Region{}, errors.New("no synthesizer configured")
	}
	r.warnUnknown(directive, codeOptions)

	options := synth.Options{
		Src:     directive.Options["src"],
		Width:   directive.Options["width"],
		Height:  directive.Options["height"],
		Caption: directive.Options["caption"],
		Type:    cmp.Or(directive.Options["type"], r.builder.Defaults.Type),
		Viewer:  cmp.Or(directive.Options["viewer"], r.builder.Defaults.Viewer),
		Theme:   cmp.Or(directive.Options["theme"], r.builder.Defaults.Theme),
		Keep:    cmp.Or(directive.Options["keep"], r.builder.Defaults.Keep),
	}
	var language string
	if len(directive.Arguments) > 0 {
		language = directive.Arguments[0]
	}
	block := synth.ContentBlock{Language: language, Lines: directive.Body}

	descriptor, err := r.builder.Synthesizer.Synthesize(block, options)
	if err != nil {
		return embedding.Region{}, err
	}
	return embedding.ForCode(descriptor, options), nil
}

func (r *directiveRenderer) audioRegion(directive *Directive) (embedding.Region, error) {
	if r.builder.Audio == nil {
		return embedding.Region{}, errors.New("no audio resolver configured")
	}
	if len(directive.Arguments) == 0 {
		return embedding.Region{}, errors.New("audio directive names no source")
	}
	r.warnUnknown(directive, audioOptions)

	options := audio.Options{
		Autoplay:   r.flag(directive, "autoplay"),
		NoControls: r.flag(directive, "nocontrols"),
		Loop:       r.flag(directive, "loop"),
		Muted:      r.flag(directive, "muted"),
		Preload:    directive.Options["preload"],
		Class:      directive.Options["class"],
	}
	descriptor := r.builder.Audio.Resolve(directive.Arguments, options)
	caption, legend := Caption(strings.Join(directive.Body, "\n"))
	region := embedding.ForAudio(descriptor, caption)
	if caption != "" && legend != "" {
		var rendered bytes.Buffer
		if err := legendMarkdown().Convert([]byte(legend), &rendered); err != nil {
			return embedding.Region{}, fmt.Errorf("rendering legend: %w", err)
		}
		region.Legend = strings.TrimSpace(rendered.String())
	}
	return region, nil
}

// flag reads a flag option. Presence without a value means true.
func (r *directiveRenderer) flag(directive *Directive, key string) bool {
	value, present := directive.Options[key]
	if !present {
		return false
	}
	if value == "" {
		return true
	}
	set, err := strconv.ParseBool(value)
	if err != nil {
		mediaerr.Warn(r.logger, mediaerr.InvalidOptionValue,
			"flag option value is not a boolean, treating as set",
			"option", key, "value", value, "line", directive.Line)
		return true
	}
	return set
}

func (r *directiveRenderer) warnUnknown(directive *Directive, accepted []string) {
	for _, key := range unknownOptions(directive.Options, accepted...) {
		mediaerr.Warn(r.logger, mediaerr.InvalidOptionValue,
			"unknown directive option ignored",
			"directive", directive.Name, "option", key, "line", directive.Line)
	}
}

// Caption renders the first paragraph of body, parsed as Markdown, as
// plain text, and returns the Markdown that follows that paragraph as
// legend. Both are empty when body has no paragraph.
func Caption(body string) (caption, legend string) {
	source := []byte(body)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var paragraph ast.Node
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && node.Kind() == ast.KindParagraph {
			paragraph = node
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if paragraph == nil {
		return "", ""
	}
	if lines := paragraph.Lines(); lines.Len() > 0 {
		legend = strings.TrimSpace(string(source[lines.At(lines.Len()-1).Stop:]))
	}

	var plain strings.Builder
	_ = ast.Walk(paragraph, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := node.(type) {
		case *ast.Text:
			plain.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				plain.WriteByte(' ')
			}
		case *ast.String:
			plain.Write(node.Value)
		case *ast.CodeSpan:
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if segment, ok := child.(*ast.Text); ok {
					plain.Write(segment.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(plain.String()), legend
}

// legendMarkdown renders audio legends. Directive fences inside a
// legend render as ordinary code.
func legendMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
}

// standardFencedCodeBlock returns the stock HTML renderer's function
// for fenced code blocks, so ordinary fences render unchanged.
func standardFencedCodeBlock() renderer.NodeRendererFunc {
	capture := &captureRegisterer{kind: ast.KindFencedCodeBlock}
	html.NewRenderer(html.WithXHTML()).RegisterFuncs(capture)
	return capture.function
}

type captureRegisterer struct {
	kind     ast.NodeKind
	function renderer.NodeRendererFunc
}

func (c *captureRegisterer) Register(kind ast.NodeKind, function renderer.NodeRendererFunc) {
	if kind == c.kind {
		c.function = function
	}
}
