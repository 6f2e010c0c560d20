// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package synth decides how an inline code block is packaged for the
// browser and produces the artifact.
//
// [Synthesizer.Synthesize] dispatches in priority order:
//
//  1. A local Src is published unchanged.
//  2. A block with content is packaged according to its [Kind]:
//     thebelite and shinylite-py produce zip bundles of a runtime plus an
//     entry point, Xshinylite-py writes the shinylive app manifest as a
//     plain JSON file, and everything else (including unrecognised type
//     names) renders a static page or a raw-text snippet.
//  3. A remote Src with no content is referenced as-is.
//  4. A request with neither Src nor content fails with [ErrNoSource].
//
// Synthesized files are written to a staging directory under a random
// 32-hex-digit name and then handed to a [Publisher]. The staging
// directory is the only state shared between calls, and random names
// keep concurrent synthesizers from colliding in it. A Synthesizer is
// immutable after [New] and safe for concurrent use.
package synth

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"

	"github.com/ou-media/mediaembed/lib/archive"
	"github.com/ou-media/mediaembed/lib/mediaerr"
	"github.com/ou-media/mediaembed/lib/publish"
	"github.com/ou-media/mediaembed/lib/resource"
)

// ErrNoSource is returned for a request with neither Src nor content.
var ErrNoSource = errors.New("embedding request has neither src nor content")

// Layout defaults, in display units (CSS pixels).
const (
	DefaultLineHeight  = 15
	DefaultFrameOffset = 200
)

// Entry names appended to runtime bundles.
const (
	EntryIndex    = "index.html"
	EntryManifest = "app.json"
)

// Publisher places a staged file at a path relative to the output
// directory. *publish.Publisher implements it.
type Publisher interface {
	Publish(source, relative string) (publish.Digest, error)
}

// Descriptor describes a produced (or referenced) artifact.
type Descriptor struct {
	// Path is the filesystem location of the artifact: the staged file
	// for synthesized artifacts, the source path for a local Src, the
	// URL for a remote Src.
	Path string

	// Href references the artifact from the output document.
	Href string

	Height string
	Width  string

	Interactive InteractiveType
	Keep        string

	// Theme, CodeType and UsesSnippetViewer are set for static code
	// renderings.
	Theme             string
	CodeType          string
	UsesSnippetViewer bool

	// Digest is the BLAKE3 digest of the artifact bytes. Zero for
	// remote references.
	Digest publish.Digest

	// Synthesized is false when the artifact came from Src.
	Synthesized bool

	// Remote is true when Href is an absolute URL.
	Remote bool
}

// Synthesizer produces artifacts. Construct with [New].
type Synthesizer struct {
	store        *resource.Store
	publisher    Publisher
	stagingDir   string
	sourceDir    string
	logger       *slog.Logger
	lineHeight   int
	frameOffset  int
	newID        func() string
	lightStyle   string
	darkStyle    string
	archiveLevel int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStagingDir sets the scratch directory for synthesized files
// (default "_tmp").
func WithStagingDir(directory string) Option {
	return func(s *Synthesizer) { s.stagingDir = directory }
}

// WithSourceDir sets the authoring tree root that local Src references
// are resolved against (default: the working directory).
func WithSourceDir(directory string) Option {
	return func(s *Synthesizer) { s.sourceDir = directory }
}

// WithLogger sets the logger for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// WithLayout sets the per-line height and the extra height added for
// runtime-framed viewers.
func WithLayout(lineHeight, frameOffset int) Option {
	return func(s *Synthesizer) {
		s.lineHeight = lineHeight
		s.frameOffset = frameOffset
	}
}

// WithIDGenerator replaces the random identifier source.
func WithIDGenerator(generate func() string) Option {
	return func(s *Synthesizer) { s.newID = generate }
}

// WithHighlightStyles sets the chroma styles used by the highlight
// viewer for the light and dark themes.
func WithHighlightStyles(light, dark string) Option {
	return func(s *Synthesizer) {
		s.lightStyle = light
		s.darkStyle = dark
	}
}

// WithArchiveLevel sets the deflate level for runtime bundles.
func WithArchiveLevel(level int) Option {
	return func(s *Synthesizer) { s.archiveLevel = level }
}

// New returns a Synthesizer reading resources from store and publishing
// through publisher.
func New(store *resource.Store, publisher Publisher, options ...Option) (*Synthesizer, error) {
	if store == nil {
		return nil, errors.New("synth: resource store is required")
	}
	if publisher == nil {
		return nil, errors.New("synth: publisher is required")
	}
	synthesizer := &Synthesizer{
		store:        store,
		publisher:    publisher,
		stagingDir:   "_tmp",
		logger:       slog.Default(),
		lineHeight:   DefaultLineHeight,
		frameOffset:  DefaultFrameOffset,
		newID:        RandomID,
		lightStyle:   "github",
		darkStyle:    "monokai",
		archiveLevel: flate.DefaultCompression,
	}
	for _, option := range options {
		option(synthesizer)
	}
	if synthesizer.lineHeight < 0 || synthesizer.frameOffset < 0 {
		return nil, fmt.Errorf("synth: layout must not be negative (line height %d, frame offset %d)",
			synthesizer.lineHeight, synthesizer.frameOffset)
	}
	return synthesizer, nil
}

// RandomID returns 32 lowercase hex digits from a random UUID.
func RandomID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// DefaultHeight is the height of a static rendering of lines lines:
// lineHeight per line, plus frameOffset when the viewer is framed by a
// client-side runtime.
func DefaultHeight(lines, lineHeight, frameOffset int, framed bool) int {
	height := lineHeight * lines
	if framed {
		height += frameOffset
	}
	return height
}

// Synthesize packages block according to options.
func (s *Synthesizer) Synthesize(block ContentBlock, options Options) (*Descriptor, error) {
	options = options.Normalize(s.logger)

	// A local src always names the artifact. A remote src is only used
	// when there is no content to synthesize from.
	if options.Src != "" && (!IsRemote(options.Src) || len(block.Lines) == 0) {
		return s.reference(options)
	}
	if len(block.Lines) == 0 {
		return nil, ErrNoSource
	}

	kind, known := ParseKind(options.Type)
	if !known {
		mediaerr.Warn(s.logger, mediaerr.UnsupportedType,
			"unrecognised type, rendering as static code", "type", options.Type, "lang", block.Language)
	}

	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return nil, mediaerr.WrapIO("mkdir", s.stagingDir, err)
	}

	id := s.newID()
	switch kind {
	case KindThebeLite:
		return s.thebeLite(id, block, options)
	case KindShinyLitePython:
		return s.shinyLitePython(id, block, options)
	case KindShinyLitePythonExperimental:
		return s.shinyLitePythonExperimental(id, block, options)
	default:
		return s.code(id, block, options)
	}
}

// reference handles a request that names an existing asset.
func (s *Synthesizer) reference(options Options) (*Descriptor, error) {
	descriptor := &Descriptor{
		Path:   options.Src,
		Href:   options.Src,
		Height: options.Height,
		Width:  options.Width,
		Keep:   options.Keep,
	}
	if IsRemote(options.Src) {
		descriptor.Remote = true
		return descriptor, nil
	}

	source := options.Src
	relative := filepath.ToSlash(options.Src)
	if filepath.IsAbs(options.Src) {
		relative = filepath.Base(options.Src)
		descriptor.Href = relative
	} else if s.sourceDir != "" {
		source = filepath.Join(s.sourceDir, options.Src)
	}
	descriptor.Path = source

	digest, err := s.publisher.Publish(source, relative)
	if err != nil {
		return nil, err
	}
	descriptor.Digest = digest
	return descriptor, nil
}

func (s *Synthesizer) thebeLite(id string, block ContentBlock, options Options) (*Descriptor, error) {
	template, err := s.store.Template(resource.TemplateThebeLite)
	if err != nil {
		return nil, err
	}
	page, err := template.Render(map[string]string{
		"lang": html.EscapeString(block.Language),
		"code": html.EscapeString(block.Text()),
	})
	if err != nil {
		return nil, err
	}
	descriptor, err := s.bundle("JL-"+id+".zip", resource.RuntimeThebeLite, archive.Entry{Name: EntryIndex, Content: []byte(page)})
	if err != nil {
		return nil, err
	}
	descriptor.Interactive = InteractiveThebeLite
	descriptor.Height = options.Height
	descriptor.Width = options.Width
	descriptor.Keep = options.Keep
	return descriptor, nil
}

func (s *Synthesizer) shinyLitePython(id string, block ContentBlock, options Options) (*Descriptor, error) {
	manifest, err := ShinyManifest(block)
	if err != nil {
		return nil, err
	}
	descriptor, err := s.bundle("SH-py-"+id+".zip", resource.RuntimeShinyLitePy, archive.Entry{Name: EntryManifest, Content: manifest})
	if err != nil {
		return nil, err
	}
	descriptor.Interactive = InteractiveShinyLitePython
	descriptor.Height = options.Height
	descriptor.Width = options.Width
	descriptor.Keep = options.Keep
	return descriptor, nil
}

func (s *Synthesizer) shinyLitePythonExperimental(id string, block ContentBlock, options Options) (*Descriptor, error) {
	manifest, err := ShinyManifest(block)
	if err != nil {
		return nil, err
	}
	descriptor, err := s.stage("XShPy-"+id+".json", manifest)
	if err != nil {
		return nil, err
	}
	descriptor.Interactive = InteractiveShinyLitePythonExperimental
	descriptor.Height = options.Height
	descriptor.Width = options.Width
	descriptor.Keep = options.Keep
	return descriptor, nil
}

func (s *Synthesizer) code(id string, block ContentBlock, options Options) (*Descriptor, error) {
	var (
		name    string
		content []byte
		framed  bool
	)
	switch options.Viewer {
	case ViewerCodeSnippet:
		name = id + ".txt"
		content = []byte(block.Text())
		framed = true
	case ViewerHighlight:
		page, err := s.highlight(block, options.Theme)
		if err != nil {
			return nil, err
		}
		name = id + ".html"
		content = page
	default:
		template, err := s.store.Template(resource.TemplateCode)
		if err != nil {
			return nil, err
		}
		page, err := template.Render(map[string]string{
			"lang": html.EscapeString(block.Language),
			"code": html.EscapeString(block.Text()),
		})
		if err != nil {
			return nil, err
		}
		name = id + ".html"
		content = []byte(page)
	}

	descriptor, err := s.stage(name, content)
	if err != nil {
		return nil, err
	}
	descriptor.Height = options.Height
	if descriptor.Height == "" {
		descriptor.Height = strconv.Itoa(DefaultHeight(len(block.Lines), s.lineHeight, s.frameOffset, framed))
	}
	descriptor.Width = options.Width
	descriptor.Keep = options.Keep
	descriptor.Theme = options.Theme
	descriptor.CodeType = block.Language
	descriptor.UsesSnippetViewer = options.Viewer == ViewerCodeSnippet
	return descriptor, nil
}

// stage writes content to the staging directory and publishes it.
func (s *Synthesizer) stage(name string, content []byte) (*Descriptor, error) {
	staged := filepath.Join(s.stagingDir, name)
	if err := os.WriteFile(staged, content, 0o644); err != nil {
		return nil, mediaerr.WrapIO("write", staged, err)
	}
	return s.publishStaged(staged, name)
}

// bundle assembles a runtime tree plus entry into a staged archive and
// publishes it.
func (s *Synthesizer) bundle(name, runtime string, entry archive.Entry) (*Descriptor, error) {
	tree, err := s.store.Runtime(runtime)
	if err != nil {
		return nil, err
	}
	staged := filepath.Join(s.stagingDir, name)
	if err := archive.Assemble(staged, tree, []archive.Entry{entry}, archive.WithLevel(s.archiveLevel)); err != nil {
		return nil, fmt.Errorf("assembling %s bundle: %w", runtime, err)
	}
	return s.publishStaged(staged, name)
}

func (s *Synthesizer) publishStaged(staged, name string) (*Descriptor, error) {
	digest, err := s.publisher.Publish(staged, name)
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Path:        staged,
		Href:        path.Clean(name),
		Digest:      digest,
		Synthesized: true,
	}, nil
}

// ShinyFile is one file of a shinylive app manifest.
type ShinyFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ShinyManifest returns the shinylive app manifest for a single-file
// app whose app.py is the block text.
func ShinyManifest(block ContentBlock) ([]byte, error) {
	manifest, err := json.Marshal([]ShinyFile{{Name: "app.py", Type: "text", Content: block.Text()}})
	if err != nil {
		return nil, fmt.Errorf("encoding app manifest: %w", err)
	}
	return manifest, nil
}
