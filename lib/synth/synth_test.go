// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/ou-media/mediaembed/lib/archive"
	"github.com/ou-media/mediaembed/lib/mediaerr"
	"github.com/ou-media/mediaembed/lib/publish"
	"github.com/ou-media/mediaembed/lib/resource"
)

type harness struct {
	synthesizer *Synthesizer
	store       *resource.Store
	staging     string
	output      string
	logs        *bytes.Buffer
}

func newHarness(t *testing.T, options ...Option) *harness {
	t.Helper()

	store, err := resource.Embedded()
	if err != nil {
		t.Fatalf("resource.Embedded: %v", err)
	}
	return newHarnessWithStore(t, store, options...)
}

func newHarnessWithStore(t *testing.T, store *resource.Store, options ...Option) *harness {
	t.Helper()

	root := t.TempDir()
	h := &harness{
		store:   store,
		staging: filepath.Join(root, "_tmp"),
		output:  filepath.Join(root, "out"),
		logs:    &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(h.logs, nil))
	all := append([]Option{WithStagingDir(h.staging), WithLogger(logger)}, options...)
	synthesizer, err := New(store, publish.New(h.output, logger), all...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.synthesizer = synthesizer
	return h
}

func (h *harness) published(t *testing.T, descriptor *Descriptor) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.output, filepath.FromSlash(descriptor.Href)))
	if err != nil {
		t.Fatalf("reading published artifact: %v", err)
	}
	return data
}

func fixedID(id string) Option {
	return WithIDGenerator(func() string { return id })
}

var pythonBlock = ContentBlock{
	Language: "python",
	Lines:    []string{"import math", "if 1 < 2:", "    print(math.pi)"},
}

func TestSynthesizeCodeTemplate(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fixedID("0123456789abcdef0123456789abcdef"))

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if descriptor.Href != "0123456789abcdef0123456789abcdef.html" {
		t.Errorf("Href = %q", descriptor.Href)
	}
	if descriptor.Path != filepath.Join(h.staging, descriptor.Href) {
		t.Errorf("Path = %q, want staged file", descriptor.Path)
	}
	if descriptor.Height != "45" {
		t.Errorf("Height = %q, want 45 (15 x 3 lines)", descriptor.Height)
	}
	if descriptor.Interactive != InteractiveNone || descriptor.UsesSnippetViewer {
		t.Errorf("static artifact marked interactive=%q snippet=%v", descriptor.Interactive, descriptor.UsesSnippetViewer)
	}
	if descriptor.Keep != DefaultKeep || descriptor.Theme != ThemeLight || descriptor.CodeType != "python" {
		t.Errorf("keep=%q theme=%q codeType=%q", descriptor.Keep, descriptor.Theme, descriptor.CodeType)
	}

	page := string(h.published(t, descriptor))
	if !strings.Contains(page, "if 1 &lt; 2:") {
		t.Errorf("published page does not contain escaped code:\n%s", page)
	}
	if !strings.Contains(page, `class="language-python"`) {
		t.Errorf("published page does not carry the language:\n%s", page)
	}
	if descriptor.Digest != publish.Sum([]byte(page)) {
		t.Error("Digest does not match the published bytes")
	}
}

func TestSynthesizeExplicitDimensionsPassThrough(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Height: "300px", Width: "80%"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Height != "300px" || descriptor.Width != "80%" {
		t.Errorf("dimensions = %q x %q, want 80%% x 300px", descriptor.Width, descriptor.Height)
	}
}

func TestSynthesizeCodeSnippetViewer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Viewer: "CodeSnippet", Theme: "Dark", Keep: "always"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasSuffix(descriptor.Href, ".txt") {
		t.Errorf("Href = %q, want .txt", descriptor.Href)
	}
	if !descriptor.UsesSnippetViewer {
		t.Error("UsesSnippetViewer = false")
	}
	if descriptor.Theme != ThemeDark || descriptor.Keep != "always" {
		t.Errorf("theme=%q keep=%q", descriptor.Theme, descriptor.Keep)
	}
	if want := fmt.Sprint(15*3 + 200); descriptor.Height != want {
		t.Errorf("Height = %q, want %s", descriptor.Height, want)
	}
	if got := string(h.published(t, descriptor)); got != pythonBlock.Text() {
		t.Errorf("snippet = %q, want raw joined lines", got)
	}
}

func TestSynthesizeHighlightViewer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	light, err := h.synthesizer.Synthesize(pythonBlock, Options{Viewer: ViewerHighlight})
	if err != nil {
		t.Fatalf("Synthesize light: %v", err)
	}
	dark, err := h.synthesizer.Synthesize(pythonBlock, Options{Viewer: ViewerHighlight, Theme: ThemeDark})
	if err != nil {
		t.Fatalf("Synthesize dark: %v", err)
	}

	lightPage := string(h.published(t, light))
	if !strings.Contains(lightPage, "<html") || !strings.Contains(lightPage, "math") {
		t.Errorf("highlight page is not a standalone document:\n%s", lightPage)
	}
	if strings.Contains(lightPage, "if 1 < 2") {
		t.Error("highlight page contains unescaped code")
	}
	if lightPage == string(h.published(t, dark)) {
		t.Error("light and dark themes rendered identically")
	}
	if light.Height != "45" {
		t.Errorf("Height = %q, want 45", light.Height)
	}
}

func runtimeFiles(t *testing.T, store *resource.Store, name string) map[string][]byte {
	t.Helper()
	tree, err := store.Runtime(name)
	if err != nil {
		t.Fatalf("Runtime(%s): %v", name, err)
	}
	files := map[string][]byte{}
	err = fs.WalkDir(tree, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := fs.ReadFile(tree, path)
		files[path] = data
		return err
	})
	if err != nil {
		t.Fatalf("walking runtime %s: %v", name, err)
	}
	return files
}

func checkBundle(t *testing.T, archivePath string, runtime map[string][]byte, entry string, want []byte) {
	t.Helper()

	names, err := archive.List(archivePath)
	if err != nil {
		t.Fatalf("archive.List: %v", err)
	}
	if len(names) != len(runtime)+1 {
		t.Errorf("archive has %d entries, want %d runtime files + 1", len(names), len(runtime))
	}
	for _, name := range names {
		if strings.HasPrefix(name, "/") || strings.HasPrefix(name, "html-zip-resources") {
			t.Errorf("entry %q is not relative to the runtime root", name)
		}
	}
	for name, data := range runtime {
		got, err := archive.ReadEntry(archivePath, name)
		if err != nil {
			t.Errorf("runtime file %s missing from archive: %v", name, err)
			continue
		}
		if !bytes.Equal(got, data) {
			t.Errorf("runtime file %s differs in archive", name)
		}
	}
	got, err := archive.ReadEntry(archivePath, entry)
	if err != nil {
		t.Fatalf("ReadEntry(%s): %v", entry, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("%s = %q, want %q", entry, got, want)
	}
}

func TestSynthesizeThebeLite(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fixedID("feedfacefeedfacefeedfacefeedface"))

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Type: "TheBeLite", Keep: "session"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Href != "JL-feedfacefeedfacefeedfacefeedface.zip" {
		t.Errorf("Href = %q", descriptor.Href)
	}
	if descriptor.Interactive != InteractiveThebeLite {
		t.Errorf("Interactive = %q", descriptor.Interactive)
	}
	if descriptor.Height != "" {
		t.Errorf("Height = %q, want empty for interactive bundles", descriptor.Height)
	}
	if descriptor.Keep != "session" {
		t.Errorf("Keep = %q", descriptor.Keep)
	}

	template, err := h.store.Template(resource.TemplateThebeLite)
	if err != nil {
		t.Fatal(err)
	}
	want, err := template.Render(map[string]string{
		"lang": "python",
		"code": "import math\nif 1 &lt; 2:\n    print(math.pi)",
	})
	if err != nil {
		t.Fatal(err)
	}
	checkBundle(t, descriptor.Path, runtimeFiles(t, h.store, resource.RuntimeThebeLite), EntryIndex, []byte(want))

	if !bytes.Equal(h.published(t, descriptor), mustRead(t, descriptor.Path)) {
		t.Error("published archive differs from staged archive")
	}
}

func TestSynthesizeShinyLitePython(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Type: "shinylite-py"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.HasPrefix(descriptor.Href, "SH-py-") || !strings.HasSuffix(descriptor.Href, ".zip") {
		t.Errorf("Href = %q", descriptor.Href)
	}
	if descriptor.Interactive != InteractiveShinyLitePython {
		t.Errorf("Interactive = %q", descriptor.Interactive)
	}

	manifest, err := ShinyManifest(pythonBlock)
	if err != nil {
		t.Fatal(err)
	}
	checkBundle(t, descriptor.Path, runtimeFiles(t, h.store, resource.RuntimeShinyLitePy), EntryManifest, manifest)
}

func TestSynthesizeShinyLitePythonExperimental(t *testing.T) {
	t.Parallel()

	for _, spelling := range []string{"Xshinylite-py", "xshinylite-py", "XSHINYLITE-PY"} {
		t.Run(spelling, func(t *testing.T) {
			h := newHarness(t)
			descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Type: spelling})
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if descriptor.Interactive != InteractiveShinyLitePythonExperimental {
				t.Fatalf("Interactive = %q", descriptor.Interactive)
			}
			if !strings.HasPrefix(descriptor.Href, "XShPy-") || !strings.HasSuffix(descriptor.Href, ".json") {
				t.Errorf("Href = %q", descriptor.Href)
			}

			data := h.published(t, descriptor)
			if _, err := archive.List(descriptor.Path); err == nil {
				t.Error("experimental artifact is a zip archive, want a plain file")
			}
			var files []ShinyFile
			if err := json.Unmarshal(data, &files); err != nil {
				t.Fatalf("manifest is not valid JSON: %v", err)
			}
			if len(files) != 1 {
				t.Fatalf("manifest has %d files, want 1", len(files))
			}
			if files[0].Name != "app.py" || files[0].Type != "text" || files[0].Content != pythonBlock.Text() {
				t.Errorf("manifest entry = %+v", files[0])
			}
		})
	}
}

func TestSynthesizeUnknownTypeFallsBackToCode(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Type: "jupyterlite"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Interactive != InteractiveNone || !strings.HasSuffix(descriptor.Href, ".html") {
		t.Errorf("unknown type produced %+v, want static html", descriptor)
	}
	if descriptor.Height != "45" {
		t.Errorf("Height = %q, want 45", descriptor.Height)
	}
	if !strings.Contains(h.logs.String(), string(mediaerr.UnsupportedType)) {
		t.Errorf("no unsupported-type warning logged:\n%s", h.logs)
	}
}

func TestSynthesizeInvalidThemeIsCoerced(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(pythonBlock, Options{Viewer: ViewerCodeSnippet, Theme: "sepia"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Theme != ThemeLight {
		t.Errorf("Theme = %q, want light", descriptor.Theme)
	}
	if !strings.Contains(h.logs.String(), string(mediaerr.InvalidOptionValue)) {
		t.Errorf("no invalid-option warning logged:\n%s", h.logs)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	t.Parallel()

	for _, options := range []Options{
		{},
		{Viewer: ViewerCodeSnippet},
		{Viewer: ViewerHighlight},
		{Type: "thebelite"},
		{Type: "shinylite-py"},
		{Type: "Xshinylite-py"},
	} {
		t.Run(fmt.Sprintf("%s/%s", options.Type, options.Viewer), func(t *testing.T) {
			first, err := newHarness(t).synthesizer.Synthesize(pythonBlock, options)
			if err != nil {
				t.Fatalf("first Synthesize: %v", err)
			}
			second, err := newHarness(t).synthesizer.Synthesize(pythonBlock, options)
			if err != nil {
				t.Fatalf("second Synthesize: %v", err)
			}
			if first.Href == second.Href {
				t.Errorf("two syntheses share the name %q", first.Href)
			}
			if first.Digest != second.Digest {
				t.Error("identical inputs produced different artifact bytes")
			}
		})
	}
}

func TestSynthesizeLocalSource(t *testing.T) {
	t.Parallel()

	sourceDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sourceDir, "snippets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "snippets", "demo.html"), []byte("<p>demo</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, WithSourceDir(sourceDir))

	descriptor, err := h.synthesizer.Synthesize(ContentBlock{Language: "html", Lines: []string{"ignored"}},
		Options{Src: "snippets/demo.html", Height: "120"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Synthesized {
		t.Error("pass-through artifact marked as synthesized")
	}
	if descriptor.Href != "snippets/demo.html" || descriptor.Height != "120" || descriptor.Width != "" {
		t.Errorf("descriptor = %+v", descriptor)
	}
	if got := string(h.published(t, descriptor)); got != "<p>demo</p>" {
		t.Errorf("published = %q", got)
	}
	if entries, _ := os.ReadDir(h.staging); len(entries) != 0 {
		t.Errorf("pass-through wrote staging files: %v", entries)
	}
}

func TestSynthesizeMissingLocalSource(t *testing.T) {
	t.Parallel()
	h := newHarness(t, WithSourceDir(t.TempDir()))

	_, err := h.synthesizer.Synthesize(ContentBlock{}, Options{Src: "absent.html"})
	var ioError *mediaerr.IOError
	if !errors.As(err, &ioError) {
		t.Fatalf("error = %v, want *IOError", err)
	}
}

func TestSynthesizeRemoteSource(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	descriptor, err := h.synthesizer.Synthesize(ContentBlock{}, Options{Src: "https://example.org/demo.html", Width: "600"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !descriptor.Remote || descriptor.Href != "https://example.org/demo.html" || descriptor.Width != "600" {
		t.Errorf("descriptor = %+v", descriptor)
	}
	if _, err := os.Stat(h.output); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("remote reference published something (stat err %v)", err)
	}
}

func TestSynthesizeRemoteSourceWithContent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fixedID("fedcba9876543210fedcba9876543210"))

	block := ContentBlock{Language: "python", Lines: []string{"print(1)", "print(2)"}}
	descriptor, err := h.synthesizer.Synthesize(block, Options{Src: "https://example.org/demo.html"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if descriptor.Remote {
		t.Error("content with a remote src was not synthesized")
	}
	if descriptor.Href != "fedcba9876543210fedcba9876543210.html" {
		t.Errorf("Href = %q, want the synthesized page", descriptor.Href)
	}
	if descriptor.Height != "30" {
		t.Errorf("Height = %q, want 30 (15 x 2 lines)", descriptor.Height)
	}
	if page := string(h.published(t, descriptor)); !strings.Contains(page, "print(2)") {
		t.Errorf("published page does not contain the code:\n%s", page)
	}
}

func TestSynthesizeWithoutSourceOrContent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.synthesizer.Synthesize(ContentBlock{Language: "python"}, Options{}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("error = %v, want ErrNoSource", err)
	}
}

func TestSynthesizeMissingTemplate(t *testing.T) {
	t.Parallel()

	store, err := resource.Open(fstest.MapFS{
		resource.ManifestName: {Data: []byte(`{"templates": {}, "runtimes": {}}`)},
	})
	if err != nil {
		t.Fatalf("resource.Open: %v", err)
	}
	h := newHarnessWithStore(t, store)

	for _, options := range []Options{{}, {Type: "thebelite"}, {Type: "shinylite-py"}} {
		_, err := h.synthesizer.Synthesize(pythonBlock, options)
		var notFound *mediaerr.TemplateNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("type %q: error = %v, want *TemplateNotFoundError", options.Type, err)
		}
	}
}

func TestSynthesizeUnwritableStaging(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, WithStagingDir(filepath.Join(blocker, "staging")))

	_, err := h.synthesizer.Synthesize(pythonBlock, Options{})
	var ioError *mediaerr.IOError
	if !errors.As(err, &ioError) {
		t.Fatalf("error = %v, want *IOError", err)
	}
}

func TestSynthesizeConcurrently(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	const workers = 16
	hrefs := make([]string, workers)
	var wait sync.WaitGroup
	for index := range workers {
		wait.Add(1)
		go func() {
			defer wait.Done()
			options := Options{}
			if index%2 == 1 {
				options.Type = "thebelite"
			}
			descriptor, err := h.synthesizer.Synthesize(pythonBlock, options)
			if err != nil {
				t.Errorf("Synthesize: %v", err)
				return
			}
			hrefs[index] = descriptor.Href
		}()
	}
	wait.Wait()

	sort.Strings(hrefs)
	for index := 1; index < len(hrefs); index++ {
		if hrefs[index] == hrefs[index-1] {
			t.Errorf("duplicate artifact name %q", hrefs[index])
		}
	}
}

func TestDefaultHeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lines  int
		framed bool
		want   int
	}{
		{0, false, 0},
		{1, false, 15},
		{10, false, 150},
		{0, true, 200},
		{4, true, 260},
	}
	for _, test := range tests {
		if got := DefaultHeight(test.lines, DefaultLineHeight, DefaultFrameOffset, test.framed); got != test.want {
			t.Errorf("DefaultHeight(%d, framed=%v) = %d, want %d", test.lines, test.framed, got, test.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   Kind
		wantOK bool
	}{
		{"", KindCode, true},
		{"code", KindCode, true},
		{"CODE", KindCode, true},
		{"thebelite", KindThebeLite, true},
		{"shinylite-py", KindShinyLitePython, true},
		{"Xshinylite-py", KindShinyLitePythonExperimental, true},
		{"jupyterlite", KindCode, false},
	}
	for _, test := range tests {
		got, ok := ParseKind(test.name)
		if got != test.want || ok != test.wantOK {
			t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", test.name, got, ok, test.want, test.wantOK)
		}
	}
}

func TestIsRemote(t *testing.T) {
	t.Parallel()

	for reference, want := range map[string]bool{
		"https://example.org/a.mp3": true,
		"//cdn.example.org/a.mp3":   true,
		"media/a.mp3":               false,
		"/abs/a.mp3":                false,
		"file:///tmp/a.mp3":         false,
	} {
		if got := IsRemote(reference); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", reference, got, want)
		}
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
