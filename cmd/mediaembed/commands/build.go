// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"github.com/ou-media/mediaembed/cmd/mediaembed/cli"
	"github.com/ou-media/mediaembed/lib/document"
	"github.com/ou-media/mediaembed/lib/embedding"
	"github.com/ou-media/mediaembed/lib/mediaerr"
)

type buildFlags struct {
	commonFlags
	jobs int
}

func buildCommand(streams Streams) *cli.Command {
	var flags buildFlags

	return &cli.Command{
		Name:    "build",
		Summary: "Render Markdown documents with embedded artifacts",
		Description: `Render Markdown documents, packaging every {ou-codestyle} and
{ou-audio} directive they contain.

Each FILE is rendered to <out>/<name>.html (.xhtml for epub). A DIR is
walked for *.md files and its layout is mirrored under <out>; artifacts
are published at the root of <out> and nested pages link back to it. Documents
are rendered concurrently; a directive that fails is logged and replaced
by a comment, and the command exits 1 after writing every document.`,
		Usage: "mediaembed build [flags] FILE|DIR...",
		Examples: []cli.Example{
			{
				Description: "Render a book with its config",
				Command:     "mediaembed build --config mediaembed.yaml book/",
			},
			{
				Description: "Render two chapters for an EPUB build",
				Command:     "mediaembed build --format epub --out _build/epub intro.md lab.md",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.IntVarP(&flags.jobs, "jobs", "j", runtime.NumCPU(), "documents rendered in parallel")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return cli.Validation("at least one FILE or DIR is required")
			}
			if flags.jobs < 1 {
				return cli.Validation("--jobs must be at least 1, got %d", flags.jobs)
			}
			kit, err := flags.setup(streams)
			if err != nil {
				return err
			}
			documents, err := collectDocuments(args, kit.format)
			if err != nil {
				return err
			}

			builder := &document.Builder{
				Synthesizer: kit.synthesizer,
				Audio:       kit.audio,
				Format:      kit.format,
				Defaults:    kit.defaults(),
				Logger:      kit.logger,
			}
			summary := renderAll(builder, documents, kit.config.Paths.Output, flags.jobs)

			fmt.Fprintf(streams.Stdout, "built %d of %d documents: %d embedded, %d skipped, %d failed\n",
				summary.built, len(documents), summary.report.Rendered, summary.report.Skipped, summary.report.Failed)
			if summary.errors > 0 || summary.report.Failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// sourceDocument is one Markdown input and the output path relative to
// the output directory.
type sourceDocument struct {
	path   string
	output string
}

// collectDocuments expands args into documents, sorted by output path.
func collectDocuments(args []string, format embedding.Format) ([]sourceDocument, error) {
	extension := ".html"
	if format == embedding.FormatEPUB {
		extension = ".xhtml"
	}
	outputName := func(relative string) string {
		return strings.TrimSuffix(filepath.ToSlash(relative), filepath.Ext(relative)) + extension
	}

	var documents []sourceDocument
	for _, arg := range args {
		info, err := os.Stat(arg)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cli.NotFound("%s does not exist", arg)
		}
		if err != nil {
			return nil, cli.Internal("%w", err)
		}
		if !info.IsDir() {
			documents = append(documents, sourceDocument{path: arg, output: outputName(filepath.Base(arg))})
			continue
		}
		err = filepath.WalkDir(arg, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if path != arg && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".md") {
				return nil
			}
			relative, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			documents = append(documents, sourceDocument{path: path, output: outputName(relative)})
			return nil
		})
		if err != nil {
			return nil, cli.Internal("walking %s: %w", arg, err)
		}
	}

	sort.Slice(documents, func(i, j int) bool { return documents[i].output < documents[j].output })
	return documents, nil
}

type buildSummary struct {
	built  int
	errors int
	report document.Report
}

// renderAll renders documents on a pool of jobs goroutines.
func renderAll(builder *document.Builder, documents []sourceDocument, outputDir string, jobs int) buildSummary {
	var (
		summary buildSummary
		mutex   sync.Mutex
		group   sync.WaitGroup
	)
	queue := make(chan sourceDocument)

	for range min(jobs, max(len(documents), 1)) {
		group.Add(1)
		go func() {
			defer group.Done()
			for source := range queue {
				report, err := renderDocument(builder, source, outputDir)
				mutex.Lock()
				summary.report.Add(report)
				if err != nil {
					summary.errors++
					builder.Logger.Error("document failed", "document", source.path, "error", err)
				} else {
					summary.built++
				}
				mutex.Unlock()
			}
		}()
	}
	for _, source := range documents {
		queue <- source
	}
	close(queue)
	group.Wait()
	return summary
}

func renderDocument(builder *document.Builder, source sourceDocument, outputDir string) (document.Report, error) {
	content, err := os.ReadFile(source.path)
	if err != nil {
		return document.Report{}, mediaerr.WrapIO("read", source.path, err)
	}
	page := *builder
	page.Base = strings.Repeat("../", strings.Count(source.output, "/"))
	body, report, err := page.Build(content, source.path)
	if err != nil {
		return report, err
	}

	destination := filepath.Join(outputDir, filepath.FromSlash(source.output))
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return report, mediaerr.WrapIO("mkdir", filepath.Dir(destination), err)
	}
	if err := os.WriteFile(destination, wrapPage(builder.Format, title(source.path), body), 0o644); err != nil {
		return report, mediaerr.WrapIO("write", destination, err)
	}
	builder.Logger.Debug("document written", "document", source.path, "output", destination)
	return report, nil
}

func title(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// wrapPage wraps a rendered body in a standalone page. EPUB content
// documents must be XHTML.
func wrapPage(format embedding.Format, title string, body []byte) []byte {
	var page strings.Builder
	if format == embedding.FormatEPUB {
		page.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
		page.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n")
	} else {
		page.WriteString("<!DOCTYPE html>\n<html>\n")
	}
	page.WriteString(`<head><meta charset="utf-8" /><title>`)
	page.WriteString(html.EscapeString(title))
	page.WriteString("</title></head>\n<body>\n")
	page.Write(body)
	page.WriteString("</body>\n</html>\n")
	return []byte(page.String())
}
