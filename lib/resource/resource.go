// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package resource provides the bundled templates and runtime trees used
// to synthesize artifacts.
//
// Resources live in a filesystem (normally the assets compiled into the
// binary via go:embed, see [Embedded]) described by a JSONC manifest,
// bundles.jsonc, that maps logical names to paths:
//
//	{
//	  "templates": {"code": "templates/ou-code-index.html"},
//	  "runtimes":  {"thebelite": "html-zip-resources/thebelite"},
//	}
//
// [Open] reads the manifest once and checks every declared path. A
// manifest that does not parse or names a missing file is a packaging
// defect, so Open fails rather than deferring the problem to the first
// embedding that needs it. After Open succeeds the [Store] is read-only
// and safe for concurrent use.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// ManifestName is the manifest file at the root of a resource filesystem.
const ManifestName = "bundles.jsonc"

// Logical names declared in the embedded manifest.
const (
	TemplateCode      = "code"
	TemplateThebeLite = "thebe-lite"

	RuntimeThebeLite   = "thebelite"
	RuntimeShinyLitePy = "shinylite-py"
)

// Manifest is the parsed form of bundles.jsonc.
type Manifest struct {
	Templates map[string]string `json:"templates"`
	Runtimes  map[string]string `json:"runtimes"`
}

// Store resolves templates and runtime trees by logical name or by path
// segments.
type Store struct {
	fsys     fs.FS
	manifest Manifest
}

// Open parses the manifest in fsys and validates every entry it declares.
func Open(fsys fs.FS) (*Store, error) {
	data, err := fs.ReadFile(fsys, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("reading resource manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &manifest); err != nil {
		return nil, fmt.Errorf("parsing resource manifest: %w", err)
	}

	var errs []error
	for _, name := range sortedKeys(manifest.Templates) {
		info, err := fs.Stat(fsys, manifest.Templates[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("template %q: %w", name, err))
			continue
		}
		if info.IsDir() {
			errs = append(errs, fmt.Errorf("template %q: %s is a directory", name, manifest.Templates[name]))
		}
	}
	for _, name := range sortedKeys(manifest.Runtimes) {
		info, err := fs.Stat(fsys, manifest.Runtimes[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("runtime %q: %w", name, err))
			continue
		}
		if !info.IsDir() {
			errs = append(errs, fmt.Errorf("runtime %q: %s is not a directory", name, manifest.Runtimes[name]))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid resource manifest: %w", errors.Join(errs...))
	}

	return &Store{fsys: fsys, manifest: manifest}, nil
}

// Template returns the template registered under name in the manifest.
func (s *Store) Template(name string) (Template, error) {
	location, ok := s.manifest.Templates[name]
	if !ok {
		return Template{}, &mediaerr.TemplateNotFoundError{Name: name}
	}
	return s.TemplateAt(strings.Split(location, "/")...)
}

// TemplateAt returns the template stored at the given path segments,
// whether or not the manifest names it.
func (s *Store) TemplateAt(segments ...string) (Template, error) {
	location := path.Join(segments...)
	data, err := fs.ReadFile(s.fsys, location)
	if err != nil {
		return Template{}, &mediaerr.TemplateNotFoundError{Name: location}
	}
	return Template{Name: location, Text: string(data)}, nil
}

// Runtime returns the runtime tree registered under name as a
// filesystem rooted at the tree's directory.
func (s *Store) Runtime(name string) (fs.FS, error) {
	location, ok := s.manifest.Runtimes[name]
	if !ok {
		return nil, &mediaerr.TemplateNotFoundError{Name: name}
	}
	return s.RuntimeAt(strings.Split(location, "/")...)
}

// RuntimeAt returns the directory at the given path segments as a
// filesystem.
func (s *Store) RuntimeAt(segments ...string) (fs.FS, error) {
	location := path.Join(segments...)
	info, err := fs.Stat(s.fsys, location)
	if err != nil || !info.IsDir() {
		return nil, &mediaerr.TemplateNotFoundError{Name: location}
	}
	sub, err := fs.Sub(s.fsys, location)
	if err != nil {
		return nil, fmt.Errorf("opening runtime %s: %w", location, err)
	}
	return sub, nil
}

// Templates returns the logical template names in sorted order.
func (s *Store) Templates() []string { return sortedKeys(s.manifest.Templates) }

// Runtimes returns the logical runtime names in sorted order.
func (s *Store) Runtimes() []string { return sortedKeys(s.manifest.Runtimes) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
