// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive builds the zip bundles that carry an in-browser
// runtime together with a synthesized entry point.
//
// [Assemble] copies every regular file of a source tree into a new zip
// archive with names relative to the tree root (the equivalent of
// "zip -j" applied per directory level: no leading prefix, directories
// are not stored as entries), then appends the caller's extra entries.
// Entry names must be unique: an extra entry that would shadow a tree
// file fails with [ErrEntryCollision] before anything is written.
//
// Archives are reproducible. Files are added in lexical walk order with
// zero modification times and fixed modes, so identical inputs produce
// byte-identical output.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// ErrEntryCollision is returned when two entries would share a name.
var ErrEntryCollision = errors.New("archive entry name collision")

// Entry is a synthesized file appended after the source tree.
type Entry struct {
	Name    string
	Content []byte
}

type settings struct {
	level int
}

// Option configures [Assemble].
type Option func(*settings)

// WithLevel sets the deflate compression level (flate.BestSpeed through
// flate.BestCompression, or flate.DefaultCompression).
func WithLevel(level int) Option {
	return func(s *settings) { s.level = level }
}

// Assemble writes a zip archive at destination containing every file of
// tree followed by extras. The archive is built in a temporary file next
// to destination and renamed into place, so a failed assembly never
// leaves a partial archive behind.
func Assemble(destination string, tree fs.FS, extras []Entry, options ...Option) error {
	config := settings{level: flate.DefaultCompression}
	for _, option := range options {
		option(&config)
	}
	if config.level < flate.HuffmanOnly || config.level > flate.BestCompression {
		return fmt.Errorf("invalid deflate level %d", config.level)
	}

	names, err := treeFiles(tree)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(names)+len(extras))
	for _, name := range names {
		seen[name] = true
	}
	for _, extra := range extras {
		if seen[extra.Name] {
			return fmt.Errorf("%w: %q", ErrEntryCollision, extra.Name)
		}
		seen[extra.Name] = true
	}

	temporary, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".*")
	if err != nil {
		return mediaerr.WrapIO("create", destination, err)
	}
	temporaryPath := temporary.Name()
	committed := false
	defer func() {
		if !committed {
			temporary.Close()
			os.Remove(temporaryPath)
		}
	}()

	writer := zip.NewWriter(temporary)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, config.level)
	})

	for _, name := range names {
		if err := copyTreeFile(writer, tree, name); err != nil {
			return err
		}
	}
	for _, extra := range extras {
		entry, err := writer.CreateHeader(header(extra.Name))
		if err != nil {
			return mediaerr.WrapIO("write", destination, err)
		}
		if _, err := entry.Write(extra.Content); err != nil {
			return mediaerr.WrapIO("write", destination, err)
		}
	}

	if err := writer.Close(); err != nil {
		return mediaerr.WrapIO("write", destination, err)
	}
	if err := temporary.Close(); err != nil {
		return mediaerr.WrapIO("write", destination, err)
	}
	if err := os.Chmod(temporaryPath, 0o644); err != nil {
		return mediaerr.WrapIO("chmod", destination, err)
	}
	if err := os.Rename(temporaryPath, destination); err != nil {
		return mediaerr.WrapIO("rename", destination, err)
	}
	committed = true
	return nil
}

// treeFiles lists the regular files of tree in lexical order, as
// slash-separated paths relative to the tree root.
func treeFiles(tree fs.FS) ([]string, error) {
	var names []string
	err := fs.WalkDir(tree, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, mediaerr.WrapIO("walk", "runtime tree", err)
	}
	return names, nil
}

func copyTreeFile(writer *zip.Writer, tree fs.FS, name string) error {
	source, err := tree.Open(name)
	if err != nil {
		return mediaerr.WrapIO("open", name, err)
	}
	defer source.Close()

	entry, err := writer.CreateHeader(header(name))
	if err != nil {
		return mediaerr.WrapIO("write", name, err)
	}
	if _, err := io.Copy(entry, source); err != nil {
		return mediaerr.WrapIO("copy", name, err)
	}
	return nil
}

func header(name string) *zip.FileHeader {
	fileHeader := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	fileHeader.SetMode(0o644)
	return fileHeader
}
