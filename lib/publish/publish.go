// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package publish copies staged artifacts and referenced assets into the
// build output directory.
//
// Publishing is idempotent: a destination whose BLAKE3 digest already
// matches the source is left untouched, so rebuilding an unchanged tree
// does not rewrite (or re-timestamp) its outputs. Copies go through a
// temporary file and a rename, so concurrent publishers writing the
// same destination never expose a partially written file.
package publish

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/ou-media/mediaembed/lib/mediaerr"
)

// Digest is a BLAKE3-256 content digest.
type Digest [32]byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}

// SumFile streams the file at path through BLAKE3.
func SumFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// Publisher copies files into OutputDir.
type Publisher struct {
	OutputDir string
	Logger    *slog.Logger
}

// New returns a Publisher rooted at outputDir.
func New(outputDir string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{OutputDir: outputDir, Logger: logger}
}

// Destination returns the absolute output location for a relative
// reference. References that would escape OutputDir are rejected.
func (p *Publisher) Destination(relative string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relative))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("publish target %q is outside the output directory", relative)
	}
	return filepath.Join(p.OutputDir, cleaned), nil
}

// Publish copies source to relative (a slash-separated path inside
// OutputDir) and returns the digest of the published content. A missing
// source is reported as an *mediaerr.IOError wrapping fs.ErrNotExist.
func (p *Publisher) Publish(source, relative string) (Digest, error) {
	destination, err := p.Destination(relative)
	if err != nil {
		return Digest{}, err
	}

	sourceDigest, err := SumFile(source)
	if err != nil {
		return Digest{}, mediaerr.WrapIO("read", source, err)
	}

	if existing, err := SumFile(destination); err == nil && existing == sourceDigest {
		p.Logger.Debug("publish skipped, destination up to date", "source", source, "destination", destination)
		return sourceDigest, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Digest{}, mediaerr.WrapIO("read", destination, err)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return Digest{}, mediaerr.WrapIO("mkdir", filepath.Dir(destination), err)
	}
	if err := copyFile(source, destination); err != nil {
		return Digest{}, err
	}

	p.Logger.Debug("published", "source", source, "destination", destination, "digest", sourceDigest.String())
	return sourceDigest, nil
}

func copyFile(source, destination string) error {
	input, err := os.Open(source)
	if err != nil {
		return mediaerr.WrapIO("open", source, err)
	}
	defer input.Close()

	output, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".*")
	if err != nil {
		return mediaerr.WrapIO("create", destination, err)
	}
	temporaryPath := output.Name()

	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		os.Remove(temporaryPath)
		return mediaerr.WrapIO("copy", destination, err)
	}
	if err := output.Close(); err != nil {
		os.Remove(temporaryPath)
		return mediaerr.WrapIO("write", destination, err)
	}
	if err := os.Chmod(temporaryPath, 0o644); err != nil {
		os.Remove(temporaryPath)
		return mediaerr.WrapIO("chmod", destination, err)
	}
	if err := os.Rename(temporaryPath, destination); err != nil {
		os.Remove(temporaryPath)
		return mediaerr.WrapIO("rename", destination, err)
	}
	return nil
}
