// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package audio

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ou-media/mediaembed/lib/mediaerr"
	"github.com/ou-media/mediaembed/lib/publish"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buffer bytes.Buffer
	return slog.New(slog.NewTextHandler(&buffer, nil)), &buffer
}

func TestMimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src      string
		want     string
		warnings int
	}{
		{"clip.mp3", "audio/mpeg", 0},
		{"media/CLIP.MP3", "audio/mpeg", 0},
		{"https://cdn.example.org/clip.mp3?download=1", "audio/mpeg", 0},
		{"clip.xyz", "", 1},
		{"clip", "", 1},
	}
	for _, test := range tests {
		logger, logs := captureLogger()
		if got := MimeType(test.src, logger); got != test.want {
			t.Errorf("MimeType(%q) = %q, want %q", test.src, got, test.want)
		}
		if got := strings.Count(logs.String(), string(mediaerr.InvalidOptionValue)); got != test.warnings {
			t.Errorf("MimeType(%q) logged %d warnings, want %d:\n%s", test.src, got, test.warnings, logs)
		}
	}
}

func TestNormalizePreload(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{PreloadAuto, PreloadMetadata, PreloadNone} {
		logger, logs := captureLogger()
		if got := NormalizePreload(valid, logger); got != valid {
			t.Errorf("NormalizePreload(%q) = %q", valid, got)
		}
		if logs.Len() != 0 {
			t.Errorf("NormalizePreload(%q) logged:\n%s", valid, logs)
		}
	}

	logger, logs := captureLogger()
	if got := NormalizePreload("", logger); got != PreloadAuto || logs.Len() != 0 {
		t.Errorf("NormalizePreload(\"\") = %q (logs %q), want auto silently", got, logs)
	}

	logger, logs = captureLogger()
	if got := NormalizePreload("loud", logger); got != PreloadAuto {
		t.Errorf("NormalizePreload(loud) = %q, want auto", got)
	}
	if !strings.Contains(logs.String(), "preload=loud") {
		t.Errorf("no warning for preload=loud:\n%s", logs)
	}
}

func TestResolvePublishesLocalSources(t *testing.T) {
	t.Parallel()

	sourceDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(sourceDir, "media"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "media", "clip.mp3"), []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := t.TempDir()
	logger, logs := captureLogger()
	resolver := &Resolver{Publisher: publish.New(output, logger), SourceDir: sourceDir, Logger: logger}

	descriptor := resolver.Resolve(
		[]string{"media/clip.mp3", "https://cdn.example.org/clip.mp3"},
		Options{Autoplay: true, Loop: true, Preload: "metadata", Class: "wide"},
	)

	if !descriptor.Autoplay || !descriptor.Loop || descriptor.Muted || !descriptor.Controls {
		t.Errorf("flags = %+v", descriptor)
	}
	if descriptor.Preload != PreloadMetadata || descriptor.Class != "wide" {
		t.Errorf("preload=%q class=%q", descriptor.Preload, descriptor.Class)
	}
	want := []Source{
		{Path: "media/clip.mp3", MimeType: "audio/mpeg"},
		{Path: "https://cdn.example.org/clip.mp3", MimeType: "audio/mpeg", Remote: true},
	}
	if len(descriptor.Sources) != len(want) {
		t.Fatalf("Sources = %+v", descriptor.Sources)
	}
	for index := range want {
		if descriptor.Sources[index] != want[index] {
			t.Errorf("Sources[%d] = %+v, want %+v", index, descriptor.Sources[index], want[index])
		}
	}
	if descriptor.Label() != "media/clip.mp3" {
		t.Errorf("Label = %q", descriptor.Label())
	}

	data, err := os.ReadFile(filepath.Join(output, "media", "clip.mp3"))
	if err != nil || string(data) != "ID3" {
		t.Errorf("published clip = %q, %v", data, err)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output:\n%s", logs)
	}
}

func TestResolveMissingLocalSourceWarns(t *testing.T) {
	t.Parallel()

	output := t.TempDir()
	logger, logs := captureLogger()
	resolver := &Resolver{Publisher: publish.New(output, logger), SourceDir: t.TempDir(), Logger: logger}

	descriptor := resolver.Resolve([]string{"absent.mp3"}, Options{NoControls: true, Preload: "loud"})

	if descriptor.Controls {
		t.Error("Controls = true with NoControls set")
	}
	if descriptor.Preload != PreloadAuto {
		t.Errorf("Preload = %q, want auto", descriptor.Preload)
	}
	if len(descriptor.Sources) != 1 || descriptor.Sources[0].Path != "absent.mp3" {
		t.Errorf("Sources = %+v, want the dangling reference kept", descriptor.Sources)
	}
	if !strings.Contains(logs.String(), string(mediaerr.MissingSourceFile)) {
		t.Errorf("no missing-source warning:\n%s", logs)
	}
	if entries, _ := os.ReadDir(output); len(entries) != 0 {
		t.Errorf("missing source published files: %v", entries)
	}
}

func TestResolveAbsoluteLocalSource(t *testing.T) {
	t.Parallel()

	clip := filepath.Join(t.TempDir(), "recordings", "clip.mp3")
	if err := os.MkdirAll(filepath.Dir(clip), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(clip, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := t.TempDir()
	logger, logs := captureLogger()
	resolver := &Resolver{Publisher: publish.New(output, logger), SourceDir: t.TempDir(), Logger: logger}

	descriptor := resolver.Resolve([]string{filepath.ToSlash(clip)}, Options{})

	if len(descriptor.Sources) != 1 || descriptor.Sources[0].Path != "clip.mp3" {
		t.Errorf("Sources = %+v, want the published base name", descriptor.Sources)
	}
	if data, err := os.ReadFile(filepath.Join(output, "clip.mp3")); err != nil || string(data) != "ID3" {
		t.Errorf("published clip = %q, %v", data, err)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected log output:\n%s", logs)
	}
}

func TestResolveEscapingSourceWarns(t *testing.T) {
	t.Parallel()

	output := t.TempDir()
	logger, logs := captureLogger()
	resolver := &Resolver{Publisher: publish.New(output, logger), SourceDir: t.TempDir(), Logger: logger}

	descriptor := resolver.Resolve([]string{"../outside.mp3"}, Options{})

	if len(descriptor.Sources) != 1 || descriptor.Sources[0].Path != "../outside.mp3" {
		t.Errorf("Sources = %+v", descriptor.Sources)
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), string(mediaerr.InvalidOptionValue)) {
		t.Errorf("no invalid-option warning:\n%s", logs)
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("escaping source logged as an error:\n%s", logs)
	}
}

func TestResolveWithoutPublisher(t *testing.T) {
	t.Parallel()

	logger, _ := captureLogger()
	descriptor := (&Resolver{Logger: logger}).Resolve([]string{"clip.mp3"}, Options{})
	if len(descriptor.Sources) != 1 || descriptor.Preload != PreloadAuto || !descriptor.Controls {
		t.Errorf("descriptor = %+v", descriptor)
	}
}
