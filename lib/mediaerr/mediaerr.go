// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package mediaerr defines the error and warning taxonomy shared by the
// artifact packaging packages.
//
// Two error types are fatal to a single embedding: [TemplateNotFoundError]
// (a bundling defect) and [IOError] (an environment defect). Neither
// aborts the surrounding document build; the host pipeline logs them and
// moves on. Everything else is a [Warning]: logged through [Warn] with a
// "warning" attribute naming its [WarningKind], after which processing
// continues with a documented default.
package mediaerr

import (
	"context"
	"fmt"
	"log/slog"
)

// TemplateNotFoundError reports that a named template or runtime bundle
// is absent from the resource store.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in resource store", e.Name)
}

// IOError wraps a filesystem failure with the operation and path that
// caused it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO returns nil when err is nil, and an *IOError otherwise.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// WarningKind classifies non-fatal conditions.
type WarningKind string

const (
	// UnsupportedOutputFormat: a region was skipped because the output
	// format cannot carry it.
	UnsupportedOutputFormat WarningKind = "unsupported_output_format"

	// InvalidOptionValue: an option value was coerced to its default.
	InvalidOptionValue WarningKind = "invalid_option_value"

	// MissingSourceFile: a referenced local asset does not exist and was
	// not published.
	MissingSourceFile WarningKind = "missing_source_file"

	// UnsupportedType: an unrecognised artifact type fell through to the
	// static code rendering.
	UnsupportedType WarningKind = "unsupported_type"
)

// Warn logs a warning record tagged with kind. A nil logger uses
// slog.Default().
func Warn(logger *slog.Logger, kind WarningKind, message string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), slog.LevelWarn, message, append([]any{"warning", string(kind)}, args...)...)
}
