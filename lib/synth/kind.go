// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package synth

import "strings"

// Kind is the artifact format requested by the "type" option.
type Kind int

const (
	// KindCode is a static rendering of the block. It is also the
	// fallback for unrecognised type names.
	KindCode Kind = iota

	// KindThebeLite is a zip bundle of the thebe-lite runtime with an
	// index.html holding the code cell.
	KindThebeLite

	// KindShinyLitePython is a zip bundle of the shinylive runtime with
	// an app.json manifest holding app.py.
	KindShinyLitePython

	// KindShinyLitePythonExperimental is the app.json manifest written
	// as a plain file, for hosts that supply the runtime themselves.
	KindShinyLitePythonExperimental
)

var kindNames = map[Kind]string{
	KindCode:                        "code",
	KindThebeLite:                   "thebelite",
	KindShinyLitePython:             "shinylite-py",
	KindShinyLitePythonExperimental: "Xshinylite-py",
}

// String returns the option spelling of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "code"
}

// ParseKind maps a type option to a Kind, ignoring case. Unrecognised
// names return KindCode and ok == false; the empty string is the
// documented default and returns ok == true.
func ParseKind(name string) (kind Kind, ok bool) {
	if name == "" {
		return KindCode, true
	}
	for candidate, spelling := range kindNames {
		if strings.EqualFold(name, spelling) {
			return candidate, true
		}
	}
	return KindCode, false
}

// InteractiveType tags the client-side runtime an artifact needs. The
// zero value means the artifact is static.
type InteractiveType string

const (
	InteractiveNone                        InteractiveType = ""
	InteractiveThebeLite                   InteractiveType = "thebe-lite"
	InteractiveShinyLitePython             InteractiveType = "shiny-lite-python"
	InteractiveShinyLitePythonExperimental InteractiveType = "shiny-lite-python-experimental"
)

// String returns the tag, or "none" for static artifacts.
func (t InteractiveType) String() string {
	if t == InteractiveNone {
		return "none"
	}
	return string(t)
}
