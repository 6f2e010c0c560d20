// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

// Package embedding turns artifact descriptors into embeddable regions
// and renders them per output format.
//
// A [Region] carries an ordered [AttributeSet] restricted to an
// allow-list that depends on the artifact: code artifacts may emit
// height, width, src, caption and type, plus viewer, theme and keep when
// the artifact needs client-side code (an interactive runtime or the
// snippet viewer). Audio regions emit the player flags and a source
// list. Attributes with empty values are dropped. The class attribute
// is not part of the allow-list; it is emitted whenever it is set.
//
// Only HTML output can carry a region. [Render] skips regions for every
// other format and logs a warning naming the artifact, leaving the rest
// of the document intact.
package embedding

import (
	"path"
	"strings"

	"github.com/ou-media/mediaembed/lib/audio"
	"github.com/ou-media/mediaembed/lib/synth"
)

// Element is the HTML element a region renders as.
type Element string

const (
	ElementFrame Element = "iframe"
	ElementAudio Element = "audio"
)

// FrameName is the name attribute given to every code frame. Page
// scripts use it to find frames they may expand.
const FrameName = "expandable-code-iframe"

// Allow-lists, in emission order.
var (
	codeAttributes        = []string{"height", "width", "src", "caption", "type"}
	interactiveAttributes = []string{"viewer", "theme", "keep"}
	audioAttributes       = []string{"autoplay", "controls", "loop", "muted", "preload"}
)

// Attribute is one key/value presentation attribute.
type Attribute struct {
	Key   string
	Value string
}

// AttributeSet is an ordered, allow-listed set of attributes.
type AttributeSet struct {
	attributes []Attribute
	allowed    map[string]bool
}

func newAttributeSet(allowLists ...[]string) AttributeSet {
	set := AttributeSet{allowed: map[string]bool{}}
	for _, list := range allowLists {
		for _, key := range list {
			set.allowed[key] = true
		}
	}
	return set
}

// add appends key=value when key is allowed and value is non-empty.
func (s *AttributeSet) add(key, value string) {
	if !s.allowed[key] || value == "" {
		return
	}
	s.attributes = append(s.attributes, Attribute{Key: key, Value: value})
}

// with returns a copy of s with the value of key replaced.
func (s AttributeSet) with(key, value string) AttributeSet {
	attributes := make([]Attribute, len(s.attributes))
	for index, attribute := range s.attributes {
		if attribute.Key == key {
			attribute.Value = value
		}
		attributes[index] = attribute
	}
	s.attributes = attributes
	return s
}

// All returns the attributes in emission order.
func (s AttributeSet) All() []Attribute {
	return append([]Attribute(nil), s.attributes...)
}

// Get returns the value for key and whether it is present.
func (s AttributeSet) Get(key string) (string, bool) {
	for _, attribute := range s.attributes {
		if attribute.Key == key {
			return attribute.Value, true
		}
	}
	return "", false
}

// Len returns the number of attributes.
func (s AttributeSet) Len() int { return len(s.attributes) }

// Region is an embeddable element referencing a published artifact.
type Region struct {
	Element    Element
	Attributes AttributeSet

	// Class is emitted independently of the allow-list.
	Class string

	// Sources lists <source> children of audio regions.
	Sources []audio.Source

	// Caption is rendered as a figure caption for audio regions.
	Caption string

	// Legend is rendered HTML placed after the caption. It is only
	// emitted together with a caption.
	Legend string

	// Label identifies the artifact in warnings.
	Label string

	// localSrc is set when the frame src names a published artifact.
	localSrc bool
}

// Rebase returns a copy of r whose references to published artifacts
// are relative to a page base away from the output root. An empty base
// leaves r unchanged; remote and root-absolute references are never
// rewritten.
func (r Region) Rebase(base string) Region {
	if base == "" {
		return r
	}
	if r.localSrc {
		if src, ok := r.Attributes.Get("src"); ok {
			r.Attributes = r.Attributes.with("src", rebase(base, src))
		}
	}
	if len(r.Sources) > 0 {
		sources := make([]audio.Source, len(r.Sources))
		for index, source := range r.Sources {
			if !source.Remote {
				source.Path = rebase(base, source.Path)
			}
			sources[index] = source
		}
		r.Sources = sources
	}
	return r
}

func rebase(base, reference string) string {
	if strings.HasPrefix(reference, "/") {
		return reference
	}
	return path.Join(base, reference)
}

// ForCode builds the frame region for a code artifact.
func ForCode(descriptor *synth.Descriptor, options synth.Options) Region {
	interactive := descriptor.Interactive != synth.InteractiveNone || descriptor.UsesSnippetViewer

	set := newAttributeSet(codeAttributes)
	if interactive {
		set = newAttributeSet(codeAttributes, interactiveAttributes)
	}
	src := descriptor.Href
	if src != "" && !descriptor.Remote && !strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "./") && !strings.HasPrefix(src, "../") {
		src = "./" + src
	}

	set.add("height", descriptor.Height)
	set.add("width", descriptor.Width)
	set.add("src", src)
	set.add("caption", options.Caption)
	if descriptor.Interactive != synth.InteractiveNone {
		set.add("type", string(descriptor.Interactive))
	}
	if descriptor.UsesSnippetViewer {
		set.add("viewer", synth.ViewerCodeSnippet)
	}
	set.add("theme", descriptor.Theme)
	set.add("keep", descriptor.Keep)

	return Region{
		Element:    ElementFrame,
		Attributes: set,
		Label:      descriptor.Href,
		localSrc:   src != "" && !descriptor.Remote,
	}
}

// ForAudio builds the audio region for a resolved audio descriptor.
// Boolean flags are emitted with their own name as the value.
func ForAudio(descriptor *audio.Descriptor, caption string) Region {
	set := newAttributeSet(audioAttributes)
	set.add("autoplay", flag("autoplay", descriptor.Autoplay))
	set.add("controls", flag("controls", descriptor.Controls))
	set.add("loop", flag("loop", descriptor.Loop))
	set.add("muted", flag("muted", descriptor.Muted))
	set.add("preload", descriptor.Preload)

	return Region{
		Element:    ElementAudio,
		Attributes: set,
		Class:      descriptor.Class,
		Sources:    append([]audio.Source(nil), descriptor.Sources...),
		Caption:    caption,
		Label:      descriptor.Label(),
	}
}

func flag(name string, set bool) string {
	if set {
		return name
	}
	return ""
}
