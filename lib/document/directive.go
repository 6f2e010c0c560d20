// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directive names recognised in fenced code block info strings.
const (
	DirectiveCodeStyle = "ou-codestyle"
	DirectiveAudio     = "ou-audio"
)

// Directive is a parsed directive fence: the name between braces, the
// rest of the info string as arguments, the option lines, and the
// remaining body.
type Directive struct {
	Name      string
	Arguments []string
	Options   map[string]string
	Body      []string

	// Line is the 1-based source line of the opening fence.
	Line int
}

var optionLine = regexp.MustCompile(`^:([A-Za-z][\w-]*):(?:\s+(.*))?$`)

// ParseInfo splits a fence info string of the form "{name} args..."
// into the directive name and its arguments. ok is false for ordinary
// fences.
func ParseInfo(info string) (name string, arguments []string, ok bool) {
	info = strings.TrimSpace(info)
	if !strings.HasPrefix(info, "{") {
		return "", nil, false
	}
	end := strings.IndexByte(info, '}')
	if end < 0 {
		return "", nil, false
	}
	name = strings.TrimSpace(info[1:end])
	if name == "" {
		return "", nil, false
	}
	arguments = strings.Fields(info[end+1:])
	if len(arguments) == 0 {
		arguments = nil
	}
	return name, arguments, true
}

// ParseBody separates the option block from the content of a directive
// body. Options are either leading ":key: value" lines or a YAML
// mapping between "---" lines. A single blank line after the options
// is dropped.
func ParseBody(lines []string) (options map[string]string, body []string, err error) {
	options = make(map[string]string)
	rest := lines

	if len(rest) > 0 && strings.TrimSpace(rest[0]) == "---" {
		closing := -1
		for index := 1; index < len(rest); index++ {
			if strings.TrimSpace(rest[index]) == "---" {
				closing = index
				break
			}
		}
		if closing < 0 {
			return nil, nil, fmt.Errorf("option block opened with --- is not closed")
		}
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(strings.Join(rest[1:closing], "\n")), &raw); err != nil {
			return nil, nil, fmt.Errorf("parsing option block: %w", err)
		}
		for key, value := range raw {
			options[strings.ToLower(key)] = optionString(value)
		}
		rest = rest[closing+1:]
	} else {
		for len(rest) > 0 {
			match := optionLine.FindStringSubmatch(strings.TrimSpace(rest[0]))
			if match == nil {
				break
			}
			options[strings.ToLower(match[1])] = strings.TrimSpace(match[2])
			rest = rest[1:]
		}
	}

	if len(options) > 0 && len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	return options, rest, nil
}

func optionString(value any) string {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// unknownOptions returns the keys of options not in accepted, sorted.
func unknownOptions(options map[string]string, accepted ...string) []string {
	var unknown []string
	for key := range options {
		found := false
		for _, name := range accepted {
			if key == name {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
