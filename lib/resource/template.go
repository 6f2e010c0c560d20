// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"fmt"
	"strings"
)

// Template is parametrizable text. Placeholders are written {name}; a
// literal brace is doubled ({{ or }}), so inline CSS and JavaScript in a
// template escape their braces.
type Template struct {
	// Name is the path the template was loaded from.
	Name string
	Text string
}

// Render substitutes values into the template. Values are inserted
// verbatim: callers escape anything that must be safe in the output
// markup. A placeholder with no value, or an unbalanced brace, is a
// template defect and returns an error.
func (t Template) Render(values map[string]string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(t.Text))

	text := t.Text
	for index := 0; index < len(text); index++ {
		character := text[index]
		switch character {
		case '{':
			if index+1 < len(text) && text[index+1] == '{' {
				builder.WriteByte('{')
				index++
				continue
			}
			end := strings.IndexByte(text[index+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("template %s: unterminated placeholder at offset %d", t.Name, index)
			}
			name := text[index+1 : index+1+end]
			value, ok := values[name]
			if !ok {
				return "", fmt.Errorf("template %s: no value for placeholder {%s}", t.Name, name)
			}
			builder.WriteString(value)
			index += end + 1
		case '}':
			if index+1 < len(text) && text[index+1] == '}' {
				builder.WriteByte('}')
				index++
				continue
			}
			return "", fmt.Errorf("template %s: single '}' at offset %d", t.Name, index)
		default:
			builder.WriteByte(character)
		}
	}
	return builder.String(), nil
}
