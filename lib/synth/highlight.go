// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlight renders the block as a standalone HTML page with inline
// styles, so the artifact has no stylesheet dependency.
func (s *Synthesizer) highlight(block ContentBlock, theme string) ([]byte, error) {
	source := block.Text()

	lexer := lexers.Get(block.Language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := s.lightStyle
	if theme == ThemeDark {
		styleName = s.darkStyle
	}
	// styles.Get returns styles.Fallback for unknown names.
	style := styles.Get(styleName)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil, fmt.Errorf("tokenising %s block: %w", block.Language, err)
	}

	formatter := chromahtml.New(
		chromahtml.Standalone(true),
		chromahtml.WithClasses(false),
		chromahtml.TabWidth(4),
	)
	var page bytes.Buffer
	if err := formatter.Format(&page, style, iterator); err != nil {
		return nil, fmt.Errorf("formatting %s block: %w", block.Language, err)
	}
	return page.Bytes(), nil
}
