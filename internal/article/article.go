// Package article turns user-supplied article input into prompt-ready text.
package article

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	ignoredSelector = "script, style, noscript, template, head, svg"
	blockSelector   = "p, div, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr, section, article, header, footer"
)

// PlainText returns the visible text of HTML input. Anything that does not
// parse to at least one element, or markup without visible text, is returned
// unchanged.
func PlainText(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "<") {
		return text
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return text
	}

	if doc.Find("body *").Length() == 0 {
		return text
	}

	doc.Find(ignoredSelector).Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).AppendHtml("\n")

	visible := collapseLines(doc.Find("body").Text())
	if visible == "" {
		return text
	}

	return visible
}

func collapseLines(text string) string {
	var lines []string

	for line := range strings.SplitSeq(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
