package summarizer

import (
	"strings"
)

type Style string

const (
	StyleBrief    Style = "brief"
	StyleDetailed Style = "detailed"
	StyleBullets  Style = "bullets"
)

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var promptTemplates = map[Style]string{
	StyleBrief:    "Provide a brief summary (2-3 sentences) of the following article:\n\n",
	StyleDetailed: "Provide a detailed summary covering all main points:\n\n",
	StyleBullets:  `Summarize this article in 5-7 key points. Use "- " for each point:` + "\n\n",
}

// ParseStyle maps a requested summary type onto a known style.
// Empty and unknown values fall back to StyleBrief.
func ParseStyle(raw string) Style {
	style := Style(raw)
	if _, ok := promptTemplates[style]; ok {
		return style
	}

	return StyleBrief
}

// BuildPrompt interpolates the article text verbatim into the template for
// style.
func BuildPrompt(style Style, text string) string {
	template, ok := promptTemplates[style]
	if !ok {
		template = promptTemplates[StyleBrief]
	}

	var b strings.Builder
	b.Grow(len(template) + len(text))
	b.WriteString(template)
	b.WriteString(text)

	return b.String()
}
