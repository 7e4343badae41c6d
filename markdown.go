package techpulse

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithUnsafe(),
	),
)

// renderMarkdown converts article markdown to HTML. On conversion failure
// the raw source is returned so the page still renders something.
func renderMarkdown(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	var b strings.Builder
	if err := markdown.Convert([]byte(input), &b); err != nil {
		return input
	}
	return b.String()
}
