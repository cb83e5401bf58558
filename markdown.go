package studycompanion

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitize = bluemonday.UGCPolicy()
)

// RenderMarkdown converts generated notes or explanations to HTML that is
// safe to embed: raw HTML from the model is stripped and script content
// never survives.
func RenderMarkdown(raw string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(raw), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return sanitize.Sanitize(buf.String()), nil
}
