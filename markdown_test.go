package studycompanion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Limits\n\n- **epsilon**\n- delta\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>epsilon</strong>")
	assert.Contains(t, html, "<li>delta</li>")
	assert.Contains(t, html, "<table>")
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	html, err := RenderMarkdown("Hello <script>alert('x')</script>\n\n[link](javascript:alert(1))\n\n<img src=x onerror=alert(1)>")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.NotContains(t, html, "onerror")
}
