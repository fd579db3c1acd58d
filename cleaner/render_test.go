package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `
<h1>Title</h1>
<p>First paragraph with a <a href="/more">link</a>.</p>
<script>alert("noise")</script>
<p>Second paragraph.</p>
`

func TestRenderHTMLPassthrough(t *testing.T) {
	cl := NewCleaner()

	out, err := cl.Render(sampleBody, "https://example.com", FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, sampleBody, out)

	// Empty format defaults to html.
	out, err = cl.Render(sampleBody, "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, sampleBody, out)
}

func TestRenderMarkdown(t *testing.T) {
	cl := NewCleaner()

	out, err := cl.Render(sampleBody, "https://example.com", FormatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "https://example.com/more", "relative links are absolutised")
	assert.NotContains(t, out, "alert", "script content is stripped")
}

func TestRenderText(t *testing.T) {
	cl := NewCleaner()

	out, err := cl.Render(sampleBody, "https://example.com", FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "First paragraph with a link.")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "alert")
}

func TestRenderUnknownFormat(t *testing.T) {
	cl := NewCleaner()
	_, err := cl.Render(sampleBody, "https://example.com", "pdf")
	assert.Error(t, err)
}
