// Package cleaner renders stored post bodies into the formats the read API
// serves.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
)

// Output formats accepted by Render.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Cleaner renders post bodies on demand. Bodies are stored as the raw HTML
// extracted at crawl time; conversion happens at read time so one stored copy
// serves every format.
//
// The converter is created once and reused across all requests
// (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Render converts a stored HTML body into the requested format. sourceURL is
// used to absolutise relative links in Markdown output.
func (c *Cleaner) Render(body string, sourceURL string, format string) (string, error) {
	switch format {
	case "", FormatHTML:
		return body, nil
	case FormatMarkdown:
		md, err := toMarkdown(c.mdConverter, body, sourceURL)
		if err != nil {
			return "", fmt.Errorf("markdown conversion: %w", err)
		}
		return md, nil
	case FormatText:
		return htmlToText(body)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// htmlToText strips tags and collapses runs of blank lines.
func htmlToText(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("html parse: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	text := doc.Text()
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
