package scraper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/gleaner/models"
)

// removeJS deletes every node matching each selector. A selector that fails
// to parse must not abort the batch, hence the per-selector try/catch.
const removeJS = `(selectors) => {
	for (const sel of selectors) {
		try {
			document.querySelectorAll(sel).forEach((el) => el.remove());
		} catch (e) {}
	}
}`

// Page is an open browser tab bound to one navigated document. All query
// operations take a context so callers control per-operation deadlines; the
// tab itself stays alive until Close.
type Page struct {
	page    *rod.Page
	width   int
	height  int
	release func()
}

// Close returns the tab to the pool. Safe to call exactly once.
func (pg *Page) Close() {
	pg.release()
}

// WaitFor blocks until the first match for selector appears, or fails when
// the timeout elapses first.
func (pg *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := pg.page.Context(wctx).Element(selector); err != nil {
		return models.NewCrawlError(
			models.ErrCodeSelectorTimeout,
			"selector did not appear: "+selector,
			err,
		)
	}
	return nil
}

// Text returns the inner text of the first match for selector.
func (pg *Page) Text(ctx context.Context, selector string) (string, error) {
	el, err := pg.find(ctx, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeScript, "failed to read element text", err)
	}
	return text, nil
}

// HTML returns the outer HTML of the first match for selector.
func (pg *Page) HTML(ctx context.Context, selector string) (string, error) {
	el, err := pg.find(ctx, selector)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(`() => this.outerHTML`)
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeScript, "failed to read element html", err)
	}
	return res.Value.Str(), nil
}

// Attr returns the named attribute of the first match for selector, or an
// empty string when the element has no such attribute.
func (pg *Page) Attr(ctx context.Context, selector, name string) (string, error) {
	el, err := pg.find(ctx, selector)
	if err != nil {
		return "", err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeScript, "failed to read attribute", err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// Attrs returns the named attribute across all matches for selector, in
// document order. Elements without the attribute are skipped.
func (pg *Page) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	elements, err := pg.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeScript, "failed to query selector: "+selector, err)
	}

	values := make([]string, 0, len(elements))
	for _, el := range elements {
		value, attrErr := el.Attribute(name)
		if attrErr != nil {
			return nil, models.NewCrawlError(models.ErrCodeScript, "failed to read attribute", attrErr)
		}
		if value != nil {
			values = append(values, *value)
		}
	}
	return values, nil
}

// Remove deletes every node matching the given selectors from the DOM.
func (pg *Page) Remove(ctx context.Context, selectors []string) error {
	if len(selectors) == 0 {
		return nil
	}
	if _, err := pg.page.Context(ctx).Eval(removeJS, selectors); err != nil {
		return models.NewCrawlError(models.ErrCodeScript, "failed to remove elements", err)
	}
	return nil
}

// Screenshot writes a JPEG of the body's margin-viewport bounding box to
// path (default "screenshot.jpeg") and returns the path written.
func (pg *Page) Screenshot(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "screenshot.jpeg"
	}

	p := pg.page.Context(ctx)

	body, err := p.Element("body")
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeSelectorTimeout, "document body not found", err)
	}
	shape, err := body.Shape()
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeScript, "failed to resolve body bounds", err)
	}
	box := shape.Box()

	data, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatJpeg,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
	})
	if err != nil {
		return "", models.NewCrawlError(models.ErrCodeScript, "failed to capture screenshot", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", models.NewCrawlError(models.ErrCodeIO, "failed to create screenshot directory", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", models.NewCrawlError(models.ErrCodeIO, "failed to write screenshot", err)
	}
	return path, nil
}

// find locates the first match for selector without waiting for it to
// appear; extraction runs against an already-loaded document.
func (pg *Page) find(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := pg.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeScript, "failed to query selector: "+selector, err)
	}
	if !has {
		return nil, models.NewCrawlError(models.ErrCodeSelectorTimeout, "no match for selector: "+selector, nil)
	}
	return el, nil
}
