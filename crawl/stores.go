// Package crawl implements the crawl engine: periodic site discovery, the
// bounded fetch pool, the per-site failure tracker, and post retention.
package crawl

import (
	"context"
	"time"

	"github.com/use-agent/gleaner/models"
)

// SiteStore is the slice of site persistence the engine consumes.
type SiteStore interface {
	// Enabled lists every site with status = true.
	Enabled(ctx context.Context) ([]models.Site, error)

	// Disable persists status = false for a site.
	Disable(ctx context.Context, siteID int64) error
}

// PostStore is the slice of post persistence the engine consumes.
type PostStore interface {
	// Create inserts a PENDING post; a (site, url) duplicate returns
	// models.ErrDuplicatePost.
	Create(ctx context.Context, p models.PostCreate) error

	// PendingWithSites lists PENDING and FAILED posts joined with their
	// owning site, newest first.
	PendingWithSites(ctx context.Context) ([]models.PostWithSite, error)

	// UpdateContent persists extracted content and moves the post to
	// COMPLETED.
	UpdateContent(ctx context.Context, postID int64, c models.PostContent) error

	// MarkFailed advances the retry counter and moves the post to FAILED,
	// or CANCELLED once the budget is exhausted.
	MarkFailed(ctx context.Context, postID int64) error

	// CleanupOld deletes posts below the retention boundary and returns
	// the number removed.
	CleanupOld(ctx context.Context, keepLatest int64) (int64, error)
}

// Page is one open browser tab. Operations take a context so the engine
// controls per-operation deadlines.
type Page interface {
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	Text(ctx context.Context, selector string) (string, error)
	HTML(ctx context.Context, selector string) (string, error)
	Attr(ctx context.Context, selector, name string) (string, error)
	Attrs(ctx context.Context, selector, name string) ([]string, error)
	Remove(ctx context.Context, selectors []string) error
	Screenshot(ctx context.Context, path string) (string, error)
	Close()
}

// Navigator opens browser pages. Implemented by the scraper; faked in tests.
type Navigator interface {
	Open(ctx context.Context, url string, width, height int) (Page, error)
}
