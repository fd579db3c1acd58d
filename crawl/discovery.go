package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/gleaner/models"
)

const (
	// interSiteDelay paces list-page visits so discovery never hammers
	// multiple sites back to back.
	interSiteDelay = 3 * time.Second

	siteTimeout         = 60 * time.Second
	listStartTimeout    = 30 * time.Second
	selectorWaitTimeout = 20 * time.Second
	removeTimeout       = 10 * time.Second
	linkQueryTimeout    = 20 * time.Second
)

// Discovery visits every enabled site's list page, extracts candidate post
// links, and inserts them as PENDING posts. Sites are visited sequentially;
// failures feed the error tracker and may disable the site.
type Discovery struct {
	sites   SiteStore
	posts   PostStore
	nav     Navigator
	tracker *SiteErrorTracker
}

func NewDiscovery(sites SiteStore, posts PostStore, nav Navigator, tracker *SiteErrorTracker) *Discovery {
	return &Discovery{sites: sites, posts: posts, nav: nav, tracker: tracker}
}

// Run executes one discovery tick. Per-site failures and timeouts are
// logged and never abort the tick.
func (d *Discovery) Run(ctx context.Context) {
	sites, err := d.sites.Enabled(ctx)
	if err != nil {
		slog.Error("failed to load sites", "error", err)
		return
	}

	for i, site := range sites {
		if i > 0 {
			select {
			case <-time.After(interSiteDelay):
			case <-ctx.Done():
				return
			}
		}

		sctx, cancel := context.WithTimeout(ctx, siteTimeout)
		err := d.processSite(sctx, site)
		timedOut := errors.Is(sctx.Err(), context.DeadlineExceeded)
		cancel()

		switch {
		case timedOut:
			slog.Error("site processing timed out", "site_id", site.ID)
		case err != nil:
			slog.Error("site processing failed", "site_id", site.ID, "error", err)
		}
	}
}

func (d *Discovery) processSite(ctx context.Context, site models.Site) error {
	if site.PathLink == "" {
		return nil
	}

	octx, ocancel := context.WithTimeout(ctx, listStartTimeout)
	page, err := d.nav.Open(octx, site.URLList, 0, 0)
	ocancel()
	if err != nil {
		slog.Error("browser failed to start for site", "site_id", site.ID, "error", err)
		d.block(ctx, site.ID)
		return nil
	}
	defer page.Close()

	if err := page.WaitFor(ctx, site.PathLink, selectorWaitTimeout); err != nil {
		slog.Error("wait for link selector failed",
			"site_id", site.ID, "selector", site.PathLink, "error", err)
		d.block(ctx, site.ID)
		return nil
	}

	// The navigation succeeded, so the site earns a fresh error budget
	// regardless of how extraction below goes.
	d.tracker.Reset(site.ID)

	if selectors := site.RemoveSelectors(); len(selectors) > 0 {
		rctx, rcancel := context.WithTimeout(ctx, removeTimeout)
		removeErr := page.Remove(rctx, selectors)
		removeTimedOut := errors.Is(rctx.Err(), context.DeadlineExceeded)
		rcancel()

		if removeErr != nil {
			slog.Warn("failed to remove elements", "site_id", site.ID, "error", removeErr)
			if removeTimedOut {
				d.block(ctx, site.ID)
			}
		}
	}

	qctx, qcancel := context.WithTimeout(ctx, linkQueryTimeout)
	links, err := page.Attrs(qctx, site.PathLink, "href")
	queryTimedOut := errors.Is(qctx.Err(), context.DeadlineExceeded)
	qcancel()
	if err != nil {
		if queryTimedOut {
			slog.Error("link query timed out", "site_id", site.ID)
			d.block(ctx, site.ID)
			return nil
		}
		return fmt.Errorf("link query failed for site %d: %w", site.ID, err)
	}

	for _, raw := range links {
		link := Normalize(site.URL, raw)
		err := d.posts.Create(ctx, models.PostCreate{
			URL:      link,
			SiteID:   site.ID,
			UserID:   site.UserID,
			APIKeyID: site.APIKeyID,
		})
		if err != nil && !errors.Is(err, models.ErrDuplicatePost) {
			slog.Error("failed to create post", "site_id", site.ID, "url", link, "error", err)
		}
	}

	return nil
}

func (d *Discovery) block(ctx context.Context, siteID int64) {
	blockSite(ctx, d.tracker, d.sites, siteID)
}
